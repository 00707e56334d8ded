package commands

import (
	"context"
	"database/sql"
	"fmt"

	"coffee-shop/config"
	"coffee-shop/database"
	"coffee-shop/repository"
	"coffee-shop/repository/memstore"
	"coffee-shop/services"
)

const (
	storeMySQL  = "mysql"
	storeMemory = "memory"
)

type stores struct {
	users   services.UserStore
	coffees services.CoffeeStore
	carts   services.CartStore
	orders  services.OrderStore
	close   func()
}

func openMySQL(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(ctx, database.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openStores(ctx context.Context, cfg *config.Config, kind string) (*stores, error) {
	switch kind {
	case storeMySQL:
		db, err := openMySQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:   repository.NewUserRepository(db),
			coffees: repository.NewCoffeeRepository(db),
			carts:   repository.NewCartRepository(db),
			orders:  repository.NewOrderRepository(db),
			close:   func() { db.Close() },
		}, nil
	case storeMemory:
		mem := memstore.New()
		return &stores{
			users:   mem.Users(),
			coffees: mem.Coffees(),
			carts:   mem.Carts(),
			orders:  mem.Orders(),
			close:   func() {},
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", kind, storeMySQL, storeMemory)
	}
}
