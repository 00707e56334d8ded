package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		name          VARCHAR(255) NOT NULL,
		role          ENUM('user','admin') NOT NULL DEFAULT 'user',
		created_at    DATETIME(3)  NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS coffees (
		id          CHAR(36)      NOT NULL PRIMARY KEY,
		name        VARCHAR(255)  NOT NULL,
		description TEXT          NOT NULL,
		price       DECIMAL(10,2) NOT NULL,
		created_at  DATETIME(3)   NOT NULL,
		updated_at  DATETIME(3)   NOT NULL,
		CHECK (price >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS carts (
		id         CHAR(36)    NOT NULL PRIMARY KEY,
		user_id    CHAR(36)    NOT NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		UNIQUE KEY uq_carts_user (user_id),
		CONSTRAINT fk_carts_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS cart_items (
		id        CHAR(36) NOT NULL PRIMARY KEY,
		cart_id   CHAR(36) NOT NULL,
		coffee_id CHAR(36) NOT NULL,
		quantity  INT      NOT NULL,
		UNIQUE KEY uq_cart_items_line (cart_id, coffee_id),
		CONSTRAINT fk_cart_items_cart FOREIGN KEY (cart_id) REFERENCES carts (id) ON DELETE CASCADE,
		CONSTRAINT fk_cart_items_coffee FOREIGN KEY (coffee_id) REFERENCES coffees (id) ON DELETE CASCADE,
		CHECK (quantity >= 1)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS orders (
		id         CHAR(36)      NOT NULL PRIMARY KEY,
		user_id    CHAR(36)      NOT NULL,
		total      DECIMAL(12,2) NOT NULL,
		status     ENUM('pending','completed','cancelled') NOT NULL DEFAULT 'pending',
		created_at DATETIME(3)   NOT NULL,
		updated_at DATETIME(3)   NOT NULL,
		KEY idx_orders_user (user_id, created_at),
		CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS order_items (
		id           BIGINT        NOT NULL AUTO_INCREMENT PRIMARY KEY,
		order_id     CHAR(36)      NOT NULL,
		product_id   CHAR(36)      NOT NULL,
		product_name VARCHAR(255)  NOT NULL,
		price        DECIMAL(10,2) NOT NULL,
		quantity     INT           NOT NULL,
		KEY idx_order_items_order (order_id),
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
