package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coffee-shop/apperrors"
	"coffee-shop/database"
	"coffee-shop/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartRepository struct {
	DB *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{DB: db}
}

func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?", userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("Cart not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	if cart.Items, err = loadCartItems(ctx, r.DB, cart.ID); err != nil {
		return nil, err
	}
	return &cart, nil
}

// newCartID generates the id offered when a cart may need to be created.
var newCartID = uuid.NewString

func (r *CartRepository) AddItem(ctx context.Context, userID, coffeeID string, quantity int) (bool, error) {
	var created bool
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		cartID := newCartID()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO carts (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE updated_at = VALUES(updated_at)`,
			cartID, userID, now, now,
		)
		if err != nil {
			return fmt.Errorf("ensure cart: %w", err)
		}

		cart, err := lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		// The insert only kept our id if no cart existed for the user.
		created = cart.ID == cartID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO cart_items (id, cart_id, coffee_id, quantity) VALUES (?, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
			uuid.NewString(), cart.ID, coffeeID, quantity,
		)
		if err != nil {
			return fmt.Errorf("upsert cart item: %w", err)
		}
		return nil
	})
	return created, err
}

func (r *CartRepository) RemoveItem(ctx context.Context, userID, coffeeID string) error {
	return database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		cart, err := lockCart(ctx, tx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("Cart not found")
		}
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			"DELETE FROM cart_items WHERE cart_id = ? AND coffee_id = ?", cart.ID, coffeeID)
		if err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}
		if err := requireAffected(result, "Product not found in cart"); err != nil {
			return err
		}
		return touchCart(ctx, tx, cart.ID)
	})
}

func (r *CartRepository) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	var cart *models.Cart
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var err error
		cart, err = lockCart(ctx, tx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("Cart is empty or does not exist")
		}
		if err != nil {
			return err
		}
		if cart.Items, err = loadCartItems(ctx, tx, cart.ID); err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return apperrors.NotFound("Cart is empty or does not exist")
		}
		if err := clearCartItems(ctx, tx, cart.ID); err != nil {
			return err
		}
		return touchCart(ctx, tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// lockCart reads the user's cart row with SELECT ... FOR UPDATE, serializing
// every multi-step cart mutation for that user. It returns sql.ErrNoRows
// unwrapped when the user has no cart.
func lockCart(ctx context.Context, tx *sql.Tx, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := tx.QueryRowContext(ctx,
		"SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ? FOR UPDATE", userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	return &cart, nil
}

func loadCartItems(ctx context.Context, q querier, cartID string) ([]models.CartItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.coffee_id, ci.quantity,
		       c.name, c.description, c.price, c.created_at, c.updated_at
		FROM cart_items ci
		LEFT JOIN coffees c ON c.id = ci.coffee_id
		WHERE ci.cart_id = ?
		ORDER BY ci.id ASC
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var (
			item       models.CartItem
			name, desc sql.NullString
			price      decimal.NullDecimal
			createdAt  sql.NullTime
			updatedAt  sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.CartID, &item.CoffeeID, &item.Quantity,
			&name, &desc, &price, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		if name.Valid {
			item.Coffee = &models.Coffee{
				ID:          item.CoffeeID,
				Name:        name.String,
				Description: desc.String,
				Price:       price.Decimal,
				CreatedAt:   createdAt.Time,
				UpdatedAt:   updatedAt.Time,
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func clearCartItems(ctx context.Context, tx *sql.Tx, cartID string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = ?", cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func touchCart(ctx context.Context, tx *sql.Tx, cartID string) error {
	if _, err := tx.ExecContext(ctx, "UPDATE carts SET updated_at = ? WHERE id = ?", time.Now().UTC(), cartID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}
