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

	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

// CreateFromCart locks the user's cart, hands its contents to build, persists
// the resulting order with its items and empties the cart, all in one
// transaction. Any error from build aborts without side effects.
func (r *OrderRepository) CreateFromCart(ctx context.Context, userID string, build func(*models.Cart) (*models.Order, error)) (*models.Order, error) {
	var order *models.Order
	err := database.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		cart, err := lockCart(ctx, tx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("Cart is empty or does not exist")
		}
		if err != nil {
			return err
		}
		if cart.Items, err = loadCartItems(ctx, tx, cart.ID); err != nil {
			return err
		}

		if order, err = build(cart); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO orders (id, user_id, total, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			order.ID, order.UserID, order.Total, order.Status, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range order.Items {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO order_items (order_id, product_id, product_name, quantity, price) VALUES (?, ?, ?, ?, ?)",
				order.ID, item.ProductID, item.Name, item.Quantity, item.Price,
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		if err := clearCartItems(ctx, tx, cart.ID); err != nil {
			return err
		}
		return touchCart(ctx, tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	orders, err := r.query(ctx, "WHERE o.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperrors.NotFound("Order not found")
	}
	return &orders[0], nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return r.query(ctx, "WHERE o.user_id = ?", userID)
}

func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	return r.query(ctx, "")
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	result, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ?", status, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if err := requireAffected(result, "Order not found"); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// TransitionStatus moves an order from one status to another only if it is
// still in the expected status. It reports whether the row changed.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error) {
	result, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		to, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("transition order status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// query loads orders with their items in one round trip, newest first,
// keeping the row order of the result set.
func (r *OrderRepository) query(ctx context.Context, where string, args ...any) ([]models.Order, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT o.id, o.user_id, o.total, o.status, o.created_at, o.updated_at,
		       oi.id, oi.product_id, oi.product_name, oi.quantity, oi.price
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		`+where+`
		ORDER BY o.created_at DESC, o.id ASC, oi.id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	index := map[string]int{}
	for rows.Next() {
		var (
			order       models.Order
			itemID      sql.NullInt64
			productID   sql.NullString
			productName sql.NullString
			quantity    sql.NullInt64
			price       decimal.NullDecimal
		)
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &order.CreatedAt, &order.UpdatedAt,
			&itemID, &productID, &productName, &quantity, &price); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		i, ok := index[order.ID]
		if !ok {
			order.Items = []models.OrderItem{}
			orders = append(orders, order)
			i = len(orders) - 1
			index[order.ID] = i
		}
		if itemID.Valid {
			orders[i].Items = append(orders[i].Items, models.OrderItem{
				ProductID: productID.String,
				Name:      productName.String,
				Price:     price.Decimal,
				Quantity:  int(quantity.Int64),
			})
		}
	}
	return orders, rows.Err()
}
