package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coffee-shop/apperrors"
	"coffee-shop/models"
)

type CoffeeRepository struct {
	DB *sql.DB
}

func NewCoffeeRepository(db *sql.DB) *CoffeeRepository {
	return &CoffeeRepository{DB: db}
}

const coffeeColumns = "id, name, description, price, created_at, updated_at"

func scanCoffee(row interface{ Scan(...any) error }, c *models.Coffee) error {
	return row.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CoffeeRepository) List(ctx context.Context) ([]models.Coffee, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+coffeeColumns+" FROM coffees ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("query coffees: %w", err)
	}
	defer rows.Close()

	coffees := []models.Coffee{}
	for rows.Next() {
		var c models.Coffee
		if err := scanCoffee(rows, &c); err != nil {
			return nil, fmt.Errorf("scan coffee: %w", err)
		}
		coffees = append(coffees, c)
	}
	return coffees, rows.Err()
}

func (r *CoffeeRepository) Get(ctx context.Context, id string) (*models.Coffee, error) {
	var c models.Coffee
	err := scanCoffee(r.DB.QueryRowContext(ctx, "SELECT "+coffeeColumns+" FROM coffees WHERE id = ?", id), &c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("Coffee item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query coffee: %w", err)
	}
	return &c, nil
}

func (r *CoffeeRepository) Create(ctx context.Context, c *models.Coffee) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO coffees (id, name, description, price, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Description, c.Price, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert coffee: %w", err)
	}
	return nil
}

func (r *CoffeeRepository) Update(ctx context.Context, c *models.Coffee) error {
	result, err := r.DB.ExecContext(ctx,
		"UPDATE coffees SET name = ?, description = ?, price = ?, updated_at = ? WHERE id = ?",
		c.Name, c.Description, c.Price, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update coffee: %w", err)
	}
	return requireAffected(result, "Coffee item not found")
}

func (r *CoffeeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM coffees WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete coffee: %w", err)
	}
	return requireAffected(result, "Coffee item not found")
}

// requireAffected turns a zero-row result into NotFound. It relies on the
// connection reporting matched rather than changed rows (clientFoundRows).
func requireAffected(result sql.Result, notFound string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound(notFound)
	}
	return nil
}
