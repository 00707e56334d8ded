package services

import (
	"context"
	"log"
	"time"

	"coffee-shop/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateCoffeeInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
}

type UpdateCoffeeInput struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description" validate:"omitempty"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
}

// CoffeeService manages the catalog.
type CoffeeService struct {
	coffees CoffeeStore
}

func NewCoffeeService(coffees CoffeeStore) *CoffeeService {
	return &CoffeeService{coffees: coffees}
}

func (s *CoffeeService) List(ctx context.Context) ([]models.Coffee, error) {
	return s.coffees.List(ctx)
}

func (s *CoffeeService) Get(ctx context.Context, id string) (*models.Coffee, error) {
	return s.coffees.Get(ctx, id)
}

func (s *CoffeeService) Create(ctx context.Context, in CreateCoffeeInput) (*models.Coffee, error) {
	now := time.Now().UTC()
	coffee := &models.Coffee{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       decimal.NewFromFloat(*in.Price).Round(2),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.coffees.Create(ctx, coffee); err != nil {
		return nil, err
	}
	log.Printf("Coffee item created: %s (%s)", coffee.ID, coffee.Name)
	return coffee, nil
}

func (s *CoffeeService) Update(ctx context.Context, id string, in UpdateCoffeeInput) (*models.Coffee, error) {
	coffee, err := s.coffees.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		coffee.Name = *in.Name
	}
	if in.Description != nil {
		coffee.Description = *in.Description
	}
	if in.Price != nil {
		coffee.Price = decimal.NewFromFloat(*in.Price).Round(2)
	}
	coffee.UpdatedAt = time.Now().UTC()

	if err := s.coffees.Update(ctx, coffee); err != nil {
		return nil, err
	}
	log.Printf("Coffee item updated: %s", coffee.ID)
	return coffee, nil
}

func (s *CoffeeService) Delete(ctx context.Context, id string) (*models.Coffee, error) {
	coffee, err := s.coffees.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.coffees.Delete(ctx, id); err != nil {
		return nil, err
	}
	log.Printf("Coffee item removed: %s (%s)", coffee.ID, coffee.Name)
	return coffee, nil
}
