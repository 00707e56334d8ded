package services

import (
	"context"
	"log"

	"coffee-shop/apperrors"
	"coffee-shop/models"
)

type AddToCartInput struct {
	CoffeeID string `json:"coffeeId" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
	UserID   string `json:"userId"`
}

type RemoveFromCartInput struct {
	CoffeeID string `json:"coffeeId" validate:"required"`
	UserID   string `json:"userId"`
}

type CheckoutResult struct {
	Message string       `json:"message"`
	Cart    *models.Cart `json:"cart"`
}

type CartService struct {
	carts   CartStore
	coffees CoffeeStore
}

func NewCartService(carts CartStore, coffees CoffeeStore) *CartService {
	return &CartService{carts: carts, coffees: coffees}
}

func (s *CartService) Get(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			log.Printf("warn: cart not found for user: %s", userID)
		}
		return nil, err
	}
	return cart, nil
}

// AddItem adds quantity of a catalog item to the user's cart, creating the
// cart on first use, and returns the refreshed cart.
func (s *CartService) AddItem(ctx context.Context, userID, coffeeID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("quantity must be at least 1",
			apperrors.FieldError{Field: "quantity", Message: "quantity must be at least 1"})
	}
	if _, err := s.coffees.Get(ctx, coffeeID); err != nil {
		return nil, err
	}

	created, err := s.carts.AddItem(ctx, userID, coffeeID, quantity)
	if err != nil {
		return nil, err
	}
	if created {
		log.Printf("Created a new cart for user: %s", userID)
	}
	log.Printf("Added product %s to cart for user: %s", coffeeID, userID)
	return s.carts.GetByUser(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, coffeeID string) (*models.Cart, error) {
	if err := s.carts.RemoveItem(ctx, userID, coffeeID); err != nil {
		return nil, err
	}
	log.Printf("Removed product %s from cart for user: %s", coffeeID, userID)
	return s.carts.GetByUser(ctx, userID)
}

// Checkout empties the cart. It does not create an order.
func (s *CartService) Checkout(ctx context.Context, userID string) (*CheckoutResult, error) {
	cart, err := s.carts.Clear(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.Printf("User %s checked out their cart", userID)
	return &CheckoutResult{Message: "Checkout successful", Cart: cart}, nil
}
