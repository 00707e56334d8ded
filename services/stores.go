// Package services holds the catalog, cart, order, payment and auth
// workflows. Stores report a missing entity with an apperrors.KindNotFound
// error whose message is suitable for the caller.
package services

import (
	"context"
	"time"

	"coffee-shop/models"
	"coffee-shop/paystack"
)

type UserStore interface {
	// Create fails with apperrors.KindConflict when the email is taken.
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type CoffeeStore interface {
	List(ctx context.Context) ([]models.Coffee, error)
	Get(ctx context.Context, id string) (*models.Coffee, error)
	Create(ctx context.Context, coffee *models.Coffee) error
	Update(ctx context.Context, coffee *models.Coffee) error
	Delete(ctx context.Context, id string) error
}

type CartStore interface {
	// GetByUser returns the cart with its items and their catalog entries.
	GetByUser(ctx context.Context, userID string) (*models.Cart, error)
	// AddItem atomically creates the cart if needed and adds quantity to the
	// line for coffeeID, creating the line if absent.
	AddItem(ctx context.Context, userID, coffeeID string, quantity int) (cartCreated bool, err error)
	RemoveItem(ctx context.Context, userID, coffeeID string) error
	// Clear atomically empties a non-empty cart and returns its prior contents.
	Clear(ctx context.Context, userID string) (*models.Cart, error)
}

type OrderStore interface {
	// CreateFromCart locks the user's cart, hands its contents to build,
	// persists the returned order and empties the cart, all atomically.
	CreateFromCart(ctx context.Context, userID string, build func(cart *models.Cart) (*models.Order, error)) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	// TransitionStatus moves id from one status to another only if it is
	// currently in from. It reports whether the row changed.
	TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error)
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, evt models.OrderEvent, priority uint8) error
	PublishDelayedEvent(ctx context.Context, evt models.OrderEvent, delay time.Duration) error
}

type PaymentProcessor interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
}
