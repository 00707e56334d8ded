package services

import (
	"context"
	"log"
	"time"

	"coffee-shop/apperrors"
	"coffee-shop/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderInput struct {
	UserID string `json:"userId"`
}

type UpdateOrderStatusInput struct {
	Status models.OrderStatus `json:"status" validate:"required,oneof=pending completed cancelled"`
}

var highValueOrder = decimal.NewFromInt(1000)

type OrderService struct {
	orders            OrderStore
	events            EventPublisher
	paymentCheckDelay time.Duration
}

// NewOrderService wires the order workflow. events may be nil, in which case
// no order events are published.
func NewOrderService(orders OrderStore, events EventPublisher, paymentCheckDelay time.Duration) *OrderService {
	return &OrderService{orders: orders, events: events, paymentCheckDelay: paymentCheckDelay}
}

// Create turns the user's cart into a pending order priced at current catalog
// prices and empties the cart.
func (s *OrderService) Create(ctx context.Context, userID string) (*models.Order, error) {
	order, err := s.orders.CreateFromCart(ctx, userID, func(cart *models.Cart) (*models.Order, error) {
		if cart == nil || len(cart.Items) == 0 {
			return nil, apperrors.NotFound("Cart is empty or does not exist")
		}
		items := models.SnapshotItems(cart)
		now := time.Now().UTC()
		return &models.Order{
			ID:        uuid.NewString(),
			UserID:    userID,
			Items:     items,
			Total:     models.OrderTotal(items),
			Status:    models.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Order %s created successfully for user: %s", order.ID, userID)

	var priority uint8 = 5
	if order.Total.GreaterThan(highValueOrder) {
		priority = 9
	}
	s.publish(ctx, models.NewOrderEvent(order, models.EventCreated), priority)
	s.publishDelayed(ctx, models.NewOrderEvent(order, models.EventPaymentCheck), s.paymentCheckDelay)
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.Get(ctx, id)
}

// ListByUser fails with NotFound when the user has no orders.
func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperrors.NotFound("No orders found for this user")
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// UpdateStatus overwrites the status of an order. Any status may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("Status must be one of: pending, completed, or cancelled",
			apperrors.FieldError{Field: "status", Message: "Status must be one of: pending, completed, or cancelled"})
	}
	order, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	log.Printf("Order status updated to %q for order: %s", status, id)

	var priority uint8 = 5
	if status == models.StatusCancelled {
		priority = 8
	}
	s.publish(ctx, models.NewOrderEvent(order, models.EventStatusUpdated), priority)
	return order, nil
}

// MarkPaid completes an order after the processor confirmed payment.
func (s *OrderService) MarkPaid(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.UpdateStatus(ctx, id, models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	log.Printf("Order %s marked completed after payment", id)
	s.publish(ctx, models.NewOrderEvent(order, models.EventPaid), 7)
	return order, nil
}

// CancelIfPending cancels an order that is still awaiting payment. It reports
// whether the order was cancelled.
func (s *OrderService) CancelIfPending(ctx context.Context, id string) (bool, error) {
	changed, err := s.orders.TransitionStatus(ctx, id, models.StatusPending, models.StatusCancelled)
	if err != nil {
		return false, err
	}
	if changed {
		log.Printf("Auto-cancelled order %s due to non-payment", id)
	}
	return changed, nil
}

func (s *OrderService) publish(ctx context.Context, evt models.OrderEvent, priority uint8) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, evt, priority); err != nil {
		log.Printf("Failed to publish order %s event for %s: %v", evt.Type, evt.OrderID, err)
	}
}

func (s *OrderService) publishDelayed(ctx context.Context, evt models.OrderEvent, delay time.Duration) {
	if s.events == nil || delay <= 0 {
		return
	}
	if err := s.events.PublishDelayedEvent(ctx, evt, delay); err != nil {
		log.Printf("Failed to publish delayed %s event for %s: %v", evt.Type, evt.OrderID, err)
	}
}
