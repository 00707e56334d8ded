package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// UnknownCoffeeName labels an order line whose catalog item disappeared
// between being added to the cart and the order being placed.
const UnknownCoffeeName = "Unknown Coffee"

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// OrderItem is a frozen copy of a cart line, priced when the order was placed.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderTotal sums price × quantity over items.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// SnapshotItems freezes cart lines into order lines using each line's
// current catalog name and price.
func SnapshotItems(cart *Cart) []OrderItem {
	items := make([]OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		item := OrderItem{
			ProductID: line.CoffeeID,
			Name:      UnknownCoffeeName,
			Price:     decimal.Zero,
			Quantity:  line.Quantity,
		}
		if line.Coffee != nil {
			item.Name = line.Coffee.Name
			item.Price = line.Coffee.Price
		}
		items = append(items, item)
	}
	return items
}

type OrderEventType string

const (
	EventCreated       OrderEventType = "created"
	EventStatusUpdated OrderEventType = "status_updated"
	EventPaid          OrderEventType = "paid"
	EventPaymentCheck  OrderEventType = "payment_check"
	EventAutoCancelled OrderEventType = "auto_cancelled"
)

type OrderEvent struct {
	OrderID  string          `json:"orderId"`
	UserID   string          `json:"userId"`
	Type     OrderEventType  `json:"type"`
	Status   OrderStatus     `json:"status"`
	Total    decimal.Decimal `json:"total"`
	Occurred time.Time       `json:"occurred"`
}

func NewOrderEvent(order *Order, eventType OrderEventType) OrderEvent {
	return OrderEvent{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Type:     eventType,
		Status:   order.Status,
		Total:    order.Total,
		Occurred: time.Now().UTC(),
	}
}
