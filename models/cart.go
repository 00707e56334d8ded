package models

import "time"

type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem is a live reference to a catalog item. Coffee is nil when the
// referenced item is no longer in the catalog.
type CartItem struct {
	ID       string  `json:"id"`
	CartID   string  `json:"cartId"`
	CoffeeID string  `json:"coffeeId"`
	Quantity int     `json:"quantity"`
	Coffee   *Coffee `json:"coffee,omitempty"`
}

func (c *Cart) Item(coffeeID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.CoffeeID == coffeeID {
			return item, true
		}
	}
	return CartItem{}, false
}
