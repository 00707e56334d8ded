// Package memstore keeps every entity in process memory behind one mutex.
// It backs `serve --store=memory` and the handler and service tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"coffee-shop/apperrors"
	"coffee-shop/models"

	"github.com/google/uuid"
)

type cartRow struct {
	cart  models.Cart
	items []models.CartItem
}

type Store struct {
	mu      sync.Mutex
	users   map[string]models.User
	emails  map[string]string
	coffees map[string]models.Coffee
	carts   map[string]*cartRow
	orders  map[string]models.Order
}

func New() *Store {
	return &Store{
		users:   map[string]models.User{},
		emails:  map[string]string{},
		coffees: map[string]models.Coffee{},
		carts:   map[string]*cartRow{},
		orders:  map[string]models.Order{},
	}
}

func (s *Store) Users() *Users     { return &Users{s} }
func (s *Store) Coffees() *Coffees { return &Coffees{s} }
func (s *Store) Carts() *Carts     { return &Carts{s} }
func (s *Store) Orders() *Orders   { return &Orders{s} }

type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.emails[user.Email]; ok {
		return apperrors.Conflict("User with this email already exists")
	}
	u.s.users[user.ID] = *user
	u.s.emails[user.Email] = user.ID
	return nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	id, ok := u.s.emails[email]
	if !ok {
		return nil, apperrors.NotFound("User not found")
	}
	user := u.s.users[id]
	return &user, nil
}

func (u *Users) FindByID(_ context.Context, id string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, apperrors.NotFound("User not found")
	}
	return &user, nil
}

type Coffees struct{ s *Store }

func (c *Coffees) List(_ context.Context) ([]models.Coffee, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]models.Coffee, 0, len(c.s.coffees))
	for _, coffee := range c.s.coffees {
		out = append(out, coffee)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *Coffees) Get(_ context.Context, id string) (*models.Coffee, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	coffee, ok := c.s.coffees[id]
	if !ok {
		return nil, apperrors.NotFound("Coffee item not found")
	}
	return &coffee, nil
}

func (c *Coffees) Create(_ context.Context, coffee *models.Coffee) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.coffees[coffee.ID] = *coffee
	return nil
}

func (c *Coffees) Update(_ context.Context, coffee *models.Coffee) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.coffees[coffee.ID]; !ok {
		return apperrors.NotFound("Coffee item not found")
	}
	c.s.coffees[coffee.ID] = *coffee
	return nil
}

// Delete also drops cart lines referencing the coffee, mirroring the
// cascading foreign key of the SQL schema.
func (c *Coffees) Delete(_ context.Context, id string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.coffees[id]; !ok {
		return apperrors.NotFound("Coffee item not found")
	}
	delete(c.s.coffees, id)
	for _, row := range c.s.carts {
		kept := row.items[:0]
		for _, item := range row.items {
			if item.CoffeeID != id {
				kept = append(kept, item)
			}
		}
		row.items = kept
	}
	return nil
}

type Carts struct{ s *Store }

// snapshot must be called with the lock held.
func (s *Store) snapshot(row *cartRow) *models.Cart {
	cart := row.cart
	cart.Items = make([]models.CartItem, 0, len(row.items))
	for _, item := range row.items {
		if coffee, ok := s.coffees[item.CoffeeID]; ok {
			item.Coffee = &coffee
		}
		cart.Items = append(cart.Items, item)
	}
	return &cart
}

func (c *Carts) GetByUser(_ context.Context, userID string) (*models.Cart, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	row, ok := c.s.carts[userID]
	if !ok {
		return nil, apperrors.NotFound("Cart not found")
	}
	return c.s.snapshot(row), nil
}

func (c *Carts) AddItem(_ context.Context, userID, coffeeID string, quantity int) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	now := time.Now().UTC()
	row, ok := c.s.carts[userID]
	created := !ok
	if created {
		row = &cartRow{cart: models.Cart{ID: uuid.NewString(), UserID: userID, CreatedAt: now}}
		c.s.carts[userID] = row
	}
	row.cart.UpdatedAt = now

	for i := range row.items {
		if row.items[i].CoffeeID == coffeeID {
			row.items[i].Quantity += quantity
			return created, nil
		}
	}
	row.items = append(row.items, models.CartItem{
		ID:       uuid.NewString(),
		CartID:   row.cart.ID,
		CoffeeID: coffeeID,
		Quantity: quantity,
	})
	return created, nil
}

func (c *Carts) RemoveItem(_ context.Context, userID, coffeeID string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	row, ok := c.s.carts[userID]
	if !ok {
		return apperrors.NotFound("Cart not found")
	}
	for i, item := range row.items {
		if item.CoffeeID == coffeeID {
			row.items = append(row.items[:i], row.items[i+1:]...)
			row.cart.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return apperrors.NotFound("Product not found in cart")
}

func (c *Carts) Clear(_ context.Context, userID string) (*models.Cart, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	row, ok := c.s.carts[userID]
	if !ok || len(row.items) == 0 {
		return nil, apperrors.NotFound("Cart is empty or does not exist")
	}
	cart := c.s.snapshot(row)
	row.items = nil
	row.cart.UpdatedAt = time.Now().UTC()
	return cart, nil
}

type Orders struct{ s *Store }

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

func (o *Orders) CreateFromCart(_ context.Context, userID string, build func(*models.Cart) (*models.Order, error)) (*models.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	row, ok := o.s.carts[userID]
	if !ok {
		return nil, apperrors.NotFound("Cart is empty or does not exist")
	}
	order, err := build(o.s.snapshot(row))
	if err != nil {
		return nil, err
	}
	o.s.orders[order.ID] = copyOrder(*order)
	row.items = nil
	row.cart.UpdatedAt = time.Now().UTC()
	return order, nil
}

func (o *Orders) Get(_ context.Context, id string) (*models.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	order, ok := o.s.orders[id]
	if !ok {
		return nil, apperrors.NotFound("Order not found")
	}
	order = copyOrder(order)
	return &order, nil
}

func (o *Orders) list(match func(models.Order) bool) []models.Order {
	out := []models.Order{}
	for _, order := range o.s.orders {
		if match(order) {
			out = append(out, copyOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (o *Orders) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	return o.list(func(order models.Order) bool { return order.UserID == userID }), nil
}

func (o *Orders) List(_ context.Context) ([]models.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	return o.list(func(models.Order) bool { return true }), nil
}

func (o *Orders) UpdateStatus(_ context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	order, ok := o.s.orders[id]
	if !ok {
		return nil, apperrors.NotFound("Order not found")
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	o.s.orders[id] = order
	order = copyOrder(order)
	return &order, nil
}

func (o *Orders) TransitionStatus(_ context.Context, id string, from, to models.OrderStatus) (bool, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	order, ok := o.s.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	o.s.orders[id] = order
	return true, nil
}
