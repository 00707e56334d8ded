package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTotal(t *testing.T) {
	items := []OrderItem{
		{ProductID: "a", Price: decimal.NewFromInt(10), Quantity: 2},
		{ProductID: "b", Price: decimal.NewFromInt(5), Quantity: 1},
	}
	assert.True(t, decimal.NewFromInt(25).Equal(OrderTotal(items)))
	assert.True(t, decimal.Zero.Equal(OrderTotal(nil)))
}

func TestOrderTotalFractionalPrices(t *testing.T) {
	items := []OrderItem{
		{Price: decimal.RequireFromString("3.35"), Quantity: 3},
		{Price: decimal.RequireFromString("0.10"), Quantity: 1},
	}
	assert.Equal(t, "10.15", OrderTotal(items).StringFixed(2))
}

func TestSnapshotItems(t *testing.T) {
	cart := &Cart{Items: []CartItem{
		{CoffeeID: "latte", Quantity: 2, Coffee: &Coffee{ID: "latte", Name: "Latte", Price: decimal.RequireFromString("4.50")}},
		{CoffeeID: "gone", Quantity: 1},
	}}

	items := SnapshotItems(cart)

	assert.Len(t, items, 2)
	assert.Equal(t, "Latte", items[0].Name)
	assert.Equal(t, "4.5", items[0].Price.String())
	assert.Equal(t, UnknownCoffeeName, items[1].Name)
	assert.True(t, items[1].Price.IsZero())
	assert.Equal(t, "9", OrderTotal(items).String())
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{StatusPending, StatusCompleted, StatusCancelled} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(2550), ToMinorUnits(decimal.RequireFromString("25.50")))
	assert.Equal(t, int64(1000), ToMinorUnits(decimal.RequireFromString("9.999")))
	assert.Equal(t, "25.5", FromMinorUnits(2550).String())
}

func TestMoneyMarshalsAsNumbers(t *testing.T) {
	order := Order{
		Total: decimal.NewFromInt(25),
		Items: []OrderItem{{ProductID: "p1", Price: decimal.NewFromInt(10), Quantity: 2}},
	}
	body, err := json.Marshal(order)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"total":25`)
	assert.Contains(t, string(body), `"price":10`)

	body, err = json.Marshal(PaymentVerification{Amount: FromMinorUnits(2550)})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"amount":25.5`)

	body, err = json.Marshal(Coffee{Price: decimal.RequireFromString("4.50")})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"price":4.5`)

	var decoded Order
	require.NoError(t, json.Unmarshal([]byte(`{"total":25.5}`), &decoded))
	assert.Equal(t, "25.5", decoded.Total.String())
}
