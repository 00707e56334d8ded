package validation

import (
	"testing"

	"coffee-shop/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string   `json:"email" validate:"required,email"`
	Quantity int      `json:"quantity" validate:"min=1"`
	Status   string   `json:"status" validate:"required,oneof=pending completed cancelled"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
}

func TestStructValid(t *testing.T) {
	price := 0.0
	assert.NoError(t, Struct(sample{Email: "a@b.co", Quantity: 1, Status: "pending", Price: &price}))
}

func TestStructCollectsFieldErrors(t *testing.T) {
	price := -1.0
	err := Struct(sample{Email: "nope", Quantity: 0, Status: "shipped", Price: &price})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)

	byField := map[string]string{}
	for _, f := range appErr.Fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "Invalid email address", byField["email"])
	assert.Equal(t, "quantity must be at least 1", byField["quantity"])
	assert.Equal(t, "status must be one of: pending, completed, cancelled", byField["status"])
	assert.Equal(t, "price must be greater than or equal to 0", byField["price"])
	assert.Equal(t, "Invalid email address", appErr.Message)
}

func TestStructRequired(t *testing.T) {
	err := Struct(sample{Quantity: 1})

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "email is required", appErr.Fields[0].Message)
}
