package models

import "github.com/shopspring/decimal"

// PaymentSession is what a client needs to complete payment with the processor.
type PaymentSession struct {
	AuthorizationURL string `json:"authorizationUrl"`
	AccessCode       string `json:"accessCode"`
	Reference        string `json:"reference"`
}

// PaymentVerification is the normalized result of a successful verification.
// Amount is in major currency units.
type PaymentVerification struct {
	Status      string          `json:"status"`
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	OrderID     string          `json:"orderId"`
	PaymentDate string          `json:"paymentDate"`
}

// ToMinorUnits converts an amount to the processor's minor currency unit.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
