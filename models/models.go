// Package models holds the entities shared by the store, service and HTTP
// layers.
package models

import "github.com/shopspring/decimal"

func init() {
	// Prices, totals and paid amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}
