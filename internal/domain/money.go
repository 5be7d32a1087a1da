package domain

import "github.com/shopspring/decimal"

func init() {
	// The restaurant API and the UI both expect prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}
