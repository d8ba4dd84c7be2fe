package types

import "github.com/shopspring/decimal"

func init() {
	// Currency amounts are whole VND; emit them as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}
