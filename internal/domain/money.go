// internal/domain/money.go
package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits kept for balances, amounts and fees.
const MoneyScale int32 = 2

// IsMoney reports whether d is representable at MoneyScale without rounding.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// IsPositiveMoney reports whether d is a valid, strictly positive monetary amount.
func IsPositiveMoney(d decimal.Decimal) bool {
	return d.IsPositive() && IsMoney(d)
}
