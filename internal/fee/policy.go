// internal/fee/policy.go
// Package fee holds the fee schedules applied to transfers.
package fee

import (
	"fmt"

	"github.com/shopspring/decimal"

	"finflow-transfer/internal/domain"
)

// DefaultRate is the share of the transfer amount charged to the sender.
var DefaultRate = decimal.RequireFromString("0.02")

// Policy maps a transfer amount to the fee charged on top of it.
type Policy interface {
	ComputeFee(amount decimal.Decimal) decimal.Decimal
}

// PercentagePolicy charges a fixed fraction of the amount, rounded half-up to domain.MoneyScale.
type PercentagePolicy struct {
	rate decimal.Decimal
}

// NewPercentagePolicy creates a PercentagePolicy. The rate must be in [0, 1).
func NewPercentagePolicy(rate decimal.Decimal) (*PercentagePolicy, error) {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("fee rate must be in [0, 1), got %s", rate)
	}
	return &PercentagePolicy{rate: rate}, nil
}

// ComputeFee returns amount*rate. The fee is always computed on the pre-fee amount.
func (p *PercentagePolicy) ComputeFee(amount decimal.Decimal) decimal.Decimal {
	// decimal.Round rounds half away from zero, which is half-up for positive amounts.
	return amount.Mul(p.rate).Round(domain.MoneyScale)
}

// Rate returns the configured rate.
func (p *PercentagePolicy) Rate() decimal.Decimal {
	return p.rate
}
