// Package util provides common helpers for price and size calculations.
package util

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/stamford_straddler/internal/models"
)

// RoundToTick rounds x to the nearest tick increment.
// For example, with tick=0.01, 1.2345 becomes 1.23 or 1.24 depending on rounding.
func RoundToTick(x, tick float64) float64 {
	if tick <= 0 {
		return x
	}
	return math.Round(x/tick) * tick
}

// ContractQuantity sizes an option trade:
// floor(total portfolio value / (underlying price * 100)).
// Returns 0 when the underlying price is not positive.
func ContractQuantity(portfolioValue, spot decimal.Decimal) int64 {
	unit := spot.Mul(decimal.NewFromInt(models.SharesPerContract))
	if !unit.IsPositive() {
		return 0
	}
	qty := portfolioValue.Div(unit).IntPart()
	if qty < 0 {
		return 0
	}
	return qty
}
