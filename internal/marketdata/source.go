// Package marketdata defines the historical price query the strategy uses
// for volatility estimation, and the estimator itself.
package marketdata

import (
	"context"
	"time"
)

// Source supplies historical daily close prices from the market data
// collaborator. Implementations return prices in ascending date order.
type Source interface {
	DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]float64, error)
}
