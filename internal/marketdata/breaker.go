package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSource wraps a Source with a circuit breaker so a misbehaving
// history backend degrades to fast skip-condition errors instead of
// stalling every tick.
type BreakerSource struct {
	src Source
	cb  *gobreaker.CircuitBreaker
}

// Ensure BreakerSource implements Source at compile time.
var _ Source = (*BreakerSource)(nil)

// NewBreakerSource wraps src. The breaker opens after five consecutive
// failures and probes again after thirty seconds.
func NewBreakerSource(src Source, name string) *BreakerSource {
	return &BreakerSource{
		src: src,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// DailyCloses forwards to the wrapped source through the breaker.
func (b *BreakerSource) DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]float64, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.src.DailyCloses(ctx, symbol, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("daily closes for %s: %w", symbol, err)
	}
	closes, ok := res.([]float64)
	if !ok {
		return nil, fmt.Errorf("daily closes for %s: unexpected result type %T", symbol, res)
	}
	return closes, nil
}
