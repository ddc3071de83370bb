// Package mock provides a synthetic market data feed for paper runs and
// integration-style tests.
package mock

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/stamford_straddler/internal/marketdata"
	"github.com/eddiefleurent/stamford_straddler/internal/models"
)

// Feed generates plausible option chains and price history for one
// underlying. It implements marketdata.Source.
type Feed struct {
	mu     sync.Mutex
	symbol string
	spot   float64
	baseIV float64
}

// Ensure Feed implements the history source at compile time.
var _ marketdata.Source = (*Feed)(nil)

// secureFloat64 generates a cryptographically secure random float64 between 0 and 1
func secureFloat64() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<53))
	if err != nil {
		// Fallback to a reasonable default if crypto/rand fails
		return 0.5
	}
	return float64(n.Int64()) / (1 << 53)
}

// NewFeed creates a feed with the spot near 450 and IV between 12% and 30%.
func NewFeed(symbol string) *Feed {
	return &Feed{
		symbol: symbol,
		spot:   450.0 + secureFloat64()*10,
		baseIV: 0.12 + secureFloat64()*0.18,
	}
}

// Snapshot produces the chain for the current tick: strikes in $5 steps
// around the spot at the standard monthly expiry, with approximated greeks.
func (f *Feed) Snapshot(now time.Time) *models.ChainSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Simulate small price movements
	f.spot += (secureFloat64() - 0.5) * 2

	expiry := standardExpiry(now)
	dte := expiry.Sub(now).Hours() / 24
	if dte < 1 {
		dte = 1
	}
	timeValue := dte / 365.0

	snap := &models.ChainSnapshot{
		Underlying: f.symbol,
		Timestamp:  now,
		Spot:       decimal.NewFromFloat(f.spot).Round(2),
	}

	strikeInterval := 5.0
	startStrike := math.Floor(f.spot/strikeInterval)*strikeInterval - 50
	for strike := startStrike; strike <= startStrike+100; strike += strikeInterval {
		distance := math.Abs(strike - f.spot)
		decay := math.Exp(-distance * 0.02)

		callDelta := 0.5 + 0.5*(1-decay)
		if strike > f.spot {
			callDelta = 0.5 * decay
		}
		putDelta := callDelta - 1
		gamma := 0.04 * decay / math.Max(math.Sqrt(timeValue)*f.spot*0.05, 1)

		iv := f.baseIV * (1 + distance/f.spot)
		price := math.Max(0.5, iv*math.Sqrt(timeValue)*f.spot*0.4*decay)

		strikeDec := decimal.NewFromFloat(strike)
		for _, right := range []models.OptionRight{models.Call, models.Put} {
			c := models.OptionContract{
				Symbol:     models.OptionSymbol(f.symbol, expiry, right, strikeDec),
				Underlying: f.symbol,
				Right:      right,
				Strike:     strikeDec,
				Expiry:     expiry,
				Bid:        decimal.NewFromFloat(price - 0.05).Round(2),
				Ask:        decimal.NewFromFloat(price + 0.05).Round(2),
				ImpliedVol: iv,
				Gamma:      gamma,
			}
			if right == models.Call {
				c.Delta = callDelta
			} else {
				c.Delta = putDelta
			}
			snap.Contracts = append(snap.Contracts, c)
		}
	}
	return snap
}

// DailyCloses synthesizes a random-walk close series anchored at the
// current spot.
func (f *Feed) DailyCloses(_ context.Context, _ string, from, to time.Time) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	days := int(to.Sub(from).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	closes := make([]float64, days)
	price := f.spot
	for i := days - 1; i >= 0; i-- {
		closes[i] = price
		price *= 1 - (secureFloat64()-0.5)*0.02
	}
	return closes, nil
}

// standardExpiry returns the Saturday following the third Friday of the
// first month whose standard expiry is at least 20 days out. Saturday-dated
// expiries exercise the calendar's last-trading-day adjustment.
func standardExpiry(now time.Time) time.Time {
	d := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for {
		offset := (int(time.Friday) - int(d.Weekday()) + 7) % 7
		thirdFriday := d.AddDate(0, 0, offset+14)
		saturday := thirdFriday.AddDate(0, 0, 1)
		if saturday.Sub(now).Hours()/24 >= 20 {
			return saturday
		}
		d = d.AddDate(0, 1, 0)
	}
}
