// Package models provides data structures and state management for the
// straddle strategy: option contract snapshots, the tracked straddle
// position, and the strategy phase machine.
package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// SharesPerContract is the standard US equity option multiplier.
const SharesPerContract = 100

// OptionRight identifies a contract as a call or a put.
type OptionRight string

const (
	// Call is the right to buy the underlying at the strike.
	Call OptionRight = "call"
	// Put is the right to sell the underlying at the strike.
	Put OptionRight = "put"
)

// Valid returns true if the OptionRight is one of the defined constants.
func (r OptionRight) Valid() bool {
	return r == Call || r == Put
}

// OptionContract is one contract's quotes and sensitivities as of a single
// snapshot. Values are immutable; a new snapshot carries new contract values
// sharing the same Symbol.
type OptionContract struct {
	Symbol     string          `json:"symbol"`
	Underlying string          `json:"underlying"`
	Right      OptionRight     `json:"right"`
	Strike     decimal.Decimal `json:"strike"`
	Expiry     time.Time       `json:"expiry"` // date only, UTC midnight
	Bid        decimal.Decimal `json:"bid"`
	Ask        decimal.Decimal `json:"ask"`
	ImpliedVol float64         `json:"implied_vol"`
	Delta      float64         `json:"delta"`
	Gamma      float64         `json:"gamma"`
}

// Mid returns the quote midpoint.
func (c *OptionContract) Mid() decimal.Decimal {
	return c.Bid.Add(c.Ask).Div(decimal.NewFromInt(2))
}

// InTheMoney reports whether the contract has intrinsic value at the given
// underlying price.
func (c *OptionContract) InTheMoney(spot decimal.Decimal) bool {
	if c.Right == Call {
		return c.Strike.LessThan(spot)
	}
	return c.Strike.GreaterThan(spot)
}

// ChainSnapshot is a timestamped option chain for one underlying, produced
// once per tick by the market data collaborator. Read-only to the strategy.
type ChainSnapshot struct {
	Underlying string           `json:"underlying"`
	Timestamp  time.Time        `json:"timestamp"`
	Spot       decimal.Decimal  `json:"spot"`
	Contracts  []OptionContract `json:"contracts"`
}

// FurthestExpiry returns the maximum expiry present in the chain.
// ok is false for an empty chain.
func (s *ChainSnapshot) FurthestExpiry() (expiry time.Time, ok bool) {
	for i := range s.Contracts {
		if s.Contracts[i].Expiry.After(expiry) {
			expiry = s.Contracts[i].Expiry
			ok = true
		}
	}
	return expiry, ok
}

// AtExpiry returns the contracts expiring on the given date.
func (s *ChainSnapshot) AtExpiry(expiry time.Time) []OptionContract {
	var out []OptionContract
	for i := range s.Contracts {
		if SameDate(s.Contracts[i].Expiry, expiry) {
			out = append(out, s.Contracts[i])
		}
	}
	return out
}

// Find looks up a contract by its option symbol.
func (s *ChainSnapshot) Find(symbol string) (OptionContract, bool) {
	for i := range s.Contracts {
		if s.Contracts[i].Symbol == symbol {
			return s.Contracts[i], true
		}
	}
	return OptionContract{}, false
}

// DateKey collapses a timestamp to a sortable yyyymmdd integer (UTC).
func DateKey(t time.Time) int {
	y, m, d := t.UTC().Date()
	return y*10000 + int(m)*100 + d
}

// SameDate reports whether a and b fall on the same calendar date (UTC).
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// OptionSymbol formats an OCC-style option symbol:
// <underlying><YYMMDD><C|P><strike*1000 zero-padded to 8 digits>.
func OptionSymbol(underlying string, expiry time.Time, right OptionRight, strike decimal.Decimal) string {
	r := "C"
	if right == Put {
		r = "P"
	}
	strikeMillis := strike.Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
	return fmt.Sprintf("%s%s%s%08d", underlying, expiry.UTC().Format("060102"), r, strikeMillis)
}

// ParseOptionSymbol decodes an OCC-style option symbol produced by
// OptionSymbol. Plain equity tickers fail to parse, which is how callers
// distinguish option legs from underlying holdings.
func ParseOptionSymbol(symbol string) (underlying string, expiry time.Time, right OptionRight, strike decimal.Decimal, err error) {
	// From the end: 8-digit strike, right char, 6-digit date; the rest is the root.
	const tail = 8 + 1 + 6
	if len(symbol) <= tail {
		return "", time.Time{}, "", decimal.Zero, fmt.Errorf("option symbol %q too short", symbol)
	}
	strikePart := symbol[len(symbol)-8:]
	rightPart := symbol[len(symbol)-9 : len(symbol)-8]
	datePart := symbol[len(symbol)-15 : len(symbol)-9]
	underlying = symbol[:len(symbol)-15]

	switch rightPart {
	case "C":
		right = Call
	case "P":
		right = Put
	default:
		return "", time.Time{}, "", decimal.Zero, fmt.Errorf("option symbol %q: bad right %q", symbol, rightPart)
	}

	expiry, err = time.ParseInLocation("060102", datePart, time.UTC)
	if err != nil {
		return "", time.Time{}, "", decimal.Zero, fmt.Errorf("option symbol %q: bad expiry: %w", symbol, err)
	}

	millis, err := strconv.ParseInt(strikePart, 10, 64)
	if err != nil {
		return "", time.Time{}, "", decimal.Zero, fmt.Errorf("option symbol %q: bad strike: %w", symbol, err)
	}
	strike = decimal.NewFromInt(millis).Div(decimal.NewFromInt(1000))

	return underlying, expiry, right, strike, nil
}
