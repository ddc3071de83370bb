package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Straddle is the one tracked open straddle position: the selected call and
// put legs plus the unwind date computed at entry time. Both legs always
// share the same expiry and were selected from the same snapshot.
type Straddle struct {
	ID         string          `json:"id"`
	Underlying string          `json:"underlying"`
	CallSymbol string          `json:"call_symbol"`
	PutSymbol  string          `json:"put_symbol"`
	CallStrike decimal.Decimal `json:"call_strike"`
	PutStrike  decimal.Decimal `json:"put_strike"`
	Expiry     time.Time       `json:"expiry"`
	UnwindDate time.Time       `json:"unwind_date"`
	Quantity   int64           `json:"quantity"`
	Short      bool            `json:"short"` // true when both legs were sold
	EntryTime  time.Time       `json:"entry_time"`
}

// NewStraddle builds a position record from the two selected legs.
func NewStraddle(call, put OptionContract, unwindDate time.Time, quantity int64, short bool, entryTime time.Time) *Straddle {
	return &Straddle{
		ID:         uuid.NewString(),
		Underlying: call.Underlying,
		CallSymbol: call.Symbol,
		PutSymbol:  put.Symbol,
		CallStrike: call.Strike,
		PutStrike:  put.Strike,
		Expiry:     call.Expiry,
		UnwindDate: unwindDate,
		Quantity:   quantity,
		Short:      short,
		EntryTime:  entryTime,
	}
}

// HasLegs reports whether both legs are set. Greeks aggregation and hedging
// are defined only when this holds.
func (s *Straddle) HasLegs() bool {
	return s != nil && s.CallSymbol != "" && s.PutSymbol != ""
}
