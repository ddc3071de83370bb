package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewStraddle(t *testing.T) {
	expiry := time.Date(2019, 6, 22, 0, 0, 0, 0, time.UTC)
	unwind := time.Date(2019, 6, 21, 0, 0, 0, 0, time.UTC)
	entry := time.Date(2019, 6, 10, 10, 0, 0, 0, time.UTC)

	call := OptionContract{
		Symbol:     OptionSymbol("SPY", expiry, Call, decimal.NewFromInt(450)),
		Underlying: "SPY",
		Right:      Call,
		Strike:     decimal.NewFromInt(450),
		Expiry:     expiry,
	}
	put := OptionContract{
		Symbol:     OptionSymbol("SPY", expiry, Put, decimal.NewFromInt(448)),
		Underlying: "SPY",
		Right:      Put,
		Strike:     decimal.NewFromInt(448),
		Expiry:     expiry,
	}

	pos := NewStraddle(call, put, unwind, 4, false, entry)

	assert.NotEmpty(t, pos.ID)
	assert.Equal(t, "SPY", pos.Underlying)
	assert.Equal(t, call.Symbol, pos.CallSymbol)
	assert.Equal(t, put.Symbol, pos.PutSymbol)
	assert.True(t, pos.Expiry.Equal(expiry))
	assert.True(t, pos.UnwindDate.Equal(unwind))
	assert.Equal(t, int64(4), pos.Quantity)
	assert.False(t, pos.Short)
	assert.True(t, pos.HasLegs())

	other := NewStraddle(call, put, unwind, 4, true, entry)
	assert.NotEqual(t, pos.ID, other.ID)
	assert.True(t, other.Short)
}

func TestHasLegs(t *testing.T) {
	var nilPos *Straddle
	assert.False(t, nilPos.HasLegs())
	assert.False(t, (&Straddle{CallSymbol: "x"}).HasLegs())
	assert.False(t, (&Straddle{PutSymbol: "y"}).HasLegs())
	assert.True(t, (&Straddle{CallSymbol: "x", PutSymbol: "y"}).HasLegs())
}
