package strategy

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/stamford_straddler/internal/broker"
	"github.com/eddiefleurent/stamford_straddler/internal/calendar"
	"github.com/eddiefleurent/stamford_straddler/internal/models"
)

type stubHistory struct {
	closes []float64
	err    error
}

func (s *stubHistory) DailyCloses(_ context.Context, _ string, _, _ time.Time) ([]float64, error) {
	return s.closes, s.err
}

// driverChain is a full chain at the Saturday 2019-06-22 expiry with spot
// 100: greeks sum to delta 0.1 and gamma 0.05 across the ATM pair.
func driverChain(spot float64) *models.ChainSnapshot {
	expiry := time.Date(2019, 6, 22, 0, 0, 0, 0, time.UTC)
	snap := &models.ChainSnapshot{Underlying: "SPY", Spot: dec(spot)}

	add := func(right models.OptionRight, strike, bid, ask, delta, gamma float64) {
		c := testContract(right, strike, expiry, bid, ask)
		c.Delta, c.Gamma = delta, gamma
		snap.Contracts = append(snap.Contracts, c)
	}
	add(models.Call, 95, 6.0, 6.4, 0.8, 0.01)
	add(models.Call, 100, 2.0, 2.4, 0.5, 0.02)
	add(models.Call, 105, 0.5, 0.9, 0.2, 0.01)
	add(models.Put, 95, 0.5, 0.9, -0.2, 0.01)
	add(models.Put, 100, 2.0, 2.4, -0.4, 0.03)
	add(models.Put, 105, 6.0, 6.4, -0.8, 0.01)
	return snap
}

func newTestDriver(mode Mode, b broker.Broker, src *stubHistory) *Driver {
	return NewDriver(Config{
		Ticker:        "SPY",
		Mode:          mode,
		DeltaDeadband: 0.05,
		HedgeHour:     11,
		HedgeMinute:   0,
	}, b, src, calendar.NewUS(), testLogger())
}

func symbolOf(snap *models.ChainSnapshot, right models.OptionRight, strike float64) string {
	for _, c := range snap.Contracts {
		if c.Right == right && c.Strike.Equal(dec(strike)) {
			return c.Symbol
		}
	}
	return ""
}

func positionQty(p *broker.Paper, symbol string) int64 {
	for _, item := range p.Positions() {
		if item.Symbol == symbol {
			return item.Quantity
		}
	}
	return 0
}

func TestDriverLongStraddleLifecycle(t *testing.T) {
	ctx := context.Background()
	paper := broker.NewPaper(dec(100000))
	d := newTestDriver(ModeLongStraddle, paper, &stubHistory{})

	snap := driverChain(100)
	callSym := symbolOf(snap, models.Call, 100)
	putSym := symbolOf(snap, models.Put, 100)
	soldCallSym := symbolOf(snap, models.Call, 95)

	// Entry tick.
	paper.MarkSnapshot(snap)
	d.OnTick(ctx, time.Date(2019, 6, 10, 10, 0, 0, 0, time.UTC), snap)

	assert.Equal(t, int64(10), positionQty(paper, callSym))
	assert.Equal(t, int64(10), positionQty(paper, putSym))
	st := d.Status()
	assert.Equal(t, models.PhaseOpen, st.Phase)
	assert.Equal(t, "2019-06-21", st.UnwindDate)
	require.NotNil(t, st.Position)
	assert.False(t, st.Position.Short)

	// A tick outside the hedge gate changes nothing.
	d.OnTick(ctx, time.Date(2019, 6, 12, 10, 30, 0, 0, time.UTC), snap)
	assert.False(t, paper.IsInvested(soldCallSym))
	assert.Equal(t, models.PhaseOpen, d.Status().Phase)

	// Hedge tick: gamma 0.05 sells the highest-bid call, then delta 0.1
	// rebalances the underlying past the 0.05 deadband.
	d.OnTick(ctx, time.Date(2019, 6, 12, 11, 0, 0, 0, time.UTC), snap)

	assert.Equal(t, int64(-10), positionQty(paper, soldCallSym))
	assert.Equal(t, int64(100), positionQty(paper, "SPY"))
	st = d.Status()
	assert.Equal(t, models.PhaseHedging, st.Phase)
	assert.InDelta(t, 0.1, st.PreviousDelta, 1e-12)
	assert.InDelta(t, 0.1, st.Delta, 1e-12)
	assert.InDelta(t, 0.05, st.Gamma, 1e-12)

	// A second hedge tick with unchanged greeks stays inside the deadband.
	d.OnTick(ctx, time.Date(2019, 6, 13, 11, 0, 0, 0, time.UTC), snap)
	assert.Equal(t, int64(100), positionQty(paper, "SPY"))

	// Close event on a non-unwind day is a no-op.
	d.OnDailyClose(ctx, time.Date(2019, 6, 13, 15, 50, 0, 0, time.UTC), snap)
	assert.Equal(t, models.PhaseHedging, d.Status().Phase)

	// Unwind date: the spot moved to 102, so the long 100 call and the
	// short 95 call are in the money and get closed; the 100 put expires
	// worthless on its own; the underlying hedge is untouched.
	closeSnap := driverChain(102)
	paper.MarkSnapshot(closeSnap)
	d.OnDailyClose(ctx, time.Date(2019, 6, 21, 15, 50, 0, 0, time.UTC), closeSnap)

	assert.False(t, paper.IsInvested(callSym))
	assert.False(t, paper.IsInvested(soldCallSym))
	assert.True(t, paper.IsInvested(putSym))
	assert.True(t, paper.IsInvested("SPY"))

	st = d.Status()
	assert.Equal(t, models.PhaseIdle, st.Phase)
	assert.Empty(t, st.UnwindDate)
	assert.Nil(t, st.Position)
	assert.Zero(t, st.PreviousDelta)
}

func TestDriverShortStraddleSellsLegs(t *testing.T) {
	ctx := context.Background()
	paper := broker.NewPaper(dec(100000))
	d := newTestDriver(ModeShortStraddle, paper, &stubHistory{})

	snap := driverChain(100)
	paper.MarkSnapshot(snap)
	d.OnTick(ctx, time.Date(2019, 6, 10, 10, 0, 0, 0, time.UTC), snap)

	assert.Equal(t, int64(-10), positionQty(paper, symbolOf(snap, models.Call, 100)))
	assert.Equal(t, int64(-10), positionQty(paper, symbolOf(snap, models.Put, 100)))
	st := d.Status()
	require.NotNil(t, st.Position)
	assert.True(t, st.Position.Short)
}

func TestDriverDoesNotReenterWhileInvested(t *testing.T) {
	ctx := context.Background()
	paper := broker.NewPaper(dec(100000))
	d := newTestDriver(ModeLongStraddle, paper, &stubHistory{})

	snap := driverChain(100)
	paper.MarkSnapshot(snap)
	d.OnTick(ctx, time.Date(2019, 6, 10, 10, 0, 0, 0, time.UTC), snap)
	callSym := symbolOf(snap, models.Call, 100)
	require.Equal(t, int64(10), positionQty(paper, callSym))

	d.OnTick(ctx, time.Date(2019, 6, 11, 10, 0, 0, 0, time.UTC), snap)
	assert.Equal(t, int64(10), positionQty(paper, callSym), "no doubling up")
}

func TestDriverSkipsEntryWithResidualPositions(t *testing.T) {
	ctx := context.Background()
	paper := broker.NewPaper(dec(100000))
	paper.MarkPrice("SPY", dec(100))
	require.NoError(t, paper.Buy("SPY", 10))
	d := newTestDriver(ModeLongStraddle, paper, &stubHistory{})

	snap := driverChain(100)
	paper.MarkSnapshot(snap)
	d.OnTick(ctx, time.Date(2019, 6, 10, 10, 0, 0, 0, time.UTC), snap)

	assert.Equal(t, models.PhaseIdle, d.Status().Phase)
	assert.Zero(t, positionQty(paper, symbolOf(snap, models.Call, 100)))
}

func TestDriverWarmupSuppressesActions(t *testing.T) {
	ctx := context.Background()
	paper := broker.NewPaper(dec(100000))
	d := NewDriver(Config{
		Ticker:        "SPY",
		Mode:          ModeLongStraddle,
		DeltaDeadband: 0.05,
		HedgeHour:     11,
		WarmupUntil:   time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC),
	}, paper, &stubHistory{}, calendar.NewUS(), testLogger())

	snap := driverChain(100)
	paper.MarkSnapshot(snap)
	d.OnTick(ctx, time.Date(2019, 6, 10, 10, 0, 0, 0, time.UTC), snap)

	assert.False(t, paper.Invested())
	assert.Equal(t, models.PhaseIdle, d.Status().Phase)
}

func TestDriverNilSnapshotIgnored(t *testing.T) {
	ctx := context.Background()
	paper := broker.NewPaper(dec(100000))
	d := newTestDriver(ModeLongStraddle, paper, &stubHistory{})

	d.OnTick(ctx, time.Date(2019, 6, 10, 10, 0, 0, 0, time.UTC), nil)
	d.OnDailyClose(ctx, time.Date(2019, 6, 10, 15, 50, 0, 0, time.UTC), nil)

	assert.False(t, paper.Invested())
	assert.Equal(t, models.PhaseIdle, d.Status().Phase)
}

func TestDriverVolCompareEntry(t *testing.T) {
	ctx := context.Background()
	// Closes built from log returns 0.01 and 0.03; the annualized sample
	// vol is about 0.224.
	closes := []float64{
		100,
		100 * math.Exp(0.01),
		100 * math.Exp(0.01) * math.Exp(0.03),
	}
	b := newFakeBroker(100000)
	d := newTestDriver(ModeVolCompare, b, &stubHistory{closes: closes})

	expiry := time.Date(2019, 6, 22, 0, 0, 0, 0, time.UTC)
	richCall := testContract(models.Call, 100, expiry, 2.0, 2.4)
	richCall.ImpliedVol = 0.50
	cheapPut := testContract(models.Put, 100, expiry, 2.0, 2.4)
	cheapPut.ImpliedVol = 0.10
	snap := &models.ChainSnapshot{
		Underlying: "SPY",
		Spot:       dec(100),
		Contracts:  []models.OptionContract{richCall, cheapPut},
	}

	d.OnTick(ctx, time.Date(2019, 6, 10, 10, 0, 0, 0, time.UTC), snap)

	require.Len(t, b.buys, 1)
	assert.Equal(t, richCall.Symbol, b.buys[0].symbol)
	assert.Equal(t, int64(10), b.buys[0].qty)
	require.Len(t, b.sells, 1)
	assert.Equal(t, cheapPut.Symbol, b.sells[0].symbol)

	st := d.Status()
	assert.Equal(t, models.PhaseOpen, st.Phase)
	assert.Nil(t, st.Position, "vol-compare tracks no call/put pair")
	assert.Equal(t, "2019-06-21", st.UnwindDate)

	// With no tracked pair the hedge pass is inert.
	d.OnTick(ctx, time.Date(2019, 6, 12, 11, 0, 0, 0, time.UTC), snap)
	assert.Empty(t, b.weights)
	assert.Equal(t, models.PhaseOpen, d.Status().Phase)
}

func TestDriverVolCompareSkipsOnShortHistory(t *testing.T) {
	ctx := context.Background()
	b := newFakeBroker(100000)
	d := newTestDriver(ModeVolCompare, b, &stubHistory{closes: []float64{100, 101}})

	snap := driverChain(100)
	d.OnTick(ctx, time.Date(2019, 6, 10, 10, 0, 0, 0, time.UTC), snap)

	assert.Empty(t, b.buys)
	assert.Empty(t, b.sells)
	assert.Equal(t, models.PhaseIdle, d.Status().Phase)
}
