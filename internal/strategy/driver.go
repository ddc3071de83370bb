// Package strategy implements the decision core: contract selection,
// greeks aggregation, hedging, and the per-tick orchestration driver.
package strategy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/stamford_straddler/internal/broker"
	"github.com/eddiefleurent/stamford_straddler/internal/calendar"
	"github.com/eddiefleurent/stamford_straddler/internal/marketdata"
	"github.com/eddiefleurent/stamford_straddler/internal/models"
	"github.com/eddiefleurent/stamford_straddler/internal/util"
)

// Config holds the driver parameters.
type Config struct {
	Ticker        string
	Mode          Mode
	DeltaDeadband float64 // default 0.05
	HedgeHour     int     // local time-of-day gate for the hedge pass
	HedgeMinute   int
	WarmupUntil   time.Time // events before this produce no actions
}

// Driver is the strategy state machine. It owns the only mutable strategy
// state and mutates it exclusively from its two event handlers, which the
// host delivers in increasing timestamp order. Status may be read
// concurrently.
type Driver struct {
	cfg    Config
	broker broker.Broker
	source marketdata.Source
	cal    *calendar.Calendar
	hedge  *HedgeEngine
	log    *logrus.Logger

	mu            sync.RWMutex
	machine       *models.PhaseMachine
	pos           *models.Straddle
	unwindDate    time.Time
	greeks        Greeks
	previousDelta float64
}

// NewDriver wires the strategy driver.
func NewDriver(cfg Config, b broker.Broker, src marketdata.Source, cal *calendar.Calendar, log *logrus.Logger) *Driver {
	return &Driver{
		cfg:     cfg,
		broker:  b,
		source:  src,
		cal:     cal,
		hedge:   NewHedgeEngine(b, cfg.DeltaDeadband, log),
		log:     log,
		machine: models.NewPhaseMachine(),
	}
}

// OnTick handles an intraday chain snapshot. While flat it attempts entry;
// while invested it runs the hedge pass when the time-of-day gate matches.
// Every data gap degrades to a logged no-op.
func (d *Driver) OnTick(ctx context.Context, now time.Time, snap *models.ChainSnapshot) {
	if snap == nil || now.Before(d.cfg.WarmupUntil) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.machine.Current() == models.PhaseIdle {
		if d.broker.Invested() {
			d.log.WithError(ErrAlreadyInvested).Debug("entry skipped")
			return
		}
		d.tryEnter(ctx, now, snap)
		return
	}

	if d.broker.Invested() && now.Hour() == d.cfg.HedgeHour && now.Minute() == d.cfg.HedgeMinute {
		d.hedgePass(snap)
	}
}

// OnDailyClose handles the scheduled before-close event. It is a no-op
// unless today is the stored unwind date; then it liquidates in-the-money
// legs whose last tradable day is today, leaves out-of-the-money legs to
// expire worthless, and clears the strategy state.
func (d *Driver) OnDailyClose(_ context.Context, now time.Time, snap *models.ChainSnapshot) {
	if snap == nil || now.Before(d.cfg.WarmupUntil) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.unwindDate.IsZero() || !models.SameDate(now, d.unwindDate) {
		return
	}

	if err := d.machine.Transition(models.PhaseClosing, "unwind_date"); err != nil {
		d.log.WithError(err).Warn("close event in unexpected phase")
		return
	}
	d.log.WithField("date", now.Format("2006-01-02")).
		Info("unwind date reached, liquidating valuable expiring legs")

	for _, item := range d.broker.Positions() {
		_, expiry, right, strike, err := models.ParseOptionSymbol(item.Symbol)
		if err != nil {
			continue // underlying holding, not an option leg
		}
		if !d.expiresToday(expiry, now) {
			continue
		}
		itm := (right == models.Call && strike.LessThan(snap.Spot)) ||
			(right == models.Put && strike.GreaterThan(snap.Spot))
		if !itm {
			d.log.WithField("symbol", item.Symbol).Debug("leg out of the money, leaving to expire")
			continue
		}
		if err := d.broker.Liquidate(item.Symbol); err != nil {
			d.log.WithError(err).WithField("symbol", item.Symbol).Error("liquidation failed")
			continue
		}
		d.log.WithField("symbol", item.Symbol).Info("liquidated expiring leg")
	}

	d.pos = nil
	d.unwindDate = time.Time{}
	d.greeks = Greeks{}
	d.previousDelta = 0
	if err := d.machine.Transition(models.PhaseIdle, "liquidated"); err != nil {
		d.log.WithError(err).Warn("failed to return to idle")
	}
}

// expiresToday reports whether a leg with the given expiry ceases trading
// today. Saturday-dated expiries map to the preceding business day, so the
// stored nominal expiry rarely equals the unwind date itself.
func (d *Driver) expiresToday(expiry, now time.Time) bool {
	if models.SameDate(expiry, now) {
		return true
	}
	ltd, err := d.cal.LastTradingDay(expiry)
	if err != nil {
		return false
	}
	return models.SameDate(ltd, now)
}

func (d *Driver) tryEnter(ctx context.Context, now time.Time, snap *models.ChainSnapshot) {
	switch d.cfg.Mode {
	case ModeLongStraddle, ModeShortStraddle:
		d.enterStraddle(now, snap)
	case ModeVolCompare:
		d.enterVolCompare(ctx, now, snap)
	default:
		d.log.WithField("mode", d.cfg.Mode).Error("unknown strategy mode")
	}
}

func (d *Driver) enterStraddle(now time.Time, snap *models.ChainSnapshot) {
	call, put, err := SelectATMStraddle(snap)
	if err != nil {
		d.log.WithError(err).Debug("entry skipped")
		return
	}

	unwind, err := d.cal.LastTradingDay(call.Expiry)
	if err != nil {
		d.log.WithError(err).Warn("entry skipped: unwind date unresolved")
		return
	}

	qty := util.ContractQuantity(d.broker.TotalPortfolioValue(), snap.Spot)
	if qty <= 0 {
		d.log.Debug("entry skipped: portfolio too small for one contract")
		return
	}

	short := d.cfg.Mode == ModeShortStraddle
	order := d.broker.Buy
	if short {
		order = d.broker.Sell
	}
	if err := order(call.Symbol, qty); err != nil {
		d.log.WithError(err).WithField("symbol", call.Symbol).Error("entry order failed")
		return
	}
	if err := order(put.Symbol, qty); err != nil {
		d.log.WithError(err).WithField("symbol", put.Symbol).Error("entry order failed")
		return
	}

	d.pos = models.NewStraddle(call, put, unwind, qty, short, now)
	d.unwindDate = unwind
	d.previousDelta = 0
	d.greeks = Greeks{}
	if err := d.machine.Transition(models.PhaseOpen, "legs_selected"); err != nil {
		d.log.WithError(err).Warn("phase transition failed after entry")
	}
	d.log.WithFields(logrus.Fields{
		"call":        call.Symbol,
		"put":         put.Symbol,
		"quantity":    qty,
		"short":       short,
		"unwind_date": unwind.Format("2006-01-02"),
	}).Info("straddle opened")
}

func (d *Driver) enterVolCompare(ctx context.Context, now time.Time, snap *models.ChainSnapshot) {
	expiry, ok := snap.FurthestExpiry()
	if !ok {
		d.log.WithError(ErrNoCandidateContracts).Debug("entry skipped")
		return
	}
	contracts := snap.AtExpiry(expiry)
	if len(contracts) == 0 {
		d.log.WithError(ErrNoCandidateContracts).Debug("entry skipped")
		return
	}

	unwind, err := d.cal.LastTradingDay(expiry)
	if err != nil {
		d.log.WithError(err).Warn("entry skipped: unwind date unresolved")
		return
	}

	from, to := HistoryWindow(now, expiry)
	closes, err := d.source.DailyCloses(ctx, d.cfg.Ticker, from, to)
	if err != nil {
		d.log.WithError(err).Warn("entry skipped: history unavailable")
		return
	}
	histVol, err := marketdata.HistoricalVolatility(closes)
	if err != nil {
		if errors.Is(err, marketdata.ErrInsufficientHistory) {
			d.log.WithError(err).Debug("entry skipped")
		} else {
			d.log.WithError(err).Warn("entry skipped: volatility estimate failed")
		}
		return
	}

	qty := util.ContractQuantity(d.broker.TotalPortfolioValue(), snap.Spot)
	if qty <= 0 {
		d.log.Debug("entry skipped: portfolio too small for one contract")
		return
	}

	placed := 0
	for _, intent := range ClassifyByVol(contracts, histVol) {
		order := d.broker.Buy
		if intent.Sell {
			order = d.broker.Sell
		}
		if err := order(intent.Contract.Symbol, qty); err != nil {
			d.log.WithError(err).WithField("symbol", intent.Contract.Symbol).Error("vol-compare order failed")
			continue
		}
		placed++
	}
	if placed == 0 {
		return
	}

	// Vol-compare holds a book of classified contracts, not a tracked
	// call/put pair; greeks aggregation and hedging stay no-ops.
	d.pos = nil
	d.unwindDate = unwind
	d.previousDelta = 0
	d.greeks = Greeks{}
	if err := d.machine.Transition(models.PhaseOpen, "legs_selected"); err != nil {
		d.log.WithError(err).Warn("phase transition failed after entry")
	}
	d.log.WithFields(logrus.Fields{
		"contracts":   placed,
		"hist_vol":    histVol,
		"unwind_date": unwind.Format("2006-01-02"),
	}).Info("vol-compare book opened")
}

// hedgePass runs the gamma hedge, re-aggregates, then the delta hedge.
// The gamma hedge executes first because it changes the leg composition
// feeding delta aggregation.
func (d *Driver) hedgePass(snap *models.ChainSnapshot) {
	if !d.pos.HasLegs() {
		return
	}

	g, err := AggregateGreeks(snap, d.pos.CallSymbol, d.pos.PutSymbol)
	if err != nil {
		d.log.WithError(err).Debug("hedge pass skipped")
		return
	}
	d.greeks = g

	if _, err := d.hedge.GammaHedge(snap, d.pos.Expiry, g.Gamma); err != nil {
		d.log.WithError(err).Warn("gamma hedge failed")
	}

	g, err = AggregateGreeks(snap, d.pos.CallSymbol, d.pos.PutSymbol)
	if err != nil {
		d.log.WithError(err).Debug("delta hedge skipped")
		return
	}
	d.greeks = g

	prev, _, err := d.hedge.DeltaHedge(d.cfg.Ticker, d.previousDelta, g.Delta)
	if err != nil {
		d.log.WithError(err).Warn("delta hedge failed")
		return
	}
	d.previousDelta = prev

	if d.machine.Current() != models.PhaseHedging {
		if err := d.machine.Transition(models.PhaseHedging, "hedge_window"); err != nil {
			d.log.WithError(err).Warn("phase transition failed during hedge pass")
		}
	}
}

// Status is a point-in-time copy of the driver state for the dashboard.
type Status struct {
	Phase         models.Phase     `json:"phase"`
	Description   string           `json:"description"`
	Mode          Mode             `json:"mode"`
	Invested      bool             `json:"invested"`
	Delta         float64          `json:"delta"`
	Gamma         float64          `json:"gamma"`
	PreviousDelta float64          `json:"previous_delta"`
	UnwindDate    string           `json:"unwind_date,omitempty"`
	Position      *models.Straddle `json:"position,omitempty"`
}

// Status returns a copy of the current strategy state.
func (d *Driver) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := Status{
		Phase:         d.machine.Current(),
		Description:   d.machine.Description(),
		Mode:          d.cfg.Mode,
		Invested:      d.broker.Invested(),
		Delta:         d.greeks.Delta,
		Gamma:         d.greeks.Gamma,
		PreviousDelta: d.previousDelta,
	}
	if !d.unwindDate.IsZero() {
		s.UnwindDate = d.unwindDate.Format("2006-01-02")
	}
	if d.pos != nil {
		posCopy := *d.pos
		s.Position = &posCopy
	}
	return s
}
