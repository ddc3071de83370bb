package strategy

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/stamford_straddler/internal/broker"
	"github.com/eddiefleurent/stamford_straddler/internal/models"
	"github.com/eddiefleurent/stamford_straddler/internal/util"
)

// HedgeEngine decides gamma-neutralizing option trades and deadband-gated
// delta trades in the underlying.
type HedgeEngine struct {
	broker   broker.Broker
	deadband float64
	log      *logrus.Logger
}

// NewHedgeEngine creates a hedge engine. deadband is the delta drift below
// which rebalancing is skipped.
func NewHedgeEngine(b broker.Broker, deadband float64, log *logrus.Logger) *HedgeEngine {
	return &HedgeEngine{broker: b, deadband: deadband, log: log}
}

// GammaHedge trades a call leg against the aggregated gamma: positive gamma
// sells the call ranked best by bid, negative gamma buys the call ranked
// best by ask. Candidates are the calls at the held expiry. A sell is
// skipped when that exact option symbol is already held with a non-zero
// position. Returns whether an order was placed.
func (h *HedgeEngine) GammaHedge(snap *models.ChainSnapshot, heldExpiry time.Time, gamma float64) (bool, error) {
	if gamma == 0 {
		return false, nil
	}

	var calls []models.OptionContract
	for _, c := range snap.AtExpiry(heldExpiry) {
		if c.Right == models.Call {
			calls = append(calls, c)
		}
	}
	if len(calls) == 0 {
		return false, nil
	}

	qty := util.ContractQuantity(h.broker.TotalPortfolioValue(), snap.Spot)
	if qty <= 0 {
		return false, nil
	}

	if gamma > 0 {
		// Highest bid first: best contract to sell.
		sort.SliceStable(calls, func(i, j int) bool {
			return calls[i].Bid.GreaterThan(calls[j].Bid)
		})
		top := calls[0]
		if h.broker.IsInvested(top.Symbol) {
			h.log.WithField("symbol", top.Symbol).Debug("gamma hedge: sell candidate already held, skipping")
			return false, nil
		}
		if err := h.broker.Sell(top.Symbol, qty); err != nil {
			return false, fmt.Errorf("gamma hedge sell %s: %w", top.Symbol, err)
		}
		h.log.WithFields(logrus.Fields{
			"symbol":   top.Symbol,
			"quantity": qty,
			"gamma":    gamma,
		}).Info("gamma hedge: sold call")
		return true, nil
	}

	// Lowest ask first: best contract to buy.
	sort.SliceStable(calls, func(i, j int) bool {
		return calls[i].Ask.LessThan(calls[j].Ask)
	})
	top := calls[0]
	if err := h.broker.Buy(top.Symbol, qty); err != nil {
		return false, fmt.Errorf("gamma hedge buy %s: %w", top.Symbol, err)
	}
	h.log.WithFields(logrus.Fields{
		"symbol":   top.Symbol,
		"quantity": qty,
		"gamma":    gamma,
	}).Info("gamma hedge: bought call")
	return true, nil
}

// DeltaHedge applies the deadband controller: when the freshly aggregated
// delta has drifted from previousDelta by more than the deadband, the
// underlying is rebalanced to a target weight equal to the delta and the
// new delta becomes the reference sample. Returns the reference delta to
// carry forward and whether a trade was made.
func (h *HedgeEngine) DeltaHedge(underlying string, previousDelta, delta float64) (float64, bool, error) {
	if math.Abs(previousDelta-delta) <= h.deadband {
		return previousDelta, false, nil
	}
	if err := h.broker.SetHoldings(underlying, delta); err != nil {
		return previousDelta, false, fmt.Errorf("delta hedge %s: %w", underlying, err)
	}
	h.log.WithFields(logrus.Fields{
		"underlying":     underlying,
		"target_weight":  delta,
		"previous_delta": previousDelta,
	}).Info("delta hedge: rebalanced underlying")
	return delta, true, nil
}
