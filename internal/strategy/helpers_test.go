package strategy

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/stamford_straddler/internal/broker"
	"github.com/eddiefleurent/stamford_straddler/internal/models"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// testContract builds a snapshot contract with an OCC symbol derived from
// its parameters.
func testContract(right models.OptionRight, strike float64, expiry time.Time, bid, ask float64) models.OptionContract {
	s := dec(strike)
	return models.OptionContract{
		Symbol:     models.OptionSymbol("SPY", expiry, right, s),
		Underlying: "SPY",
		Right:      right,
		Strike:     s,
		Expiry:     expiry,
		Bid:        dec(bid),
		Ask:        dec(ask),
	}
}

type fakeOrder struct {
	symbol string
	qty    int64
}

// fakeBroker records every call for assertion. All orders succeed.
type fakeBroker struct {
	value      decimal.Decimal
	held       map[string]bool
	buys       []fakeOrder
	sells      []fakeOrder
	liquidated []string
	weights    map[string]float64
}

var _ broker.Broker = (*fakeBroker)(nil)

func newFakeBroker(value float64) *fakeBroker {
	return &fakeBroker{
		value:   dec(value),
		held:    make(map[string]bool),
		weights: make(map[string]float64),
	}
}

func (f *fakeBroker) Buy(symbol string, qty int64) error {
	f.buys = append(f.buys, fakeOrder{symbol, qty})
	f.held[symbol] = true
	return nil
}

func (f *fakeBroker) Sell(symbol string, qty int64) error {
	f.sells = append(f.sells, fakeOrder{symbol, qty})
	f.held[symbol] = true
	return nil
}

func (f *fakeBroker) Liquidate(symbol string) error {
	f.liquidated = append(f.liquidated, symbol)
	delete(f.held, symbol)
	return nil
}

func (f *fakeBroker) SetHoldings(symbol string, targetWeight float64) error {
	f.weights[symbol] = targetWeight
	f.held[symbol] = targetWeight != 0
	return nil
}

func (f *fakeBroker) IsInvested(symbol string) bool { return f.held[symbol] }

func (f *fakeBroker) Invested() bool { return len(f.held) > 0 }

func (f *fakeBroker) Positions() []broker.PositionItem {
	out := make([]broker.PositionItem, 0, len(f.held))
	for sym := range f.held {
		out = append(out, broker.PositionItem{Symbol: sym, Quantity: 1})
	}
	return out
}

func (f *fakeBroker) TotalPortfolioValue() decimal.Decimal { return f.value }

func (f *fakeBroker) Price(string) decimal.Decimal { return decimal.Zero }
