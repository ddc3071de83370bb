package broker

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/stamford_straddler/internal/models"
)

// Paper is an in-memory broker that fills every intent immediately at the
// last marked price. It backs paper-trading runs and tests. All methods are
// safe for concurrent use; the dashboard reads while the event loop trades.
type Paper struct {
	mu        sync.RWMutex
	cash      decimal.Decimal
	positions map[string]int64
	marks     map[string]decimal.Decimal
}

// Ensure Paper implements Broker at compile time.
var _ Broker = (*Paper)(nil)

// NewPaper creates a paper broker with the given starting cash.
func NewPaper(initialCash decimal.Decimal) *Paper {
	return &Paper{
		cash:      initialCash,
		positions: make(map[string]int64),
		marks:     make(map[string]decimal.Decimal),
	}
}

// MarkPrice records the latest price for a symbol. Fills and valuation use
// the most recent mark.
func (p *Paper) MarkPrice(symbol string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.marks[symbol] = price
}

// MarkSnapshot marks the underlying at the snapshot spot and every contract
// at its quote midpoint.
func (p *Paper) MarkSnapshot(snap *models.ChainSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.marks[snap.Underlying] = snap.Spot
	for i := range snap.Contracts {
		c := &snap.Contracts[i]
		p.marks[c.Symbol] = c.Mid()
	}
}

// multiplier returns 100 for option symbols and 1 for everything else.
func multiplier(symbol string) decimal.Decimal {
	if _, _, _, _, err := models.ParseOptionSymbol(symbol); err == nil {
		return decimal.NewFromInt(models.SharesPerContract)
	}
	return decimal.NewFromInt(1)
}

// Buy fills a long order of quantity units at the last mark.
func (p *Paper) Buy(symbol string, quantity int64) error {
	return p.fill(symbol, quantity)
}

// Sell fills a short order of quantity units at the last mark.
func (p *Paper) Sell(symbol string, quantity int64) error {
	return p.fill(symbol, -quantity)
}

func (p *Paper) fill(symbol string, signedQty int64) error {
	if signedQty == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok := p.marks[symbol]
	if !ok {
		return fmt.Errorf("no mark for %s", symbol)
	}
	cost := price.Mul(multiplier(symbol)).Mul(decimal.NewFromInt(signedQty))
	p.cash = p.cash.Sub(cost)
	p.positions[symbol] += signedQty
	if p.positions[symbol] == 0 {
		delete(p.positions, symbol)
	}
	return nil
}

// Liquidate closes any open position in the symbol at the last mark.
func (p *Paper) Liquidate(symbol string) error {
	p.mu.RLock()
	qty := p.positions[symbol]
	p.mu.RUnlock()
	if qty == 0 {
		return nil
	}
	return p.fill(symbol, -qty)
}

// SetHoldings rebalances the symbol to the target portfolio weight with a
// single fill. The target unit count is truncated toward zero.
func (p *Paper) SetHoldings(symbol string, targetWeight float64) error {
	p.mu.Lock()
	price, ok := p.marks[symbol]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("no mark for %s", symbol)
	}
	targetValue := p.totalValueLocked().Mul(decimal.NewFromFloat(targetWeight))
	unit := price.Mul(multiplier(symbol))
	current := p.positions[symbol]
	p.mu.Unlock()

	if unit.IsZero() {
		return fmt.Errorf("zero price for %s", symbol)
	}
	target := targetValue.Div(unit).IntPart()
	return p.fill(symbol, target-current)
}

// IsInvested reports whether the symbol is held with a non-zero quantity.
func (p *Paper) IsInvested(symbol string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.positions[symbol] != 0
}

// Invested reports whether any position is open.
func (p *Paper) Invested() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.positions) > 0
}

// Positions returns a copy of the current holdings.
func (p *Paper) Positions() []PositionItem {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PositionItem, 0, len(p.positions))
	for sym, qty := range p.positions {
		out = append(out, PositionItem{Symbol: sym, Quantity: qty})
	}
	return out
}

// TotalPortfolioValue returns cash plus the marked value of all holdings.
func (p *Paper) TotalPortfolioValue() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalValueLocked()
}

func (p *Paper) totalValueLocked() decimal.Decimal {
	total := p.cash
	for sym, qty := range p.positions {
		price, ok := p.marks[sym]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(multiplier(sym)).Mul(decimal.NewFromInt(qty)))
	}
	return total
}

// ExpireOptions removes option positions whose expiry date has passed:
// the legs the strategy deliberately left to expire worthless. Cash is
// unaffected; the premium changed hands at fill time.
func (p *Paper) ExpireOptions(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	today := models.DateKey(now)
	for sym := range p.positions {
		_, expiry, _, _, err := models.ParseOptionSymbol(sym)
		if err != nil {
			continue
		}
		if models.DateKey(expiry) < today {
			delete(p.positions, sym)
		}
	}
}

// Price returns the last marked price for the symbol, or zero if unmarked.
func (p *Paper) Price(symbol string) decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.marks[symbol]
}

// Cash returns the current cash balance.
func (p *Paper) Cash() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cash
}
