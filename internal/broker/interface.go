// Package broker defines the order-intent interface the strategy depends on
// and an in-memory paper implementation.
package broker

import (
	"github.com/shopspring/decimal"
)

// PositionItem is one holding as reported by the portfolio collaborator.
// Quantity is signed; negative means short.
type PositionItem struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

// Broker is the capability set the strategy uses to express order intents
// and read portfolio state. Quantities passed to Buy and Sell are always
// non-negative; the direction is encoded by which call is used. Execution,
// fills, and cash accounting live behind this interface.
type Broker interface {
	// Order intents
	Buy(symbol string, quantity int64) error
	Sell(symbol string, quantity int64) error
	Liquidate(symbol string) error
	// SetHoldings rebalances the symbol to a target portfolio weight with a
	// single trade.
	SetHoldings(symbol string, targetWeight float64) error

	// Read-only portfolio state
	IsInvested(symbol string) bool
	Invested() bool
	Positions() []PositionItem
	TotalPortfolioValue() decimal.Decimal
	Price(symbol string) decimal.Decimal
}
