package strategy

import (
	"github.com/eddiefleurent/stamford_straddler/internal/models"
)

// Greeks holds the aggregated risk exposure of the held legs.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
}

// AggregateGreeks sums delta and gamma over the snapshot contracts matching
// the held call and put, identified by symbol. Unset legs, or a snapshot
// that contains neither leg (already expired or removed), return
// ErrMissingLegData; callers must leave prior aggregates untouched in that
// case.
func AggregateGreeks(snap *models.ChainSnapshot, callSymbol, putSymbol string) (Greeks, error) {
	if callSymbol == "" || putSymbol == "" {
		return Greeks{}, ErrMissingLegData
	}

	var g Greeks
	found := false
	for i := range snap.Contracts {
		c := &snap.Contracts[i]
		if c.Symbol == callSymbol || c.Symbol == putSymbol {
			g.Delta += c.Delta
			g.Gamma += c.Gamma
			found = true
		}
	}
	if !found {
		return Greeks{}, ErrMissingLegData
	}
	return g, nil
}
