package strategy

import (
	"sort"
	"time"

	"github.com/eddiefleurent/stamford_straddler/internal/calendar"
	"github.com/eddiefleurent/stamford_straddler/internal/models"
)

// Mode selects which entry policy the strategy runs.
type Mode string

const (
	// ModeLongStraddle buys the ATM call and put at the furthest expiry.
	ModeLongStraddle Mode = "long_straddle"
	// ModeShortStraddle sells the ATM call and put at the furthest expiry.
	ModeShortStraddle Mode = "short_straddle"
	// ModeVolCompare trades every contract at the furthest expiry on its
	// implied-vs-historical volatility spread.
	ModeVolCompare Mode = "vol_compare"
)

// Valid returns true if the Mode is one of the defined constants.
func (m Mode) Valid() bool {
	switch m {
	case ModeLongStraddle, ModeShortStraddle, ModeVolCompare:
		return true
	default:
		return false
	}
}

// SelectATMStraddle picks the straddle legs from a chain snapshot:
// the furthest-dated expiry, then the closest ATM call from above
// (lowest strike >= spot) and the closest ATM put from below
// (highest strike <= spot). An empty candidate set on either side fails
// the whole selection with ErrNoCandidateContracts.
func SelectATMStraddle(snap *models.ChainSnapshot) (call, put models.OptionContract, err error) {
	expiry, ok := snap.FurthestExpiry()
	if !ok {
		return call, put, ErrNoCandidateContracts
	}

	var haveCall, havePut bool
	for _, c := range snap.AtExpiry(expiry) {
		switch {
		case c.Right == models.Call && c.Strike.GreaterThanOrEqual(snap.Spot):
			if !haveCall || c.Strike.LessThan(call.Strike) {
				call, haveCall = c, true
			}
		case c.Right == models.Put && c.Strike.LessThanOrEqual(snap.Spot):
			if !havePut || c.Strike.GreaterThan(put.Strike) {
				put, havePut = c, true
			}
		}
	}
	if !haveCall || !havePut {
		return models.OptionContract{}, models.OptionContract{}, ErrNoCandidateContracts
	}
	return call, put, nil
}

// Intent is one classified trade from the vol-compare policy.
type Intent struct {
	Contract models.OptionContract
	Sell     bool
}

// ClassifyByVol compares each contract's implied volatility against the
// historical estimate: contracts with IV above HV are bought, the rest
// sold. Contracts are returned in a deterministic order (calls before
// puts, strikes ascending).
func ClassifyByVol(contracts []models.OptionContract, histVol float64) []Intent {
	sorted := make([]models.OptionContract, len(contracts))
	copy(sorted, contracts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Right != sorted[j].Right {
			return sorted[i].Right == models.Call
		}
		return sorted[i].Strike.LessThan(sorted[j].Strike)
	})

	intents := make([]Intent, 0, len(sorted))
	for _, c := range sorted {
		intents = append(intents, Intent{Contract: c, Sell: c.ImpliedVol <= histVol})
	}
	return intents
}

// HistoryWindow returns the trailing close-price window used for the
// vol-compare estimate: as many calendar days back from today as remain
// until the expiry.
func HistoryWindow(today, expiry time.Time) (from, to time.Time) {
	today = calendar.Midnight(today)
	days := int(calendar.Midnight(expiry).Sub(today).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return today.AddDate(0, 0, -days), today
}
