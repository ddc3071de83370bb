package strategy

import "errors"

// Skip conditions: each one degrades the current event to a no-op. The
// driver logs them and waits for the next tick; none terminate the
// strategy.
var (
	// ErrNoCandidateContracts means the selection filters left an empty
	// call or put candidate set.
	ErrNoCandidateContracts = errors.New("no candidate contracts after filtering")
	// ErrAlreadyInvested means entry was attempted while a position is open.
	ErrAlreadyInvested = errors.New("already invested")
	// ErrMissingLegData means the held legs are absent from the current
	// snapshot, so greeks aggregation has no data.
	ErrMissingLegData = errors.New("held legs missing from snapshot")
)
