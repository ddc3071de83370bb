package models

import (
	"fmt"
	"time"
)

// Phase represents the strategy lifecycle phase.
type Phase string

const (
	// PhaseIdle means no open position.
	PhaseIdle Phase = "idle"
	// PhaseOpen means legs are selected and the unwind date is known.
	PhaseOpen Phase = "open"
	// PhaseHedging means the intraday hedge loop has run at least once.
	PhaseHedging Phase = "hedging"
	// PhaseClosing means the unwind-date liquidation pass is in progress.
	PhaseClosing Phase = "closing"
)

// PhaseTransition defines a valid phase transition.
type PhaseTransition struct {
	From      Phase
	To        Phase
	Condition string
}

// ValidTransitions enumerates the allowed strategy lifecycle moves.
var ValidTransitions = []PhaseTransition{
	{PhaseIdle, PhaseOpen, "legs_selected"},
	{PhaseOpen, PhaseHedging, "hedge_window"},
	{PhaseHedging, PhaseHedging, "hedge_window"},
	{PhaseOpen, PhaseClosing, "unwind_date"},
	{PhaseHedging, PhaseClosing, "unwind_date"},
	{PhaseClosing, PhaseIdle, "liquidated"},
}

// PhaseMachine tracks the current strategy phase and enforces the
// transition table.
type PhaseMachine struct {
	current        Phase
	previous       Phase
	transitionTime time.Time
	counts         map[Phase]int
}

// NewPhaseMachine creates a phase machine starting in PhaseIdle.
func NewPhaseMachine() *PhaseMachine {
	return &PhaseMachine{
		current:  PhaseIdle,
		previous: PhaseIdle,
		counts:   make(map[Phase]int),
	}
}

// Current returns the current phase.
func (m *PhaseMachine) Current() Phase {
	return m.current
}

// Previous returns the phase before the last transition.
func (m *PhaseMachine) Previous() Phase {
	return m.previous
}

// Count returns how many times the machine has entered a phase.
func (m *PhaseMachine) Count(p Phase) int {
	return m.counts[p]
}

// Transition moves to a new phase if the transition table allows it.
func (m *PhaseMachine) Transition(to Phase, condition string) error {
	for _, t := range ValidTransitions {
		if t.From == m.current && t.To == to && t.Condition == condition {
			m.previous = m.current
			m.current = to
			m.transitionTime = time.Now().UTC()
			m.counts[to]++
			return nil
		}
	}
	return fmt.Errorf("invalid transition from %s to %s with condition %q", m.current, to, condition)
}

// Reset returns the machine to idle for the next position.
func (m *PhaseMachine) Reset() {
	m.current = PhaseIdle
	m.previous = PhaseIdle
	m.transitionTime = time.Time{}
	m.counts = make(map[Phase]int)
}

// Description returns a human-readable description of the current phase.
func (m *PhaseMachine) Description() string {
	switch m.current {
	case PhaseIdle:
		return "No open position, watching for entry"
	case PhaseOpen:
		return "Straddle open, unwind date scheduled"
	case PhaseHedging:
		return "Straddle open, intraday hedge loop active"
	case PhaseClosing:
		return "Unwind date reached, liquidating expiring legs"
	default:
		return "Unknown phase"
	}
}
