package command

import "incall-control/internal/call"

// State precondition tables. Pure functions only: no side effects, no
// collaborator calls. Centralizing the guards keeps the per-command handlers
// free of duplicated state checks and makes the tables testable on their own.

// DisconnectAllowed reports whether a call in state s may be hung up.
// Anything outside this set (already disconnected, still ringing, idle) makes
// disconnect a silent no-op, which is what makes the command idempotent.
func DisconnectAllowed(s call.State) bool {
	switch s {
	case call.StateActive, call.StateOnHold, call.StateDialing, call.StateConferenced:
		return true
	default:
		return false
	}
}

// HoldAction is the outcome of the hold precondition table.
type HoldAction int

const (
	// HoldNone: the (state, wantHold) combination is a no-op.
	HoldNone HoldAction = iota
	// HoldToBackground: swap using the manager's first background call.
	HoldToBackground
	// HoldToForeground: swap using this call's own connection.
	HoldToForeground
)

// HoldDecision maps (current state, requested hold) to the swap to perform.
// Only Active may be pushed to the background and only OnHold may be pulled
// back; every other combination, including repeats, is dropped.
func HoldDecision(s call.State, wantHold bool) HoldAction {
	if wantHold && s == call.StateActive {
		return HoldToBackground
	}
	if !wantHold && s == call.StateOnHold {
		return HoldToForeground
	}
	return HoldNone
}
