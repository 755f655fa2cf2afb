package command

import (
	"testing"

	"incall-control/internal/call"
)

func TestDisconnectAllowed(t *testing.T) {
	cases := []struct {
		state call.State
		want  bool
	}{
		{call.StateIdle, false},
		{call.StateDialing, true},
		{call.StateRinging, false},
		{call.StateActive, true},
		{call.StateOnHold, true},
		{call.StateDisconnecting, false},
		{call.StateDisconnected, false},
		{call.StateConferenced, true},
	}
	for _, tc := range cases {
		if got := DisconnectAllowed(tc.state); got != tc.want {
			t.Errorf("DisconnectAllowed(%v) = %v, want %v", tc.state, got, tc.want)
		}
	}
}

func TestHoldDecision(t *testing.T) {
	cases := []struct {
		state    call.State
		wantHold bool
		want     HoldAction
	}{
		{call.StateActive, true, HoldToBackground},
		{call.StateOnHold, false, HoldToForeground},

		// Repeats are no-ops, not errors.
		{call.StateActive, false, HoldNone},
		{call.StateOnHold, true, HoldNone},

		// Everything else is dropped regardless of direction.
		{call.StateRinging, true, HoldNone},
		{call.StateRinging, false, HoldNone},
		{call.StateDialing, true, HoldNone},
		{call.StateDisconnected, false, HoldNone},
		{call.StateConferenced, true, HoldNone},
		{call.StateIdle, false, HoldNone},
	}
	for _, tc := range cases {
		if got := HoldDecision(tc.state, tc.wantHold); got != tc.want {
			t.Errorf("HoldDecision(%v, %v) = %v, want %v", tc.state, tc.wantHold, got, tc.want)
		}
	}
}
