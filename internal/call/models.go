package call

import "fmt"

// Snapshot is a point-in-time read of a call taken from the registry.
//
// Invariants:
// - Snapshots are never cached across commands; every command re-resolves.
// - State reflects the registry at lookup time and may already be stale by the
//   time a command is delegated. Collaborators must tolerate that.
// - The dispatcher never mutates a Snapshot; all state transitions happen in
//   the telephony layer.

type Snapshot struct {
	ID      int    `json:"id"`
	State   State  `json:"state"`
	Address string `json:"address"`

	// Connection is the handle the telephony layer understands.
	Connection Connection `json:"connection"`

	// PhoneType is the network technology carrying this call.
	PhoneType PhoneType `json:"phone_type"`
}

// Connection is an opaque handle onto the underlying connection/session.
// The dispatcher only ever passes it through to the call manager.
type Connection struct {
	ID string `json:"id"`
}

func (c Connection) IsZero() bool { return c.ID == "" }

type State int

const (
	StateIdle State = iota
	StateDialing
	StateRinging
	StateActive
	StateOnHold
	StateDisconnecting
	StateDisconnected
	StateConferenced
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDialing:
		return "dialing"
	case StateRinging:
		return "ringing"
	case StateActive:
		return "active"
	case StateOnHold:
		return "on_hold"
	case StateDisconnecting:
		return "disconnecting"
	case StateDisconnected:
		return "disconnected"
	case StateConferenced:
		return "conferenced"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// IsTerminal reports whether the call has fully ended.
func (s State) IsTerminal() bool { return s == StateDisconnected }

// PhoneType identifies the radio/network technology of a call's phone.
//
// PhoneTypeCDMA is the legacy dual-call signaling mode: the network does not
// report which caller got swapped, so second-call active state must be bookkept
// locally by the hands-free profile.
type PhoneType int

const (
	PhoneTypeNone PhoneType = iota
	PhoneTypeGSM
	PhoneTypeCDMA
)

// RequiresSecondCallBookkeeping reports whether swaps on this phone type must
// be mirrored into the hands-free profile by hand.
func (p PhoneType) RequiresSecondCallBookkeeping() bool { return p == PhoneTypeCDMA }

func (p PhoneType) String() string {
	switch p {
	case PhoneTypeNone:
		return "none"
	case PhoneTypeGSM:
		return "gsm"
	case PhoneTypeCDMA:
		return "cdma"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}
