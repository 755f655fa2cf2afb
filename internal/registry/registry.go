package registry

import (
	"context"

	"incall-control/internal/call"
)

// Lookup resolves a call id to a fresh snapshot.
//
// Rules:
// - A miss is a normal outcome, not an error. Calls end asynchronously
//   (remote hangup, carrier signaling), so any id may stop resolving at any
//   moment, including between two lookups in the same client interaction.
// - Implementations must never hand out cached snapshots across calls to
//   Lookup; the dispatcher relies on reading the freshest observable state.
type Lookup interface {
	Lookup(ctx context.Context, callID int) (call.Snapshot, bool, error)
}

// Store is the full registry contract. The telephony layer owns writes; the
// command dispatcher only ever uses the Lookup side.
type Store interface {
	Lookup
	Save(ctx context.Context, snap call.Snapshot) error
	Remove(ctx context.Context, callID int) error
}
