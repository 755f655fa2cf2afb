package audit

import "time"

// Event is an immutable, append-only record of a command crossing the
// dispatch boundary.
//
// Invariants:
// - Events are never updated or deleted.
// - device_id is required: every command is issued by an authenticated
//   in-call UI bound to a device.
// - Recording is best-effort; a command must never block or fail because its
//   audit write failed.
//
// Storage (Postgres): table command_audit_events with an INSERT-only policy.

type Event struct {
	ID       string `json:"id" db:"id"`
	DeviceID string `json:"device_id" db:"device_id"`

	// Type indicates how the command left the boundary.
	Type EventType `json:"type" db:"type"`

	// Command is the dispatcher operation name, e.g. "disconnect_call".
	Command string `json:"command" db:"command"`

	// CallID is the target call, 0 for callless commands (merge, swap, audio).
	CallID int `json:"call_id,omitempty" db:"call_id"`

	// ActorUserID is the authenticated user issuing the command.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`

	// Detail carries the denial reason or the contained fault text.
	Detail string `json:"detail,omitempty" db:"detail"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	// EventTypeDispatched: the command passed its preconditions and was
	// delegated to a collaborator.
	EventTypeDispatched EventType = "command_dispatched"
	// EventTypeDenied: the command was dropped by a state precondition.
	EventTypeDenied EventType = "command_denied"
	// EventTypeFault: a collaborator fault or panic was contained.
	EventTypeFault EventType = "command_fault"
)
