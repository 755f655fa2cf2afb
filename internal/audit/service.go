package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for command audit events.
//
// It MUST be append-only. No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Reader lists recent events for diagnostics.
type Reader interface {
	Recent(ctx context.Context, deviceID string, limit int) ([]Event, error)
}

// Service records command boundary events.
//
// IMPORTANT:
// - Audit is internal-only; it is exposed to the diagnostics role, never to
//   the in-call UI itself.
// - Callers must treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.DeviceID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" || e.Command == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogDispatched records a command that was delegated to a collaborator.
func (s *Service) LogDispatched(ctx context.Context, deviceID, actorUserID, command string, callID int) error {
	return s.Append(ctx, Event{
		DeviceID:    deviceID,
		Type:        EventTypeDispatched,
		Command:     command,
		CallID:      callID,
		ActorUserID: actorUserID,
	})
}

// LogDenied records a command dropped by a state precondition.
func (s *Service) LogDenied(ctx context.Context, deviceID, actorUserID, command string, callID int, reason string) error {
	return s.Append(ctx, Event{
		DeviceID:    deviceID,
		Type:        EventTypeDenied,
		Command:     command,
		CallID:      callID,
		ActorUserID: actorUserID,
		Detail:      reason,
	})
}

// LogFault records a contained collaborator fault or panic.
func (s *Service) LogFault(ctx context.Context, deviceID, actorUserID, command string, callID int, detail string) error {
	return s.Append(ctx, Event{
		DeviceID:    deviceID,
		Type:        EventTypeFault,
		Command:     command,
		CallID:      callID,
		ActorUserID: actorUserID,
		Detail:      detail,
	})
}
