package telephony

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"incall-control/internal/call"
	"incall-control/internal/registry"
)

// LocalManager is an in-process CallManager used for the local env and tests.
// It keeps its call table in memory and publishes every state change as a
// snapshot through the registry store, so the dispatcher observes the same
// freshness semantics it would against the real telephony layer.
//
// Not intended for production use.

type LocalManager struct {
	store registry.Store
	log   *slog.Logger

	mu    sync.Mutex
	calls map[int]call.Snapshot
	// background is the designated first background call id, 0 when none.
	background int
}

func NewLocalManager(store registry.Store, log *slog.Logger) *LocalManager {
	if log == nil {
		log = slog.Default()
	}
	return &LocalManager{store: store, log: log, calls: make(map[int]call.Snapshot)}
}

// Seed installs a call into the manager and the registry. Test/dev helper.
func (m *LocalManager) Seed(ctx context.Context, snap call.Snapshot) error {
	m.mu.Lock()
	m.calls[snap.ID] = snap
	if snap.State == call.StateOnHold && m.background == 0 {
		m.background = snap.ID
	}
	m.mu.Unlock()
	return m.store.Save(ctx, snap)
}

func (m *LocalManager) byConnection(conn call.Connection) (call.Snapshot, bool) {
	for _, snap := range m.calls {
		if snap.Connection == conn {
			return snap, true
		}
	}
	return call.Snapshot{}, false
}

func (m *LocalManager) publish(ctx context.Context, snap call.Snapshot) error {
	m.calls[snap.ID] = snap
	if snap.State.IsTerminal() {
		delete(m.calls, snap.ID)
		if m.background == snap.ID {
			m.background = 0
		}
		return m.store.Remove(ctx, snap.ID)
	}
	return m.store.Save(ctx, snap)
}

func (m *LocalManager) Answer(ctx context.Context, conn call.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.byConnection(conn)
	if !ok {
		return errors.New("telephony: no call for connection")
	}
	if snap.State != call.StateRinging {
		return errors.New("telephony: answer on non-ringing call")
	}
	snap.State = call.StateActive
	return m.publish(ctx, snap)
}

func (m *LocalManager) Hangup(ctx context.Context, conn call.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.byConnection(conn)
	if !ok {
		return errors.New("telephony: no call for connection")
	}
	snap.State = call.StateDisconnected
	return m.publish(ctx, snap)
}

func (m *LocalManager) HangupRinging(ctx context.Context, conn call.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.byConnection(conn)
	if !ok {
		return errors.New("telephony: no call for connection")
	}
	if snap.State != call.StateRinging {
		return errors.New("telephony: hangup-ringing on non-ringing call")
	}
	snap.State = call.StateDisconnected
	return m.publish(ctx, snap)
}

func (m *LocalManager) SwitchHoldingAndActive(ctx context.Context, conn call.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.byConnection(conn)
	if !ok {
		return errors.New("telephony: no call for connection")
	}
	switch snap.State {
	case call.StateActive:
		snap.State = call.StateOnHold
		m.background = snap.ID
	case call.StateOnHold:
		snap.State = call.StateActive
		if m.background == snap.ID {
			m.background = 0
		}
	default:
		return errors.New("telephony: switch on call that is neither active nor held")
	}
	return m.publish(ctx, snap)
}

func (m *LocalManager) OkToMergeCalls(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Merge needs one foreground and one background call.
	var active bool
	for _, snap := range m.calls {
		if snap.State == call.StateActive {
			active = true
		}
	}
	return active && m.background != 0, nil
}

func (m *LocalManager) MergeCalls(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, snap := range m.calls {
		if snap.State == call.StateActive || snap.State == call.StateOnHold {
			snap.State = call.StateConferenced
			if err := m.publish(ctx, snap); err != nil {
				return err
			}
			m.calls[id] = snap
		}
	}
	m.background = 0
	return nil
}

func (m *LocalManager) StartNewCall(ctx context.Context) error {
	// The real manager opens the dialer; locally there is nothing to drive.
	m.log.InfoContext(ctx, "start new call requested")
	return nil
}

func (m *LocalManager) OkToSwapCalls(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.background != 0, nil
}

func (m *LocalManager) FirstActiveBackgroundCall(ctx context.Context) (call.Connection, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.background == 0 {
		return call.Connection{}, false, nil
	}
	snap, ok := m.calls[m.background]
	if !ok {
		return call.Connection{}, false, nil
	}
	return snap.Connection, true, nil
}

func (m *LocalManager) FirstActiveBackgroundPhoneType(ctx context.Context) (call.PhoneType, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.background == 0 {
		return call.PhoneTypeNone, false, nil
	}
	snap, ok := m.calls[m.background]
	if !ok {
		return call.PhoneTypeNone, false, nil
	}
	return snap.PhoneType, true, nil
}

// LocalAudioRouter logs audio commands instead of touching hardware.
type LocalAudioRouter struct {
	log *slog.Logger
}

func NewLocalAudioRouter(log *slog.Logger) *LocalAudioRouter {
	if log == nil {
		log = slog.Default()
	}
	return &LocalAudioRouter{log: log}
}

func (a *LocalAudioRouter) SetMute(ctx context.Context, on bool) error {
	a.log.InfoContext(ctx, "set mute", "on", on)
	return nil
}

func (a *LocalAudioRouter) TurnOnSpeaker(ctx context.Context, on bool, updateHardware bool) error {
	a.log.InfoContext(ctx, "turn on speaker", "on", on, "update_hardware", updateHardware)
	return nil
}

func (a *LocalAudioRouter) SetAudioMode(ctx context.Context, mode int) error {
	a.log.InfoContext(ctx, "set audio mode", "mode", mode)
	return nil
}

// LocalTonePlayer logs DTMF activity.
type LocalTonePlayer struct {
	log *slog.Logger
}

func NewLocalTonePlayer(log *slog.Logger) *LocalTonePlayer {
	if log == nil {
		log = slog.Default()
	}
	return &LocalTonePlayer{log: log}
}

func (p *LocalTonePlayer) Play(ctx context.Context, digit rune, timedShortTone bool) error {
	p.log.InfoContext(ctx, "play dtmf", "digit", string(digit), "short", timedShortTone)
	return nil
}

func (p *LocalTonePlayer) Stop(ctx context.Context) error {
	p.log.InfoContext(ctx, "stop dtmf")
	return nil
}

// LocalRejectMessenger logs reject messages instead of sending SMS.
type LocalRejectMessenger struct {
	log *slog.Logger
}

func NewLocalRejectMessenger(log *slog.Logger) *LocalRejectMessenger {
	if log == nil {
		log = slog.Default()
	}
	return &LocalRejectMessenger{log: log}
}

func (r *LocalRejectMessenger) RejectWithMessage(ctx context.Context, number, text string) error {
	r.log.InfoContext(ctx, "reject with message", "number", number, "len", len(text))
	return nil
}

func (r *LocalRejectMessenger) RejectWithNewMessage(ctx context.Context, number string) error {
	r.log.InfoContext(ctx, "reject with new message", "number", number)
	return nil
}

// NoopHandsFreeNotifier is used when no hands-free profile is attached.
type NoopHandsFreeNotifier struct{}

func (NoopHandsFreeNotifier) NotifySecondCallSwapped(ctx context.Context) error { return nil }
