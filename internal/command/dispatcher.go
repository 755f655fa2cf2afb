package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"incall-control/internal/audit"
	"incall-control/internal/auth"
	"incall-control/internal/registry"
	"incall-control/internal/telephony"
)

// Dispatcher is the command boundary between the in-call UI and the telephony
// layer. One method per command, fire-and-forget: no method returns anything
// to the caller and no fault is allowed to cross the boundary.
//
// Rules:
// - Every command re-resolves its call id against the registry. Snapshots are
//   never cached across commands; the call may have ended or changed state
//   since the client last heard about it.
// - A lookup miss is a normal no-op, not a failure.
// - A precondition denial drops the command silently (the UI learns the truth
//   from the call-state channel) but is recorded to the audit trail.
// - Collaborator faults and panics are contained, logged and audited, never
//   re-raised. The serving goroutine must survive every command.

type Dispatcher struct {
	registry  registry.Lookup
	manager   telephony.CallManager
	audio     telephony.AudioRouter
	tones     telephony.TonePlayer
	messenger telephony.RejectMessenger
	handsFree telephony.HandsFreeNotifier
	audit     *audit.Service
	log       *slog.Logger
}

// Deps lists the collaborators a Dispatcher needs. HandsFree and Audit are
// optional; everything else is required.
type Deps struct {
	Registry  registry.Lookup
	Manager   telephony.CallManager
	Audio     telephony.AudioRouter
	Tones     telephony.TonePlayer
	Messenger telephony.RejectMessenger
	HandsFree telephony.HandsFreeNotifier
	Audit     *audit.Service
	Logger    *slog.Logger
}

func New(deps Deps) (*Dispatcher, error) {
	if deps.Registry == nil {
		return nil, errors.New("command: registry is required")
	}
	if deps.Manager == nil {
		return nil, errors.New("command: call manager is required")
	}
	if deps.Audio == nil {
		return nil, errors.New("command: audio router is required")
	}
	if deps.Tones == nil {
		return nil, errors.New("command: tone player is required")
	}
	if deps.Messenger == nil {
		return nil, errors.New("command: reject messenger is required")
	}
	if deps.HandsFree == nil {
		deps.HandsFree = telephony.NoopHandsFreeNotifier{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Dispatcher{
		registry:  deps.Registry,
		manager:   deps.Manager,
		audio:     deps.Audio,
		tones:     deps.Tones,
		messenger: deps.Messenger,
		handsFree: deps.HandsFree,
		audit:     deps.Audit,
		log:       deps.Logger,
	}, nil
}

// AnswerCall picks up a ringing call. No-op when the id no longer resolves.
func (d *Dispatcher) AnswerCall(ctx context.Context, callID int) {
	d.contain(ctx, "answer_call", callID, func(ctx context.Context) error {
		snap, ok, err := d.registry.Lookup(ctx, callID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := d.manager.Answer(ctx, snap.Connection); err != nil {
			return err
		}
		d.recordDispatched(ctx, "answer_call", callID)
		return nil
	})
}

// RejectCall declines a ringing call. With withMessage set, the caller is
// additionally sent message, or offered a freshly composed one when message
// is nil.
func (d *Dispatcher) RejectCall(ctx context.Context, callID int, withMessage bool, message *string) {
	d.contain(ctx, "reject_call", callID, func(ctx context.Context) error {
		snap, ok, err := d.registry.Lookup(ctx, callID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		// Capture the address before hanging up; the snapshot is gone once
		// the manager tears the call down.
		number := snap.Address
		if err := d.manager.HangupRinging(ctx, snap.Connection); err != nil {
			return err
		}
		d.recordDispatched(ctx, "reject_call", callID)
		if !withMessage {
			return nil
		}
		if message != nil {
			return d.messenger.RejectWithMessage(ctx, number, *message)
		}
		return d.messenger.RejectWithNewMessage(ctx, number)
	})
}

// DisconnectCall hangs up an in-progress call. Idempotent: states outside the
// guard set, and ids that no longer resolve, are silently ignored.
func (d *Dispatcher) DisconnectCall(ctx context.Context, callID int) {
	d.contain(ctx, "disconnect_call", callID, func(ctx context.Context) error {
		snap, ok, err := d.registry.Lookup(ctx, callID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if !DisconnectAllowed(snap.State) {
			d.recordDenied(ctx, "disconnect_call", callID, "state "+snap.State.String())
			return nil
		}
		if err := d.manager.Hangup(ctx, snap.Connection); err != nil {
			return err
		}
		d.recordDispatched(ctx, "disconnect_call", callID)
		return nil
	})
}

// Hold pushes an active call to the background or pulls a held call back.
//
// Pushing to the background swaps via the manager's designated first
// background call, not necessarily this call's own connection; when the
// manager designates no background call the swap falls back to this call's
// own connection. Pulling back always uses this call's connection.
func (d *Dispatcher) Hold(ctx context.Context, callID int, wantHold bool) {
	d.contain(ctx, "hold", callID, func(ctx context.Context) error {
		snap, ok, err := d.registry.Lookup(ctx, callID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch HoldDecision(snap.State, wantHold) {
		case HoldToBackground:
			conn, ok, err := d.manager.FirstActiveBackgroundCall(ctx)
			if err != nil {
				return err
			}
			if !ok {
				conn = snap.Connection
			}
			if err := d.manager.SwitchHoldingAndActive(ctx, conn); err != nil {
				return err
			}
			d.recordDispatched(ctx, "hold", callID)
		case HoldToForeground:
			if err := d.manager.SwitchHoldingAndActive(ctx, snap.Connection); err != nil {
				return err
			}
			d.recordDispatched(ctx, "hold", callID)
		default:
			d.recordDenied(ctx, "hold", callID, fmt.Sprintf("state %s want_hold %t", snap.State, wantHold))
		}
		return nil
	})
}

// Merge joins the mergeable calls into a conference. Operates on whatever the
// manager currently considers mergeable; no call id is involved.
func (d *Dispatcher) Merge(ctx context.Context) {
	d.contain(ctx, "merge", 0, func(ctx context.Context) error {
		ok, err := d.manager.OkToMergeCalls(ctx)
		if err != nil {
			return err
		}
		if !ok {
			d.recordDenied(ctx, "merge", 0, "merge not allowed")
			return nil
		}
		if err := d.manager.MergeCalls(ctx); err != nil {
			return err
		}
		d.recordDispatched(ctx, "merge", 0)
		return nil
	})
}

// AddCall starts the add-call flow. The manager performs its own permission
// check, so this delegates unconditionally.
func (d *Dispatcher) AddCall(ctx context.Context) {
	d.contain(ctx, "add_call", 0, func(ctx context.Context) error {
		if err := d.manager.StartNewCall(ctx); err != nil {
			return err
		}
		d.recordDispatched(ctx, "add_call", 0)
		return nil
	})
}

// Swap exchanges the foreground and background calls, always acting on the
// manager's first background call.
//
// On legacy dual-call signaling (CDMA) the network does not report the swap,
// so the hands-free profile is told to update its second-call active state
// locally. A notifier fault is logged and audited but never undoes or blocks
// the swap that already happened.
func (d *Dispatcher) Swap(ctx context.Context) {
	d.contain(ctx, "swap", 0, func(ctx context.Context) error {
		ok, err := d.manager.OkToSwapCalls(ctx)
		if err != nil {
			return err
		}
		if !ok {
			d.recordDenied(ctx, "swap", 0, "swap not allowed")
			return nil
		}
		conn, ok, err := d.manager.FirstActiveBackgroundCall(ctx)
		if err != nil {
			return err
		}
		if !ok {
			d.recordDenied(ctx, "swap", 0, "no background call")
			return nil
		}
		if err := d.manager.SwitchHoldingAndActive(ctx, conn); err != nil {
			return err
		}
		d.recordDispatched(ctx, "swap", 0)

		pt, ok, err := d.manager.FirstActiveBackgroundPhoneType(ctx)
		if err != nil {
			d.log.ErrorContext(ctx, "background phone type lookup failed after swap", "err", err)
			return nil
		}
		if ok && pt.RequiresSecondCallBookkeeping() {
			if err := d.handsFree.NotifySecondCallSwapped(ctx); err != nil {
				d.log.ErrorContext(ctx, "hands-free swap notify failed", "err", err)
				d.recordFault(ctx, "swap", 0, "hands-free notify: "+err.Error())
			}
		}
		return nil
	})
}

// Mute toggles the microphone. Unconditional and idempotent.
func (d *Dispatcher) Mute(ctx context.Context, on bool) {
	d.contain(ctx, "mute", 0, func(ctx context.Context) error {
		if err := d.audio.SetMute(ctx, on); err != nil {
			return err
		}
		d.recordDispatched(ctx, "mute", 0)
		return nil
	})
}

// Speaker toggles the speakerphone. Unconditional and idempotent.
func (d *Dispatcher) Speaker(ctx context.Context, on bool) {
	d.contain(ctx, "speaker", 0, func(ctx context.Context) error {
		if err := d.audio.TurnOnSpeaker(ctx, on, true); err != nil {
			return err
		}
		d.recordDispatched(ctx, "speaker", 0)
		return nil
	})
}

// PlayDtmfTone starts a DTMF tone on the active call.
func (d *Dispatcher) PlayDtmfTone(ctx context.Context, digit rune, timedShortTone bool) {
	d.contain(ctx, "play_dtmf_tone", 0, func(ctx context.Context) error {
		if err := d.tones.Play(ctx, digit, timedShortTone); err != nil {
			return err
		}
		d.recordDispatched(ctx, "play_dtmf_tone", 0)
		return nil
	})
}

// StopDtmfTone stops the currently playing DTMF tone.
func (d *Dispatcher) StopDtmfTone(ctx context.Context) {
	d.contain(ctx, "stop_dtmf_tone", 0, func(ctx context.Context) error {
		if err := d.tones.Stop(ctx); err != nil {
			return err
		}
		d.recordDispatched(ctx, "stop_dtmf_tone", 0)
		return nil
	})
}

// SetAudioMode routes audio to the given mode.
func (d *Dispatcher) SetAudioMode(ctx context.Context, mode int) {
	d.contain(ctx, "set_audio_mode", 0, func(ctx context.Context) error {
		if err := d.audio.SetAudioMode(ctx, mode); err != nil {
			return err
		}
		d.recordDispatched(ctx, "set_audio_mode", 0)
		return nil
	})
}

// contain runs a command body under the failure-contained scope. Faults and
// panics are logged and audited, then swallowed: the boundary fails open so a
// single bad command cannot take down the serving goroutine or block the
// commands behind it.
func (d *Dispatcher) contain(ctx context.Context, name string, callID int, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorContext(ctx, "panic contained at command boundary",
				"command", name, "call_id", callID, "panic", r)
			d.recordFault(ctx, name, callID, fmt.Sprintf("panic: %v", r))
		}
	}()
	if err := fn(ctx); err != nil {
		d.log.ErrorContext(ctx, "command fault contained",
			"command", name, "call_id", callID, "err", err)
		d.recordFault(ctx, name, callID, err.Error())
	}
}

func (d *Dispatcher) identity(ctx context.Context) (deviceID, userID string) {
	deviceID, _ = auth.DeviceID(ctx)
	if deviceID == "" {
		deviceID = "unknown"
	}
	userID, _ = auth.UserID(ctx)
	return deviceID, userID
}

func (d *Dispatcher) recordDispatched(ctx context.Context, name string, callID int) {
	if d.audit == nil {
		return
	}
	deviceID, userID := d.identity(ctx)
	if err := d.audit.LogDispatched(ctx, deviceID, userID, name, callID); err != nil {
		d.log.DebugContext(ctx, "audit append failed", "command", name, "err", err)
	}
}

func (d *Dispatcher) recordDenied(ctx context.Context, name string, callID int, reason string) {
	d.log.InfoContext(ctx, "command denied by state precondition",
		"command", name, "call_id", callID, "reason", reason)
	if d.audit == nil {
		return
	}
	deviceID, userID := d.identity(ctx)
	if err := d.audit.LogDenied(ctx, deviceID, userID, name, callID, reason); err != nil {
		d.log.DebugContext(ctx, "audit append failed", "command", name, "err", err)
	}
}

func (d *Dispatcher) recordFault(ctx context.Context, name string, callID int, detail string) {
	if d.audit == nil {
		return
	}
	deviceID, userID := d.identity(ctx)
	if err := d.audit.LogFault(ctx, deviceID, userID, name, callID, detail); err != nil {
		d.log.DebugContext(ctx, "audit append failed", "command", name, "err", err)
	}
}
