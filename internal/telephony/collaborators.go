package telephony

import (
	"context"

	"incall-control/internal/call"
)

// Collaborator contracts consumed by the command dispatcher.
//
// Rules:
// - These subsystems own the actual call/connection state machine; the
//   dispatcher only reads preconditions and delegates.
// - All implementations are shared, externally synchronized resources invoked
//   concurrently from the serving goroutines. Calls are expected to be
//   in-process and fast; no retries happen above this boundary.

// CallManager owns call/connection state transitions.
type CallManager interface {
	// Answer picks up the given ringing connection.
	Answer(ctx context.Context, conn call.Connection) error
	// Hangup ends the given connection.
	Hangup(ctx context.Context, conn call.Connection) error
	// HangupRinging declines an incoming, still-ringing connection.
	HangupRinging(ctx context.Context, conn call.Connection) error
	// SwitchHoldingAndActive swaps the given connection between the
	// foreground and background.
	SwitchHoldingAndActive(ctx context.Context, conn call.Connection) error

	OkToMergeCalls(ctx context.Context) (bool, error)
	MergeCalls(ctx context.Context) error

	// StartNewCall asks the manager to begin an add-call flow. The manager
	// itself rejects the request when adding a call is not currently allowed.
	StartNewCall(ctx context.Context) error

	OkToSwapCalls(ctx context.Context) (bool, error)

	// FirstActiveBackgroundCall returns the manager's designated background
	// call. Single-background-call simplification: when several background
	// calls exist the manager always designates one; there is no selection
	// mechanism at this boundary.
	FirstActiveBackgroundCall(ctx context.Context) (call.Connection, bool, error)
	// FirstActiveBackgroundPhoneType reports the network technology of the
	// phone carrying the designated background call.
	FirstActiveBackgroundPhoneType(ctx context.Context) (call.PhoneType, bool, error)
}

// AudioMode values mirror the platform audio routing enum.
const (
	AudioModeEarpiece = iota
	AudioModeSpeaker
	AudioModeWiredHeadset
	AudioModeBluetooth
)

// AudioRouter controls microphone mute and output routing.
type AudioRouter interface {
	SetMute(ctx context.Context, on bool) error
	// TurnOnSpeaker routes output to the speakerphone. updateHardware also
	// pushes the change down to the audio hardware layer immediately.
	TurnOnSpeaker(ctx context.Context, on bool, updateHardware bool) error
	SetAudioMode(ctx context.Context, mode int) error
}

// TonePlayer generates DTMF tones on the active call.
type TonePlayer interface {
	Play(ctx context.Context, digit rune, timedShortTone bool) error
	Stop(ctx context.Context) error
}

// RejectMessenger sends the SMS follow-up for reject-with-message.
type RejectMessenger interface {
	// RejectWithMessage sends the given text to the rejected caller.
	RejectWithMessage(ctx context.Context, number, text string) error
	// RejectWithNewMessage starts the compose-a-new-message flow for the
	// rejected caller.
	RejectWithNewMessage(ctx context.Context, number string) error
}

// HandsFreeNotifier is the hands-free-profile bookkeeping hook. On legacy
// dual-call signaling (CDMA) the network does not report which caller got
// swapped, so the profile must update its second-call active state locally.
type HandsFreeNotifier interface {
	NotifySecondCallSwapped(ctx context.Context) error
}
