// Package escalation drives the daily check-in: when the intrusive alarm fires it
// either stands down because the user already confirmed today, or takes over the
// terminal with a prompt that rings and flashes until the user resolves it.
package escalation

import (
	"fmt"

	"github.com/julianstephens/soberlit/internal/errors"
)

type State string

const (
	StateIdle       State = "IDLE"
	StateArmed      State = "ARMED"
	StateFired      State = "FIRED"
	StateSuppressed State = "SUPPRESSED"
	StateEscalating State = "ESCALATING"
	StateResolved   State = "RESOLVED"
)

type EventKind string

const (
	EventArm    EventKind = "arm"
	EventDisarm EventKind = "disarm"
	// EventRearmed follows a successful re-arm after suppression or resolution
	EventRearmed EventKind = "rearmed"
	EventFired   EventKind = "fired"
	// EventEvaluated carries the result of the exact-day check-in lookup
	EventEvaluated              EventKind = "evaluated"
	EventRelapseDialogOpened    EventKind = "relapse_dialog_opened"
	EventRelapseDialogCancelled EventKind = "relapse_dialog_cancelled"
	EventDismiss                EventKind = "dismiss"
	EventConfirmSober           EventKind = "confirm_sober"
	EventConfirmRelapse         EventKind = "confirm_relapse"
	EventTimeout                EventKind = "timeout"
	EventNoDisplay              EventKind = "no_display"
)

type Event struct {
	Kind EventKind
	// CheckedInToday and Display are only read for EventEvaluated
	CheckedInToday bool
	Display        bool
}

type Effect string

const (
	EffectScheduleCheckin Effect = "schedule_checkin"
	// EffectEnsureCheckin keeps a matching registration and arms one otherwise
	EffectEnsureCheckin  Effect = "ensure_checkin"
	EffectCancelCheckin  Effect = "cancel_checkin"
	EffectAcquireSession Effect = "acquire_session"
	EffectReleaseSession Effect = "release_session"
	EffectShowPrompt     Effect = "show_prompt"
	EffectStartFeedback  Effect = "start_feedback"
	EffectPauseFeedback  Effect = "pause_feedback"
	EffectResumeFeedback Effect = "resume_feedback"
	EffectStopFeedback   Effect = "stop_feedback"
	EffectConfirmLedger  Effect = "confirm_ledger"
	EffectResetLedger    Effect = "reset_ledger"
	EffectNotifyBuddy    Effect = "notify_buddy"
	EffectNotifyUser     Effect = "notify_user"
	EffectLogTimeout     Effect = "log_timeout"
)

var ErrInvalidTransition = errors.New("invalid escalation transition")

// Step is the whole state machine. It never performs I/O: the caller commits the
// returned state and then executes the effects in order.
func Step(s State, e Event) (State, []Effect, error) {
	switch e.Kind {
	case EventArm:
		switch s {
		case StateIdle, StateArmed, StateSuppressed, StateResolved:
			return StateArmed, []Effect{EffectEnsureCheckin}, nil
		case StateFired, StateEscalating:
			// the resolution re-arms
			return s, nil, nil
		}
	case EventDisarm:
		switch s {
		case StateIdle, StateArmed:
			return StateIdle, []Effect{EffectCancelCheckin}, nil
		case StateSuppressed, StateResolved:
			return StateIdle, []Effect{EffectCancelCheckin}, nil
		case StateFired, StateEscalating:
			// the running check-in finishes; its re-arm reads the new preferences
			return s, []Effect{EffectCancelCheckin}, nil
		}
	case EventRearmed:
		if s == StateSuppressed || s == StateResolved {
			return StateArmed, nil, nil
		}
	case EventFired:
		switch s {
		case StateIdle, StateArmed, StateSuppressed, StateResolved:
			// a fresh process starts IDLE and a failed re-arm leaves the previous
			// outcome in place; a delivered alarm proves the check-in was armed
			return StateFired, nil, nil
		case StateEscalating:
			return StateEscalating, nil, nil
		}
	case EventEvaluated:
		if s != StateFired {
			break
		}
		switch {
		case e.CheckedInToday:
			return StateSuppressed, []Effect{EffectScheduleCheckin}, nil
		case !e.Display:
			return StateResolved, []Effect{EffectNotifyUser, EffectScheduleCheckin}, nil
		default:
			return StateEscalating, []Effect{EffectAcquireSession, EffectShowPrompt, EffectStartFeedback}, nil
		}
	}

	if s != StateEscalating {
		return s, nil, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e.Kind, s)
	}

	switch e.Kind {
	case EventDismiss:
		// the prompt cannot be dismissed without a resolution
		return StateEscalating, nil, nil
	case EventRelapseDialogOpened:
		return StateEscalating, []Effect{EffectPauseFeedback}, nil
	case EventRelapseDialogCancelled:
		return StateEscalating, []Effect{EffectResumeFeedback}, nil
	case EventConfirmSober:
		return StateResolved, []Effect{
			EffectStopFeedback, EffectReleaseSession, EffectConfirmLedger, EffectScheduleCheckin, EffectNotifyBuddy,
		}, nil
	case EventConfirmRelapse:
		return StateResolved, []Effect{
			EffectStopFeedback, EffectReleaseSession, EffectResetLedger, EffectScheduleCheckin, EffectNotifyBuddy,
		}, nil
	case EventTimeout:
		return StateResolved, []Effect{
			EffectStopFeedback, EffectReleaseSession, EffectLogTimeout, EffectScheduleCheckin,
		}, nil
	case EventNoDisplay:
		return StateResolved, []Effect{
			EffectStopFeedback, EffectReleaseSession, EffectNotifyUser, EffectScheduleCheckin,
		}, nil
	}
	return s, nil, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e.Kind, s)
}
