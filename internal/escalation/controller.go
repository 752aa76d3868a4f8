package escalation

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/notifier"
	"github.com/julianstephens/soberlit/internal/utils"
)

// Resolution is how an escalation ended.
type Resolution string

const (
	ResolutionSober      Resolution = "sober"
	ResolutionRelapse    Resolution = "relapse"
	ResolutionTimeout    Resolution = "timeout"
	ResolutionSuppressed Resolution = "suppressed"
	ResolutionNotified   Resolution = "notified"
)

// PromptHooks let a prompt report user actions back and render vibration pulses.
type PromptHooks struct {
	RelapseDialog func(open bool)
	Pulses        <-chan bool
}

// Prompt is the blocking check-in screen. Run returns errors.ErrNoDisplay when
// there is no terminal to take over, and ctx.Err() when cancelled.
type Prompt interface {
	Available() bool
	Run(ctx context.Context, hooks PromptHooks) (Resolution, error)
}

type Ledger interface {
	HasCheckedInToday(ctx context.Context) (bool, error)
	ConfirmForToday(ctx context.Context) (models.Ledger, bool, error)
	ResetCounter(ctx context.Context) (models.Ledger, error)
}

type CheckinScheduler interface {
	ScheduleCheckin(ctx context.Context) (models.Alarm, bool, error)
	EnsureCheckin(ctx context.Context) (models.Alarm, bool, error)
	CancelCheckin(ctx context.Context) error
}

type Buddy interface {
	SendAsync(payload notifier.BuddyPayload) <-chan struct{}
}

type Deps struct {
	Ledger    Ledger
	Scheduler CheckinScheduler
	Prompt    Prompt
	Notifier  notifier.Notifier
	Buddy     Buddy
	// Bell receives the sound loop's output; defaults to stderr
	Bell io.Writer
	// OnResolved runs after the ledger has been updated by a resolution
	OnResolved func(ctx context.Context, l models.Ledger)
}

type Controller struct {
	deps    Deps
	now     utils.Clock
	timeout time.Duration

	mu     sync.Mutex
	state  State
	active *Session

	// background escalations started by HandleFired
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(deps Deps) *Controller {
	if deps.Bell == nil {
		deps.Bell = os.Stderr
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		deps:    deps,
		now:     utils.SystemClock,
		timeout: constants.WakeLockTimeout,
		state:   StateIdle,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active returns a copy of the running session, if any.
func (c *Controller) Active() (models.EscalationSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return models.EscalationSession{}, false
	}
	return c.active.EscalationSession, true
}

// escalation carries the per-fire resources effects act on.
type escalation struct {
	session   *Session
	sound     *Loop
	vibration *Loop
	pulses    chan bool
	ledger    *models.Ledger
	event     notifier.BuddyEvent
	prompt    bool
	promptCtx context.Context
	stop      context.CancelFunc
}

func (c *Controller) newEscalation(ctx context.Context) *escalation {
	pulses := make(chan bool, 1)
	promptCtx, stop := context.WithCancel(ctx)
	return &escalation{
		sound: SoundLoop(c.deps.Bell, constants.AlarmSoundInterval),
		vibration: VibrationLoop(func(on bool) {
			select {
			case pulses <- on:
			default:
			}
		}),
		pulses:    pulses,
		promptCtx: promptCtx,
		stop:      stop,
	}
}

// apply commits the transition for e and then executes its effects.
func (c *Controller) apply(ctx context.Context, esc *escalation, e Event) error {
	c.mu.Lock()
	prev := c.state
	next, effects, err := Step(prev, e)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.mu.Unlock()

	logger.Debug("Escalation transition", "event", e.Kind, "from", prev, "to", next)

	follow, err := c.execute(ctx, esc, effects)
	for _, f := range follow {
		if ferr := c.apply(ctx, esc, f); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}
	return err
}

func (c *Controller) execute(ctx context.Context, esc *escalation, effects []Effect) ([]Event, error) {
	var follow []Event
	var errs []error

	for _, effect := range effects {
		switch effect {
		case EffectScheduleCheckin:
			_, armed, err := c.deps.Scheduler.ScheduleCheckin(ctx)
			if err != nil {
				errs = append(errs, fmt.Errorf("re-arm check-in: %w", err))
				continue
			}
			switch {
			case !armed:
				follow = append(follow, Event{Kind: EventDisarm})
			case c.State() != StateArmed:
				follow = append(follow, Event{Kind: EventRearmed})
			}
		case EffectEnsureCheckin:
			_, armed, err := c.deps.Scheduler.EnsureCheckin(ctx)
			if err != nil {
				errs = append(errs, fmt.Errorf("arm check-in: %w", err))
				continue
			}
			if !armed {
				follow = append(follow, Event{Kind: EventDisarm})
			}
		case EffectCancelCheckin:
			if err := c.deps.Scheduler.CancelCheckin(ctx); err != nil {
				errs = append(errs, fmt.Errorf("cancel check-in: %w", err))
			}
		case EffectAcquireSession:
			if err := c.acquire(esc); err != nil {
				errs = append(errs, err)
			}
		case EffectReleaseSession:
			if esc.session != nil {
				esc.session.Release()
			}
		case EffectShowPrompt:
			esc.prompt = true
		case EffectStartFeedback, EffectResumeFeedback:
			esc.sound.Start(esc.promptCtx)
			esc.vibration.Start(esc.promptCtx)
		case EffectPauseFeedback, EffectStopFeedback:
			esc.sound.Stop()
			esc.vibration.Stop()
		case EffectConfirmLedger:
			l, _, err := c.deps.Ledger.ConfirmForToday(ctx)
			if err != nil {
				errs = append(errs, fmt.Errorf("confirm check-in: %w", err))
				c.notify(ctx, "Check-in not saved", "Run 'soberlit confirm' to record today.")
				continue
			}
			esc.ledger, esc.event = &l, notifier.BuddyEventSober
			c.resolved(ctx, l)
		case EffectResetLedger:
			l, err := c.deps.Ledger.ResetCounter(ctx)
			if err != nil {
				errs = append(errs, fmt.Errorf("reset counter: %w", err))
				c.notify(ctx, "Reset not saved", "Run 'soberlit relapse' to record it.")
				continue
			}
			esc.ledger, esc.event = &l, notifier.BuddyEventRelapse
			c.resolved(ctx, l)
		case EffectNotifyBuddy:
			if c.deps.Buddy == nil || esc.ledger == nil {
				continue
			}
			c.deps.Buddy.SendAsync(notifier.BuddyPayload{
				Event:     esc.event,
				DaysSober: esc.ledger.ConfirmedDayCount,
				Streak:    esc.ledger.CurrentStreak,
			})
		case EffectNotifyUser:
			c.notify(ctx, "Daily check-in", "Have you stayed sober today? Run 'soberlit checkin' to answer.")
		case EffectLogTimeout:
			logger.Warn("Check-in prompt timed out without an answer", "timeout", c.timeout)
		}
	}
	return follow, errors.Join(errs...)
}

func (c *Controller) acquire(esc *escalation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return errors.ErrSessionActive
	}
	stop := esc.stop
	s := newSession(c.now(), c.timeout, func(timedOut bool) {
		if timedOut {
			stop()
		}
		c.mu.Lock()
		c.active = nil
		c.mu.Unlock()
	})
	c.active = s
	esc.session = s
	logger.Debug("Escalation session acquired", "session", s.ID)
	return nil
}

func (c *Controller) busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

func (c *Controller) notify(ctx context.Context, title, body string) {
	if c.deps.Notifier == nil {
		return
	}
	if err := c.deps.Notifier.Notify(ctx, title, body); err != nil {
		logger.Warn("Notification failed", "title", title, "error", err)
	}
}

func (c *Controller) resolved(ctx context.Context, l models.Ledger) {
	if c.deps.OnResolved != nil {
		c.deps.OnResolved(ctx, l)
	}
}

// Arm registers the intrusive check-in, keeping a registration that already
// matches the configured time. It falls back to IDLE when the check-in is disabled.
func (c *Controller) Arm(ctx context.Context) error {
	return c.apply(ctx, nil, Event{Kind: EventArm})
}

// Disarm cancels the intrusive check-in.
func (c *Controller) Disarm(ctx context.Context) error {
	return c.apply(ctx, nil, Event{Kind: EventDisarm})
}

// evaluate runs the fired alarm up to the point where the prompt would block.
func (c *Controller) evaluate(ctx context.Context, esc *escalation) (Resolution, bool, error) {
	if c.busy() {
		return "", false, errors.ErrSessionActive
	}
	checked, err := c.deps.Ledger.HasCheckedInToday(ctx)
	if err != nil {
		return "", false, err
	}
	if err := c.apply(ctx, esc, Event{Kind: EventFired}); err != nil {
		return "", false, err
	}

	display := c.deps.Prompt != nil && c.deps.Prompt.Available()
	err = c.apply(ctx, esc, Event{Kind: EventEvaluated, CheckedInToday: checked, Display: display})
	switch {
	case checked:
		logger.Info("Already checked in today, check-in suppressed")
		return ResolutionSuppressed, false, err
	case !display:
		logger.Info("No terminal for the check-in prompt, sent a notification instead")
		return ResolutionNotified, false, err
	}
	if esc.session == nil {
		// another fire won the session; it owns the ESCALATING state
		esc.sound.Stop()
		esc.vibration.Stop()
		return "", false, errors.ErrSessionActive
	}
	return "", esc.prompt, err
}

// run blocks on the prompt and applies its resolution.
func (c *Controller) run(ctx context.Context, esc *escalation) (Resolution, error) {
	defer esc.stop()

	hooks := PromptHooks{
		RelapseDialog: func(open bool) {
			kind := EventRelapseDialogCancelled
			if open {
				kind = EventRelapseDialogOpened
			}
			if err := c.apply(ctx, esc, Event{Kind: kind}); err != nil {
				logger.Warn("Relapse dialog transition failed", "error", err)
			}
		},
		Pulses: esc.pulses,
	}

	res, err := c.deps.Prompt.Run(esc.promptCtx, hooks)
	var event Event
	switch {
	case errors.Is(err, errors.ErrNoDisplay):
		event, res = Event{Kind: EventNoDisplay}, ResolutionNotified
	case err != nil:
		event, res = Event{Kind: EventTimeout}, ResolutionTimeout
	case res == ResolutionSober:
		event = Event{Kind: EventConfirmSober}
	case res == ResolutionRelapse:
		event = Event{Kind: EventConfirmRelapse}
	default:
		event, res = Event{Kind: EventTimeout}, ResolutionTimeout
	}

	logger.Info("Check-in resolved", "resolution", res, "session", esc.session.ID)
	return res, c.apply(ctx, esc, event)
}

// Escalate runs one check-in to completion in the foreground.
func (c *Controller) Escalate(ctx context.Context) (Resolution, error) {
	esc := c.newEscalation(ctx)
	res, prompt, err := c.evaluate(ctx, esc)
	if !prompt {
		esc.stop()
		return res, err
	}
	if err != nil {
		logger.Warn("Escalation started with errors", "error", err)
	}
	return c.run(ctx, esc)
}

// HandleFired is the dispatcher handler for the intrusive check-in. It decides
// within the handler budget and leaves a running prompt in the background.
func (c *Controller) HandleFired(ctx context.Context, a models.Alarm) error {
	if c.busy() {
		logger.Info("Check-in fired while a prompt is active, skipping", "request_id", a.RequestID)
		return nil
	}

	esc := c.newEscalation(c.ctx)
	_, prompt, err := c.evaluate(ctx, esc)
	if !prompt {
		esc.stop()
		if errors.Is(err, errors.ErrSessionActive) {
			return nil
		}
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.run(c.ctx, esc); err != nil {
			logger.Error("Check-in escalation failed", "error", err)
		}
	}()
	return err
}

// Close cancels background escalations and waits for them to resolve.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}
