package escalation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/notifier"
)

type fakeLedger struct {
	mu       sync.Mutex
	checked  bool
	confirms int
	resets   int
	err      error
}

func (f *fakeLedger) HasCheckedInToday(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checked, nil
}

func (f *fakeLedger) ConfirmForToday(ctx context.Context) (models.Ledger, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Ledger{}, false, f.err
	}
	f.confirms++
	f.checked = true
	return models.Ledger{ConfirmedDayCount: 6, CurrentStreak: 2}, true, nil
}

func (f *fakeLedger) ResetCounter(ctx context.Context) (models.Ledger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return models.Ledger{ConfirmedDayCount: 1}, nil
}

type fakeScheduler struct {
	mu       sync.Mutex
	enabled  bool
	arms     int
	cancels  int
	armedErr error
}

func (f *fakeScheduler) ScheduleCheckin(ctx context.Context) (models.Alarm, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.armedErr != nil {
		return models.Alarm{}, false, f.armedErr
	}
	if !f.enabled {
		return models.Alarm{}, false, nil
	}
	f.arms++
	return models.Alarm{RequestID: 1005}, true, nil
}

func (f *fakeScheduler) EnsureCheckin(ctx context.Context) (models.Alarm, bool, error) {
	return f.ScheduleCheckin(ctx)
}

func (f *fakeScheduler) CancelCheckin(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return nil
}

func (f *fakeScheduler) armCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.arms
}

type fakePrompt struct {
	available bool
	calls     atomic.Int32
	run       func(ctx context.Context, hooks PromptHooks) (Resolution, error)
}

func (f *fakePrompt) Available() bool { return f.available }

func (f *fakePrompt) Run(ctx context.Context, hooks PromptHooks) (Resolution, error) {
	f.calls.Add(1)
	return f.run(ctx, hooks)
}

type fakeBuddy struct {
	mu       sync.Mutex
	payloads []notifier.BuddyPayload
}

func (f *fakeBuddy) SendAsync(p notifier.BuddyPayload) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	done := make(chan struct{})
	close(done)
	return done
}

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (f *fakeNotifier) Notify(ctx context.Context, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	return nil
}

type countingWriter struct {
	n atomic.Int32
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n.Add(1)
	return len(p), nil
}

type fixture struct {
	ledger    *fakeLedger
	scheduler *fakeScheduler
	prompt    *fakePrompt
	buddy     *fakeBuddy
	notifier  *fakeNotifier
	bell      *countingWriter
	ctrl      *Controller
}

func setup(t *testing.T, run func(ctx context.Context, hooks PromptHooks) (Resolution, error)) *fixture {
	t.Helper()
	f := &fixture{
		ledger:    &fakeLedger{},
		scheduler: &fakeScheduler{enabled: true},
		prompt:    &fakePrompt{available: true, run: run},
		buddy:     &fakeBuddy{},
		notifier:  &fakeNotifier{},
		bell:      &countingWriter{},
	}
	f.ctrl = New(Deps{
		Ledger:    f.ledger,
		Scheduler: f.scheduler,
		Prompt:    f.prompt,
		Notifier:  f.notifier,
		Buddy:     f.buddy,
		Bell:      f.bell,
	})
	t.Cleanup(f.ctrl.Close)
	if err := f.ctrl.Arm(context.Background()); err != nil {
		t.Fatalf("Arm() error = %v", err)
	}
	return f
}

func answer(r Resolution) func(context.Context, PromptHooks) (Resolution, error) {
	return func(context.Context, PromptHooks) (Resolution, error) { return r, nil }
}

func TestStep(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		event   Event
		want    State
		effects []Effect
		wantErr bool
	}{
		{"arm from idle", StateIdle, Event{Kind: EventArm}, StateArmed, []Effect{EffectEnsureCheckin}, false},
		{"arm after failed re-arm", StateResolved, Event{Kind: EventArm}, StateArmed, []Effect{EffectEnsureCheckin}, false},
		{"disarm", StateArmed, Event{Kind: EventDisarm}, StateIdle, []Effect{EffectCancelCheckin}, false},
		{"disarm while escalating", StateEscalating, Event{Kind: EventDisarm}, StateEscalating, []Effect{EffectCancelCheckin}, false},
		{"fire", StateArmed, Event{Kind: EventFired}, StateFired, nil, false},
		{"already checked in", StateFired, Event{Kind: EventEvaluated, CheckedInToday: true, Display: true}, StateSuppressed, []Effect{EffectScheduleCheckin}, false},
		{"no display", StateFired, Event{Kind: EventEvaluated}, StateResolved, []Effect{EffectNotifyUser, EffectScheduleCheckin}, false},
		{"escalate", StateFired, Event{Kind: EventEvaluated, Display: true}, StateEscalating, []Effect{EffectAcquireSession, EffectShowPrompt, EffectStartFeedback}, false},
		{"dismiss refused", StateEscalating, Event{Kind: EventDismiss}, StateEscalating, nil, false},
		{"relapse dialog pauses", StateEscalating, Event{Kind: EventRelapseDialogOpened}, StateEscalating, []Effect{EffectPauseFeedback}, false},
		{"relapse dialog cancel resumes", StateEscalating, Event{Kind: EventRelapseDialogCancelled}, StateEscalating, []Effect{EffectResumeFeedback}, false},
		{"sober", StateEscalating, Event{Kind: EventConfirmSober}, StateResolved, []Effect{EffectStopFeedback, EffectReleaseSession, EffectConfirmLedger, EffectScheduleCheckin, EffectNotifyBuddy}, false},
		{"relapse", StateEscalating, Event{Kind: EventConfirmRelapse}, StateResolved, []Effect{EffectStopFeedback, EffectReleaseSession, EffectResetLedger, EffectScheduleCheckin, EffectNotifyBuddy}, false},
		{"timeout", StateEscalating, Event{Kind: EventTimeout}, StateResolved, []Effect{EffectStopFeedback, EffectReleaseSession, EffectLogTimeout, EffectScheduleCheckin}, false},
		{"rearmed", StateResolved, Event{Kind: EventRearmed}, StateArmed, nil, false},
		{"suppressed rearmed", StateSuppressed, Event{Kind: EventRearmed}, StateArmed, nil, false},
		{"fire while escalating", StateEscalating, Event{Kind: EventFired}, StateEscalating, nil, false},
		{"confirm without prompt", StateArmed, Event{Kind: EventConfirmSober}, StateArmed, nil, true},
		{"evaluate without fire", StateArmed, Event{Kind: EventEvaluated}, StateArmed, nil, true},
		{"arm while escalating", StateEscalating, Event{Kind: EventArm}, StateEscalating, nil, false},
		{"dismiss while armed", StateArmed, Event{Kind: EventDismiss}, StateArmed, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, effects, err := Step(tt.from, tt.event)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Step() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Step() error = %v, want ErrInvalidTransition", err)
			}
			if got != tt.want {
				t.Errorf("Step() state = %s, want %s", got, tt.want)
			}
			if len(effects) != len(tt.effects) {
				t.Fatalf("Step() effects = %v, want %v", effects, tt.effects)
			}
			for i := range effects {
				if effects[i] != tt.effects[i] {
					t.Errorf("effect[%d] = %s, want %s", i, effects[i], tt.effects[i])
				}
			}
		})
	}
}

func TestEscalateSuppressedWhenCheckedIn(t *testing.T) {
	f := setup(t, answer(ResolutionSober))
	f.ledger.checked = true

	res, err := f.ctrl.Escalate(context.Background())
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if res != ResolutionSuppressed {
		t.Errorf("resolution = %s, want %s", res, ResolutionSuppressed)
	}
	if f.prompt.calls.Load() != 0 {
		t.Error("prompt shown although the user already checked in")
	}
	if f.ledger.confirms != 0 {
		t.Errorf("confirms = %d, want 0", f.ledger.confirms)
	}
	if f.ctrl.State() != StateArmed {
		t.Errorf("state = %s, want ARMED", f.ctrl.State())
	}
	if f.scheduler.armCount() != 2 {
		t.Errorf("arms = %d, want 2 (arm + re-arm)", f.scheduler.armCount())
	}
	if n := f.bell.n.Load(); n != 0 {
		t.Errorf("bell rang %d times", n)
	}
}

func TestEscalateSober(t *testing.T) {
	var stateDuring State
	var f *fixture
	f = setup(t, func(ctx context.Context, hooks PromptHooks) (Resolution, error) {
		stateDuring = f.ctrl.State()
		if _, ok := f.ctrl.Active(); !ok {
			t.Error("no active session while the prompt is up")
		}
		return ResolutionSober, nil
	})

	res, err := f.ctrl.Escalate(context.Background())
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if res != ResolutionSober {
		t.Errorf("resolution = %s, want sober", res)
	}
	if stateDuring != StateEscalating {
		t.Errorf("state during prompt = %s, want ESCALATING", stateDuring)
	}
	if f.ledger.confirms != 1 {
		t.Errorf("confirms = %d, want 1", f.ledger.confirms)
	}
	if f.ctrl.State() != StateArmed {
		t.Errorf("state = %s, want ARMED", f.ctrl.State())
	}
	if _, ok := f.ctrl.Active(); ok {
		t.Error("session still active after resolution")
	}
	if len(f.buddy.payloads) != 1 || f.buddy.payloads[0].Event != notifier.BuddyEventSober || f.buddy.payloads[0].DaysSober != 6 {
		t.Errorf("buddy payloads = %+v", f.buddy.payloads)
	}
}

// waitForBells polls until the bell has rung at least min times.
func waitForBells(t *testing.T, w *countingWriter, min int32) int32 {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if n := w.n.Load(); n >= min {
			return n
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("bell rang %d times, want at least %d", w.n.Load(), min)
	return 0
}

func TestEscalateRelapseAfterCancelledDialog(t *testing.T) {
	var f *fixture
	f = setup(t, func(ctx context.Context, hooks PromptHooks) (Resolution, error) {
		started := waitForBells(t, f.bell, 1)

		hooks.RelapseDialog(true)
		if f.ctrl.State() != StateEscalating {
			t.Errorf("state with dialog open = %s", f.ctrl.State())
		}
		paused := f.bell.n.Load()
		time.Sleep(20 * time.Millisecond)
		if got := f.bell.n.Load(); got != paused {
			t.Errorf("bell rang %d times while the relapse dialog was open", got-paused)
		}
		if paused != started {
			t.Errorf("bell count moved from %d to %d when the dialog opened", started, paused)
		}

		hooks.RelapseDialog(false)
		waitForBells(t, f.bell, paused+1)

		hooks.RelapseDialog(true)
		return ResolutionRelapse, nil
	})

	res, err := f.ctrl.Escalate(context.Background())
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if res != ResolutionRelapse {
		t.Errorf("resolution = %s, want relapse", res)
	}
	if f.ledger.resets != 1 || f.ledger.confirms != 0 {
		t.Errorf("resets = %d confirms = %d, want 1 and 0", f.ledger.resets, f.ledger.confirms)
	}
	if len(f.buddy.payloads) != 1 || f.buddy.payloads[0].Event != notifier.BuddyEventRelapse {
		t.Errorf("buddy payloads = %+v", f.buddy.payloads)
	}
	if f.ctrl.State() != StateArmed {
		t.Errorf("state = %s, want ARMED", f.ctrl.State())
	}
}

func TestEscalateTimeout(t *testing.T) {
	f := setup(t, func(ctx context.Context, hooks PromptHooks) (Resolution, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	f.ctrl.timeout = 20 * time.Millisecond

	res, err := f.ctrl.Escalate(context.Background())
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if res != ResolutionTimeout {
		t.Errorf("resolution = %s, want timeout", res)
	}
	if f.ledger.confirms != 0 || f.ledger.resets != 0 {
		t.Error("ledger mutated on timeout")
	}
	if _, ok := f.ctrl.Active(); ok {
		t.Error("session still active after timeout")
	}
	if f.ctrl.State() != StateArmed {
		t.Errorf("state = %s, want ARMED", f.ctrl.State())
	}
	if len(f.buddy.payloads) != 0 {
		t.Error("buddy notified on timeout")
	}
}

func TestEscalateWithoutDisplayNotifies(t *testing.T) {
	f := setup(t, answer(ResolutionSober))
	f.prompt.available = false

	res, err := f.ctrl.Escalate(context.Background())
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if res != ResolutionNotified {
		t.Errorf("resolution = %s, want notified", res)
	}
	if len(f.notifier.titles) != 1 {
		t.Errorf("notifications = %v, want one", f.notifier.titles)
	}
	if f.ctrl.State() != StateArmed {
		t.Errorf("state = %s, want ARMED", f.ctrl.State())
	}
}

func TestEscalatePromptReportsNoDisplay(t *testing.T) {
	f := setup(t, func(context.Context, PromptHooks) (Resolution, error) {
		return "", errors.ErrNoDisplay
	})

	res, err := f.ctrl.Escalate(context.Background())
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if res != ResolutionNotified {
		t.Errorf("resolution = %s, want notified", res)
	}
	if _, ok := f.ctrl.Active(); ok {
		t.Error("session leaked after display failure")
	}
}

func TestConfirmFailureStillRearms(t *testing.T) {
	f := setup(t, answer(ResolutionSober))
	f.ledger.err = errors.ErrStoreUnavailable

	_, err := f.ctrl.Escalate(context.Background())
	if !errors.Is(err, errors.ErrStoreUnavailable) {
		t.Fatalf("Escalate() error = %v, want ErrStoreUnavailable", err)
	}
	if f.ctrl.State() != StateArmed {
		t.Errorf("state = %s, want ARMED", f.ctrl.State())
	}
	if len(f.buddy.payloads) != 0 {
		t.Error("buddy notified about an unsaved check-in")
	}
	if len(f.notifier.titles) != 1 {
		t.Errorf("notifications = %v, want one warning", f.notifier.titles)
	}
}

func TestRearmWithCheckinDisabledGoesIdle(t *testing.T) {
	f := setup(t, answer(ResolutionSober))
	f.scheduler.enabled = false

	if _, err := f.ctrl.Escalate(context.Background()); err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if f.ctrl.State() != StateIdle {
		t.Errorf("state = %s, want IDLE", f.ctrl.State())
	}
}

func TestArmWithCheckinDisabledStaysIdle(t *testing.T) {
	f := setup(t, answer(ResolutionSober))
	if f.ctrl.State() != StateArmed {
		t.Fatalf("state after Arm = %s, want ARMED", f.ctrl.State())
	}

	f.scheduler.enabled = false
	if err := f.ctrl.Arm(context.Background()); err != nil {
		t.Fatalf("Arm() error = %v", err)
	}
	if f.ctrl.State() != StateIdle {
		t.Errorf("state = %s, want IDLE", f.ctrl.State())
	}
	if f.scheduler.cancels != 1 {
		t.Errorf("cancels = %d, want 1", f.scheduler.cancels)
	}
}

func TestDisarmDuringPromptKeepsEscalating(t *testing.T) {
	var f *fixture
	f = setup(t, func(ctx context.Context, hooks PromptHooks) (Resolution, error) {
		if err := f.ctrl.Disarm(ctx); err != nil {
			t.Errorf("Disarm() error = %v", err)
		}
		if f.ctrl.State() != StateEscalating {
			t.Errorf("state after Disarm = %s, want ESCALATING", f.ctrl.State())
		}
		f.scheduler.enabled = false
		return ResolutionSober, nil
	})

	if _, err := f.ctrl.Escalate(context.Background()); err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}
	if f.ledger.confirms != 1 {
		t.Errorf("confirms = %d, want 1", f.ledger.confirms)
	}
	if f.ctrl.State() != StateIdle {
		t.Errorf("state = %s, want IDLE", f.ctrl.State())
	}
}

func TestHandleFiredSkipsWhileActive(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	f := setup(t, func(ctx context.Context, hooks PromptHooks) (Resolution, error) {
		close(started)
		select {
		case <-release:
			return ResolutionSober, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	alarm := models.Alarm{RequestID: 1005, Kind: models.KindIntrusiveCheckin}

	if err := f.ctrl.HandleFired(context.Background(), alarm); err != nil {
		t.Fatalf("HandleFired() error = %v", err)
	}
	<-started

	if err := f.ctrl.HandleFired(context.Background(), alarm); err != nil {
		t.Fatalf("second HandleFired() error = %v", err)
	}
	if _, err := f.ctrl.Escalate(context.Background()); !errors.Is(err, errors.ErrSessionActive) {
		t.Errorf("Escalate() error = %v, want ErrSessionActive", err)
	}

	close(release)
	f.ctrl.Close()

	if got := f.prompt.calls.Load(); got != 1 {
		t.Errorf("prompt calls = %d, want 1", got)
	}
	if f.ledger.confirms != 1 {
		t.Errorf("confirms = %d, want 1", f.ledger.confirms)
	}
}

func TestCloseResolvesBackgroundPrompt(t *testing.T) {
	f := setup(t, func(ctx context.Context, hooks PromptHooks) (Resolution, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	if err := f.ctrl.HandleFired(context.Background(), models.Alarm{RequestID: 1005}); err != nil {
		t.Fatalf("HandleFired() error = %v", err)
	}
	f.ctrl.Close()

	if _, ok := f.ctrl.Active(); ok {
		t.Error("session still active after Close")
	}
}

func TestSessionReleasesOnce(t *testing.T) {
	var releases atomic.Int32
	var timedOut atomic.Bool
	s := newSession(time.Now(), 20*time.Millisecond, func(to bool) {
		releases.Add(1)
		timedOut.Store(to)
	})

	if !s.Release() {
		t.Error("first Release() = false")
	}
	if s.Release() {
		t.Error("second Release() = true")
	}
	time.Sleep(50 * time.Millisecond)

	if got := releases.Load(); got != 1 {
		t.Errorf("releases = %d, want 1", got)
	}
	if timedOut.Load() {
		t.Error("explicit release reported as timeout")
	}
	if s.Active {
		t.Error("session still marked active")
	}
}

func TestSessionTimeoutReleases(t *testing.T) {
	var timedOut atomic.Bool
	s := newSession(time.Now(), 10*time.Millisecond, func(to bool) { timedOut.Store(to) })

	select {
	case <-s.Released():
	case <-time.After(time.Second):
		t.Fatal("session not released by its timeout")
	}
	if !timedOut.Load() {
		t.Error("timeout release not reported")
	}
	if s.Release() {
		t.Error("Release() after timeout = true")
	}
}

func TestLoopStartStop(t *testing.T) {
	var running atomic.Int32
	l := NewLoop("test", func(ctx context.Context) {
		running.Add(1)
		<-ctx.Done()
		running.Add(-1)
	})

	l.Start(context.Background())
	l.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	if got := running.Load(); got != 1 {
		t.Errorf("running = %d, want 1", got)
	}

	l.Stop()
	if got := running.Load(); got != 0 {
		t.Errorf("running after Stop = %d, want 0", got)
	}
	if l.Running() {
		t.Error("Running() = true after Stop")
	}
	l.Stop()
}

func TestSoundLoopRings(t *testing.T) {
	w := &countingWriter{}
	l := SoundLoop(w, 5*time.Millisecond)
	l.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	l.Stop()

	if w.n.Load() < 2 {
		t.Errorf("bell rang %d times, want at least 2", w.n.Load())
	}
}
