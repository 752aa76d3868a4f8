// Package app wires the services every command and the daemon share.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/julianstephens/soberlit/internal/alarm"
	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/escalation"
	"github.com/julianstephens/soberlit/internal/ledger"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/milestones"
	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/notifier"
	"github.com/julianstephens/soberlit/internal/reminders"
	"github.com/julianstephens/soberlit/internal/storage"
	"github.com/julianstephens/soberlit/internal/tui"
	"github.com/julianstephens/soberlit/internal/utils"
)

type App struct {
	Store      storage.Provider
	Ledger     *ledger.Service
	Milestones *milestones.Engine
	Registry   *alarm.StoreRegistry
	Reminders  *reminders.Scheduler
	Dispatcher *alarm.Dispatcher
	Notifier   notifier.Notifier
	Buddy      *notifier.Buddy
	Escalation *escalation.Controller

	mu       sync.RWMutex
	settings models.Settings
	loc      *time.Location
}

// New wires the services on top of a loaded store.
func New(ctx context.Context, store storage.Provider) (*App, error) {
	settings, err := storage.GetSettings(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	loc := resolveLocation(settings.Timezone)
	tray := notifier.NewTray(filepath.Join(ConfigDir(store), constants.NotifierLockfileName))

	a := &App{
		Store:      store,
		Ledger:     ledger.New(store, loc),
		Milestones: milestones.New(store, loc),
		Registry:   alarm.NewStoreRegistry(store, alarm.CurrentBootID()),
		Notifier:   notifier.Fallback{tray, notifier.NewConsole(os.Stderr)},
		Buddy:      notifier.NewBuddy(settings.BuddyWebhookURL, settings.BuddyName),
		settings:   settings,
		loc:        loc,
	}
	a.Reminders = reminders.New(store, a.Registry, a.Ledger, loc)
	a.Escalation = escalation.New(escalation.Deps{
		Ledger:     a.Ledger,
		Scheduler:  a.Reminders,
		Prompt:     tui.NewPrompt(a.promptStatus),
		Notifier:   a.Notifier,
		Buddy:      a.Buddy,
		OnResolved: a.afterLedgerChange,
	})

	a.Dispatcher = alarm.NewDispatcher(a.Registry)
	a.Dispatcher.UseLocation(a.Location)
	a.Dispatcher.BeforeDispatch(a.Refresh)
	handlers := &reminders.Handlers{
		Scheduler:  a.Reminders,
		Counter:    a.Ledger,
		Milestones: a.Milestones,
		Notifier:   a.Notifier,
	}
	handlers.Register(a.Dispatcher)
	a.Dispatcher.Handle(models.KindIntrusiveCheckin, a.Escalation.HandleFired)

	return a, nil
}

func resolveLocation(timezone string) *time.Location {
	loc, err := utils.LoadLocation(timezone)
	if err != nil {
		logger.Warn("Invalid timezone in settings, using local time", "timezone", timezone, "error", err)
		return time.Local
	}
	return loc
}

// Close stops background escalations and waits for pending buddy notifications.
// The store is closed by its owner.
func (a *App) Close() {
	a.Escalation.Close()
	a.Buddy.Wait()
}

// Settings returns the settings as last read from the store.
func (a *App) Settings() models.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Location returns the configured timezone.
func (a *App) Location() *time.Location {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loc
}

// Refresh re-reads settings so a long-running process follows changes made by
// other commands.
func (a *App) Refresh(ctx context.Context) error {
	settings, err := storage.GetSettings(ctx, a.Store)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	a.mu.Lock()
	prev := a.settings
	loc := a.loc
	if settings.Timezone != prev.Timezone {
		loc = resolveLocation(settings.Timezone)
		logger.Info("Timezone changed", "from", prev.Timezone, "to", settings.Timezone)
	}
	a.settings, a.loc = settings, loc
	a.mu.Unlock()

	a.Ledger.SetLocation(loc)
	a.Milestones.SetLocation(loc)
	a.Reminders.SetLocation(loc)
	a.Buddy.Configure(settings.BuddyWebhookURL, settings.BuddyName)
	return nil
}

func (a *App) promptStatus(ctx context.Context) (tui.Status, error) {
	snap, err := a.Ledger.Snapshot(ctx)
	if err != nil {
		return tui.Status{}, err
	}
	return tui.Status{
		DaysSober: snap.DaysSober,
		Streak:    snap.CurrentStreak,
		BestRun:   snap.BestStreak,
	}, nil
}

// Boot drops alarms left over from a previous boot and re-registers reminders.
func (a *App) Boot(ctx context.Context) (reminders.Report, error) {
	pruned, err := a.Registry.PruneStale(ctx)
	if err != nil {
		return reminders.Report{}, err
	}
	if pruned > 0 {
		logger.Info("Pruned alarms from a previous boot", "count", pruned)
	}
	return a.ScheduleAll(ctx)
}

// ScheduleAll re-registers every reminder and hands the intrusive check-in to the
// escalation controller, which ends ARMED when it is enabled and IDLE otherwise.
func (a *App) ScheduleAll(ctx context.Context) (reminders.Report, error) {
	if err := a.Refresh(ctx); err != nil {
		return reminders.Report{}, err
	}
	report, err := a.Reminders.ScheduleAll(ctx)
	if err != nil {
		return report, err
	}
	if err := a.Escalation.Arm(ctx); err != nil {
		return report, fmt.Errorf("failed to arm check-in: %w", err)
	}
	return report, nil
}

// CancelReminders removes the regular reminders and, unless keepCheckin is set,
// disarms the intrusive check-in.
func (a *App) CancelReminders(ctx context.Context, keepCheckin bool) error {
	if err := a.Reminders.CancelRegular(ctx); err != nil {
		return err
	}
	if keepCheckin {
		return nil
	}
	if err := a.Escalation.Disarm(ctx); err != nil {
		return fmt.Errorf("failed to disarm check-in: %w", err)
	}
	return nil
}

// Reevaluate unlocks every achievement the current ledger qualifies for and
// notifies about each new one.
func (a *App) Reevaluate(ctx context.Context) ([]models.Achievement, error) {
	snap, err := a.Ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var unlocked []models.Achievement
	_, timeUnlocked, err := a.Milestones.CheckTimeAchievements(ctx, snap.DaysSober)
	if err != nil {
		return nil, err
	}
	unlocked = append(unlocked, timeUnlocked...)

	saved := a.Settings().DailyCost * float64(snap.ConfirmedDaysSober)
	financial, err := a.Milestones.CheckFinancialAchievements(ctx, saved)
	if err != nil {
		return unlocked, err
	}
	unlocked = append(unlocked, financial...)

	streak, err := a.Milestones.CheckStreakAchievements(ctx, snap.CurrentStreak)
	if err != nil {
		return unlocked, err
	}
	unlocked = append(unlocked, streak...)

	a.announce(ctx, unlocked)
	return unlocked, nil
}

func (a *App) announce(ctx context.Context, unlocked []models.Achievement) {
	for _, ach := range unlocked {
		if err := a.Notifier.Notify(ctx, "Achievement unlocked", ach.Title); err != nil {
			logger.Warn("Failed to announce achievement", "id", ach.ID, "error", err)
		}
	}
}

// afterLedgerChange keeps achievements and the milestone reminder in step with the
// ledger. Failures are logged; the ledger change itself already succeeded.
func (a *App) afterLedgerChange(ctx context.Context, _ models.Ledger) {
	if _, err := a.Reevaluate(ctx); err != nil {
		logger.Warn("Failed to re-evaluate achievements", "error", err)
	}
	if _, err := a.Reminders.ScheduleMilestone(ctx); err != nil {
		logger.Warn("Failed to reschedule milestone reminder", "error", err)
	}
}

// Confirm credits today outside the escalation prompt.
func (a *App) Confirm(ctx context.Context) (models.Ledger, bool, error) {
	l, changed, err := a.Ledger.ConfirmForToday(ctx)
	if err != nil || !changed {
		return l, changed, err
	}
	a.afterLedgerChange(ctx, l)
	a.Buddy.SendAsync(notifier.BuddyPayload{
		Event:     notifier.BuddyEventSober,
		DaysSober: l.ConfirmedDayCount,
		Streak:    l.CurrentStreak,
	})
	return l, true, nil
}

// Relapse resets the counter. Unlocked achievements are kept.
func (a *App) Relapse(ctx context.Context) (models.Ledger, error) {
	l, err := a.Ledger.ResetCounter(ctx)
	if err != nil {
		return l, err
	}
	a.afterLedgerChange(ctx, l)
	a.Buddy.SendAsync(notifier.BuddyPayload{
		Event:     notifier.BuddyEventRelapse,
		DaysSober: l.ConfirmedDayCount,
		Streak:    l.CurrentStreak,
	})
	return l, nil
}

// SetStartDate moves the start date, optionally recomputing the confirmed count.
func (a *App) SetStartDate(ctx context.Context, start time.Time, reinitialize bool) (models.Ledger, error) {
	var (
		l   models.Ledger
		err error
	)
	if reinitialize {
		l, err = a.Ledger.SetStartDateAndReinitialize(ctx, start)
	} else {
		l, err = a.Ledger.SetStartDate(ctx, start)
	}
	if err != nil {
		return l, err
	}
	a.afterLedgerChange(ctx, l)
	return l, nil
}

// RecordJournal evaluates journal achievements for the given entry timestamps.
func (a *App) RecordJournal(ctx context.Context, entries []time.Time) ([]models.Achievement, error) {
	unlocked, err := a.Milestones.CheckJournalAchievements(ctx, entries)
	if err != nil {
		return nil, err
	}
	a.announce(ctx, unlocked)
	return unlocked, nil
}

// Wipe erases the ledger, achievements and every alarm.
func (a *App) Wipe(ctx context.Context) error {
	if err := a.CancelReminders(ctx, false); err != nil {
		return fmt.Errorf("failed to cancel reminders: %w", err)
	}
	if err := a.Milestones.Reset(ctx); err != nil {
		return err
	}
	return a.Ledger.Wipe(ctx)
}

// Status is the summary shown by the status command and served over HTTP.
type Status struct {
	Ledger        models.LedgerSnapshot `json:"ledger"`
	Next          *models.Achievement   `json:"next_milestone,omitempty"`
	DaysToNext    uint32                `json:"days_to_next_milestone"`
	Progress      float64               `json:"milestone_progress"`
	MoneySaved    float64               `json:"money_saved"`
	CheckinArmed  bool                  `json:"checkin_armed"`
	NextCheckinAt *time.Time            `json:"next_checkin_at,omitempty"`
}

func (a *App) Status(ctx context.Context) (Status, error) {
	snap, err := a.Ledger.Snapshot(ctx)
	if err != nil {
		return Status{}, err
	}
	progress, err := a.Milestones.MilestoneProgress(ctx, snap.DaysSober)
	if err != nil {
		return Status{}, err
	}
	st := Status{
		Ledger:     snap,
		Next:       milestones.GetNextMilestone(snap.DaysSober),
		DaysToNext: milestones.DaysToNextMilestone(snap.DaysSober),
		Progress:   progress,
		MoneySaved: a.Settings().DailyCost * float64(snap.ConfirmedDaysSober),
	}

	alarms, err := a.Registry.List(ctx)
	if err != nil {
		return st, err
	}
	for _, al := range alarms {
		if al.Kind == models.KindIntrusiveCheckin {
			at := alarm.DeliveryTime(al)
			st.CheckinArmed, st.NextCheckinAt = true, &at
		}
	}
	return st, nil
}
