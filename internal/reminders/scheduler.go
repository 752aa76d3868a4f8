// Package reminders turns reminder preferences into alarm registrations and keeps
// the registry consistent with them. Every registration uses a fixed request id,
// so scheduling any number of times leaves exactly one alarm per reminder.
package reminders

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/julianstephens/soberlit/internal/alarm"
	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/milestones"
	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/storage"
	"github.com/julianstephens/soberlit/internal/utils"
)

// SobrietyCounter is the part of the ledger the scheduler and its handlers read.
type SobrietyCounter interface {
	GetDaysSober(ctx context.Context) (uint32, error)
	HasCheckedInToday(ctx context.Context) (bool, error)
}

// Report describes the outcome of a scheduling pass.
type Report struct {
	Alarms []models.Alarm `json:"alarms"`
	// Degraded is set when at least one alarm fell back to inexact delivery.
	Degraded bool `json:"degraded"`
	// NeedsPermissionPrompt is set the first time delivery degrades, so the caller
	// can tell the user how to allow exact alarms.
	NeedsPermissionPrompt bool `json:"needs_permission_prompt"`
}

func (r *Report) add(a models.Alarm, degraded bool) {
	r.Alarms = append(r.Alarms, a)
	r.Degraded = r.Degraded || degraded
}

type Scheduler struct {
	store    storage.Provider
	registry alarm.Registry
	counter  SobrietyCounter
	loc      atomic.Pointer[time.Location]
	now      utils.Clock
}

func New(store storage.Provider, registry alarm.Registry, counter SobrietyCounter, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		store:    store,
		registry: registry,
		counter:  counter,
		now:      utils.SystemClock,
	}
	s.loc.Store(loc)
	return s
}

// Location returns the timezone reminder clocks are interpreted in.
func (s *Scheduler) Location() *time.Location {
	return s.loc.Load()
}

// SetLocation switches the timezone for later registrations.
func (s *Scheduler) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc.Store(loc)
	}
}

// NextFireTime is the first hour:minute strictly after now; a time that has
// already passed today fires tomorrow.
func (s *Scheduler) NextFireTime(hour, minute int) time.Time {
	return utils.NextOccurrence(s.now(), hour, minute, s.Location())
}

// register tries an exact wake-up first and falls back to an inexact one when exact
// alarms are denied. Denial is reported, never returned.
func (s *Scheduler) register(ctx context.Context, a models.Alarm) (models.Alarm, bool, error) {
	err := s.registry.SetExact(ctx, a)
	if err == nil {
		a.Exact = true
		return a, false, nil
	}
	if !errors.Is(err, errors.ErrExactAlarmDenied) {
		return a, false, err
	}
	logger.Debug("Exact alarm denied, falling back to inexact", "request_id", a.RequestID)
	if err := s.registry.SetInexact(ctx, a); err != nil {
		return a, false, err
	}
	a.Exact = false
	return a, true, nil
}

func (s *Scheduler) daily(kind models.ReminderKind, requestID, hour, minute int, label string) models.Alarm {
	return models.Alarm{
		RequestID: requestID,
		Kind:      kind,
		Label:     label,
		FireAt:    s.NextFireTime(hour, minute),
		Recurring: true,
		Interval:  constants.Day,
	}
}

// ScheduleAll replaces every regular reminder with registrations derived from the
// current preferences and makes sure the intrusive check-in is armed when enabled.
// With the master toggle off it cancels everything.
func (s *Scheduler) ScheduleAll(ctx context.Context) (Report, error) {
	prefs, err := storage.GetReminderPrefs(ctx, s.store)
	if err != nil {
		return Report{}, err
	}
	if !prefs.NotificationsEnabled {
		logger.Info("Notifications disabled, cancelling all reminders")
		return Report{}, s.CancelAll(ctx)
	}

	if err := s.CancelRegular(ctx); err != nil {
		return Report{}, err
	}

	var report Report
	var wanted []models.Alarm
	if prefs.MorningEnabled {
		wanted = append(wanted, s.daily(models.KindMorning, constants.RequestIDMorning, prefs.MorningHour, prefs.MorningMinute, "morning"))
	}
	if prefs.EveningEnabled {
		wanted = append(wanted, s.daily(models.KindEvening, constants.RequestIDEvening, prefs.EveningHour, prefs.EveningMinute, "evening"))
	}
	for i, clock := range prefs.CustomTimes {
		h, m, err := utils.ParseClock(clock)
		if err != nil {
			return report, err
		}
		wanted = append(wanted, s.daily(models.KindCustom, models.CustomRequestID(i+1), h, m, clock))
	}
	if prefs.DailyCheckinEnabled && !prefs.IntrusiveEnabled {
		wanted = append(wanted, s.daily(models.KindDailyCheckin, constants.RequestIDDailyCheckin, prefs.CheckinHour, prefs.CheckinMinute, "check-in"))
	}
	if prefs.MilestoneEnabled {
		m, err := s.milestoneAlarm(ctx, prefs)
		if err != nil {
			return report, err
		}
		wanted = append(wanted, m)
	}

	for _, a := range wanted {
		registered, degraded, err := s.register(ctx, a)
		if err != nil {
			return report, fmt.Errorf("failed to schedule %s reminder: %w", a.Kind, err)
		}
		report.add(registered, degraded)
	}

	if prefs.CheckinIntrusive() {
		armed, degraded, err := s.ensureCheckin(ctx, prefs)
		if err != nil {
			return report, err
		}
		report.add(armed, degraded)
	} else if err := s.registry.Cancel(ctx, constants.RequestIDIntrusiveCheckin); err != nil {
		return report, err
	}

	if err := s.notePermission(ctx, &report); err != nil {
		logger.Warn("Failed to record exact alarm notice", "error", err)
	}
	logger.Info("Reminders scheduled", "count", len(report.Alarms), "degraded", report.Degraded)
	return report, nil
}

func (s *Scheduler) milestoneAlarm(ctx context.Context, prefs models.ReminderPrefs) (models.Alarm, error) {
	days, err := s.counter.GetDaysSober(ctx)
	if err != nil {
		return models.Alarm{}, err
	}
	daysTo := milestones.DaysToNextMilestone(days)
	day := utils.AddCalendarDays(utils.Midnight(s.now(), s.Location()), int(daysTo), s.Location())
	return models.Alarm{
		RequestID: constants.RequestIDMilestone,
		Kind:      models.KindMilestone,
		Label:     fmt.Sprintf("day %d", milestones.NextMilestoneDays(days)),
		FireAt:    time.Date(day.Year(), day.Month(), day.Day(), prefs.MilestoneHour, 0, 0, 0, s.Location()),
	}, nil
}

// ScheduleMilestone re-registers only the one-shot milestone reminder.
func (s *Scheduler) ScheduleMilestone(ctx context.Context) (models.Alarm, error) {
	prefs, err := storage.GetReminderPrefs(ctx, s.store)
	if err != nil {
		return models.Alarm{}, err
	}
	if !prefs.NotificationsEnabled || !prefs.MilestoneEnabled {
		return models.Alarm{}, s.registry.Cancel(ctx, constants.RequestIDMilestone)
	}
	a, err := s.milestoneAlarm(ctx, prefs)
	if err != nil {
		return models.Alarm{}, err
	}
	a, _, err = s.register(ctx, a)
	return a, err
}

func (s *Scheduler) intrusiveRegistration(ctx context.Context) (*models.Alarm, error) {
	alarms, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range alarms {
		if a.RequestID == constants.RequestIDIntrusiveCheckin {
			return &a, nil
		}
	}
	return nil, nil
}

// ensureCheckin keeps an armed check-in that still matches the configured time, so a
// check-in the controller already moved to tomorrow is not pulled back to tonight.
// An inexact registration is upgraded in place once exact alarms are allowed.
func (s *Scheduler) ensureCheckin(ctx context.Context, prefs models.ReminderPrefs) (models.Alarm, bool, error) {
	existing, err := s.intrusiveRegistration(ctx)
	if err != nil {
		return models.Alarm{}, false, err
	}
	if existing == nil || !s.atClock(*existing, prefs.CheckinHour, prefs.CheckinMinute) {
		return s.armCheckin(ctx, prefs)
	}
	if existing.Exact {
		return *existing, false, nil
	}
	canExact, err := s.registry.CanScheduleExact(ctx)
	if err != nil {
		return models.Alarm{}, false, err
	}
	if !canExact {
		return *existing, true, nil
	}
	return s.register(ctx, *existing)
}

func (s *Scheduler) atClock(a models.Alarm, hour, minute int) bool {
	t := a.FireAt.In(s.Location())
	return t.Hour() == hour && t.Minute() == minute
}

func (s *Scheduler) armCheckin(ctx context.Context, prefs models.ReminderPrefs) (models.Alarm, bool, error) {
	a := s.daily(models.KindIntrusiveCheckin, constants.RequestIDIntrusiveCheckin, prefs.CheckinHour, prefs.CheckinMinute, "intrusive check-in")
	return s.register(ctx, a)
}

// ScheduleCheckin (re)arms the intrusive daily check-in for its next occurrence.
// armed is false, and any registration is cancelled, when the check-in is disabled.
func (s *Scheduler) ScheduleCheckin(ctx context.Context) (a models.Alarm, armed bool, err error) {
	prefs, err := storage.GetReminderPrefs(ctx, s.store)
	if err != nil {
		return models.Alarm{}, false, err
	}
	if !prefs.CheckinIntrusive() {
		return models.Alarm{}, false, s.registry.Cancel(ctx, constants.RequestIDIntrusiveCheckin)
	}
	a, _, err = s.armCheckin(ctx, prefs)
	if err != nil {
		return models.Alarm{}, false, err
	}
	return a, true, nil
}

// EnsureCheckin arms the intrusive check-in unless a registration for the
// configured time already exists. armed is false, and any registration is
// cancelled, when the check-in is disabled.
func (s *Scheduler) EnsureCheckin(ctx context.Context) (a models.Alarm, armed bool, err error) {
	prefs, err := storage.GetReminderPrefs(ctx, s.store)
	if err != nil {
		return models.Alarm{}, false, err
	}
	if !prefs.CheckinIntrusive() {
		return models.Alarm{}, false, s.registry.Cancel(ctx, constants.RequestIDIntrusiveCheckin)
	}
	a, _, err = s.ensureCheckin(ctx, prefs)
	if err != nil {
		return models.Alarm{}, false, err
	}
	return a, true, nil
}

// CancelCheckin removes the intrusive check-in registration.
func (s *Scheduler) CancelCheckin(ctx context.Context) error {
	return s.registry.Cancel(ctx, constants.RequestIDIntrusiveCheckin)
}

// CancelAll removes every reminder, the intrusive check-in included.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	return s.cancel(ctx, true)
}

// CancelRegular removes every reminder except the intrusive check-in.
func (s *Scheduler) CancelRegular(ctx context.Context) error {
	return s.cancel(ctx, false)
}

func (s *Scheduler) cancel(ctx context.Context, includeCheckin bool) error {
	ids := map[int]bool{
		constants.RequestIDMorning:      true,
		constants.RequestIDEvening:      true,
		constants.RequestIDMilestone:    true,
		constants.RequestIDDailyCheckin: true,
	}
	for slot := 1; slot <= constants.MaxCustomTimes; slot++ {
		ids[models.CustomRequestID(slot)] = true
	}
	if includeCheckin {
		ids[constants.RequestIDIntrusiveCheckin] = true
	}

	registered, err := s.registry.List(ctx)
	if err != nil {
		return err
	}
	for _, a := range registered {
		if a.RequestID != constants.RequestIDIntrusiveCheckin || includeCheckin {
			ids[a.RequestID] = true
		}
	}

	for id := range ids {
		if err := s.registry.Cancel(ctx, id); err != nil {
			return fmt.Errorf("failed to cancel alarm %d: %w", id, err)
		}
	}
	return nil
}

// notePermission raises the one-time prompt flag the first time delivery degrades
// and re-enables it once exact alarms work again.
func (s *Scheduler) notePermission(ctx context.Context, report *Report) error {
	settings, err := storage.GetSettings(ctx, s.store)
	if err != nil {
		return err
	}
	switch {
	case report.Degraded && !settings.ExactDeniedNotified:
		report.NeedsPermissionPrompt = true
		settings.ExactDeniedNotified = true
	case !report.Degraded && settings.ExactDeniedNotified && len(report.Alarms) > 0:
		settings.ExactDeniedNotified = false
	default:
		return nil
	}
	return storage.SaveSettings(ctx, s.store, settings)
}
