package reminders

import (
	"context"
	"fmt"

	"github.com/julianstephens/soberlit/internal/alarm"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/milestones"
	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/notifier"
)

// Handlers deliver the regular reminder kinds. The intrusive check-in belongs to
// the escalation controller.
type Handlers struct {
	Scheduler  *Scheduler
	Counter    SobrietyCounter
	Milestones *milestones.Engine
	Notifier   notifier.Notifier
}

func (h *Handlers) Register(d *alarm.Dispatcher) {
	d.Handle(models.KindMorning, h.morning)
	d.Handle(models.KindEvening, h.evening)
	d.Handle(models.KindCustom, h.custom)
	d.Handle(models.KindDailyCheckin, h.dailyCheckin)
	d.Handle(models.KindMilestone, h.milestone)
}

// notify never fails the handler; a lost reminder must not affect scheduling.
func (h *Handlers) notify(ctx context.Context, title, body string) {
	if err := h.Notifier.Notify(ctx, title, body); err != nil {
		logger.Warn("Failed to deliver notification", "title", title, "error", err)
	}
}

func (h *Handlers) morning(ctx context.Context, _ models.Alarm) error {
	days, err := h.Counter.GetDaysSober(ctx)
	if err != nil {
		return err
	}
	h.notify(ctx, "Good morning", fmt.Sprintf("Day %d. One day at a time.", days))
	return nil
}

func (h *Handlers) evening(ctx context.Context, _ models.Alarm) error {
	h.notify(ctx, "Evening reminder", "Take a moment to reflect on today.")
	return nil
}

func (h *Handlers) custom(ctx context.Context, a models.Alarm) error {
	h.notify(ctx, "Reminder", fmt.Sprintf("Your %s reminder.", a.Label))
	return nil
}

func (h *Handlers) dailyCheckin(ctx context.Context, _ models.Alarm) error {
	done, err := h.Counter.HasCheckedInToday(ctx)
	if err != nil {
		return err
	}
	if done {
		logger.Debug("Already checked in today, skipping reminder")
		return nil
	}
	h.notify(ctx, "Daily check-in", "Did you stay sober today? Run `soberlit confirm` to check in.")
	return nil
}

func (h *Handlers) milestone(ctx context.Context, _ models.Alarm) error {
	days, err := h.Counter.GetDaysSober(ctx)
	if err != nil {
		return err
	}
	today, _, err := h.Milestones.CheckTimeAchievements(ctx, days)
	if err != nil {
		return err
	}
	if today != nil {
		h.notify(ctx, "Milestone reached", fmt.Sprintf("%s: %d days sober.", today.Title, days))
	}

	if _, err := h.Scheduler.ScheduleMilestone(ctx); err != nil {
		return fmt.Errorf("failed to schedule next milestone: %w", err)
	}
	return nil
}
