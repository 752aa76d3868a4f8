package reminders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/soberlit/internal/alarm"
	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/milestones"
	"github.com/julianstephens/soberlit/internal/models"
)

type recordingNotifier struct {
	titles []string
	bodies []string
}

func (r *recordingNotifier) Notify(_ context.Context, title, body string) error {
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, body)
	return nil
}

func setupHandlers(t *testing.T) (*fixture, *Handlers, *recordingNotifier, *alarm.Dispatcher) {
	f := setup(t)
	rec := &recordingNotifier{}
	h := &Handlers{
		Scheduler:  f.sched,
		Counter:    f.counter,
		Milestones: milestones.New(f.store, time.UTC),
		Notifier:   rec,
	}
	d := alarm.NewDispatcher(f.registry)
	h.Register(d)
	return f, h, rec, d
}

func TestDailyCheckinSkippedWhenConfirmed(t *testing.T) {
	_, h, rec, _ := setupHandlers(t)
	ctx := context.Background()

	h.Counter.(*fakeCounter).checkedIn = true
	if err := h.dailyCheckin(ctx, models.Alarm{}); err != nil {
		t.Fatalf("dailyCheckin failed: %v", err)
	}
	if len(rec.titles) != 0 {
		t.Errorf("notified despite check-in: %v", rec.titles)
	}

	h.Counter.(*fakeCounter).checkedIn = false
	h.dailyCheckin(ctx, models.Alarm{})
	if len(rec.titles) != 1 {
		t.Errorf("expected one notification, got %v", rec.titles)
	}
}

func TestMilestoneHandlerNotifiesAndReschedules(t *testing.T) {
	f, _, rec, d := setupHandlers(t)
	ctx := context.Background()
	f.counter.days = 7

	milestoneDay := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	f.registry.SetExact(ctx, models.Alarm{
		RequestID: constants.RequestIDMilestone,
		Kind:      models.KindMilestone,
		FireAt:    milestoneDay,
	})

	n, err := d.DispatchDue(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DispatchDue = %d, %v", n, err)
	}
	if len(rec.bodies) != 1 || !strings.Contains(rec.bodies[0], "One Week") {
		t.Errorf("notifications = %v", rec.bodies)
	}

	next, ok := f.alarmsByID(t)[constants.RequestIDMilestone]
	if !ok {
		t.Fatal("next milestone not scheduled")
	}
	if want := milestoneDay.AddDate(0, 0, 7); !next.FireAt.Equal(want) {
		t.Errorf("next milestone at %v, want %v", next.FireAt, want)
	}
}

func TestMorningHandlerMentionsDays(t *testing.T) {
	_, h, rec, _ := setupHandlers(t)
	if err := h.morning(context.Background(), models.Alarm{}); err != nil {
		t.Fatalf("morning failed: %v", err)
	}
	if len(rec.bodies) != 1 || !strings.Contains(rec.bodies[0], "Day 5") {
		t.Errorf("notifications = %v", rec.bodies)
	}
}
