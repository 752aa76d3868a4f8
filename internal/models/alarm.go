package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/soberlit/internal/constants"
)

// ReminderKind identifies what a registered alarm is for
type ReminderKind string

const (
	KindMorning          ReminderKind = "morning"
	KindEvening          ReminderKind = "evening"
	KindCustom           ReminderKind = "custom"
	KindMilestone        ReminderKind = "milestone"
	KindDailyCheckin     ReminderKind = "daily-checkin"
	KindIntrusiveCheckin ReminderKind = "intrusive-checkin"
)

// Alarm is one registration in the alarm registry. RequestID is the replace key:
// registering the same RequestID again overwrites the previous entry.
type Alarm struct {
	RequestID int           `json:"request_id"`
	Kind      ReminderKind  `json:"kind"`
	Label     string        `json:"label,omitempty"`
	FireAt    time.Time     `json:"fire_at"`
	Recurring bool          `json:"recurring"`
	Interval  time.Duration `json:"interval,omitempty"`
	Exact     bool          `json:"exact"`
	BootID    string        `json:"boot_id"`
	CreatedAt time.Time     `json:"created_at"`
}

func (a *Alarm) Validate() error {
	if a.RequestID <= 0 {
		return fmt.Errorf("alarm request id must be positive")
	}
	if a.Kind == "" {
		return fmt.Errorf("alarm kind cannot be empty")
	}
	if a.FireAt.IsZero() {
		return fmt.Errorf("alarm fire time cannot be empty")
	}
	if a.Recurring && a.Interval <= 0 {
		return fmt.Errorf("recurring alarm %d needs a positive interval", a.RequestID)
	}
	return nil
}

// Advance moves a recurring alarm's FireAt forward by whole intervals until it is
// after now. Whole-day intervals keep the wall-clock time in loc across DST changes.
func (a *Alarm) Advance(now time.Time, loc *time.Location) {
	if !a.Recurring || a.Interval <= 0 {
		return
	}
	if loc == nil {
		loc = time.Local
	}
	var days int
	if a.Interval%constants.Day == 0 {
		days = int(a.Interval / constants.Day)
	}
	for !a.FireAt.After(now) {
		if days > 0 {
			a.FireAt = a.FireAt.In(loc).AddDate(0, 0, days)
		} else {
			a.FireAt = a.FireAt.Add(a.Interval)
		}
	}
}

// CustomRequestID returns the stable request id for custom time slot n.
func CustomRequestID(slot int) int {
	return constants.RequestIDCustomBase + slot
}
