package ledger

import (
	"time"

	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/utils"
)

// The functions below are pure: they take the current ledger and "now" and return
// the next ledger. Service persists the result as one unit.

func daysSober(l models.Ledger, now time.Time, loc *time.Location) uint32 {
	days := utils.ElapsedCalendarDays(l.StartDate, now, loc)
	if days < 0 {
		return 0
	}
	return uint32(days)
}

// confirm credits today. ok is false when today (or a later day) is already confirmed.
func confirm(l models.Ledger, now time.Time, loc *time.Location) (next models.Ledger, ok bool) {
	today := utils.Midnight(now, loc)
	if l.LastConfirmedDate != nil && !l.LastConfirmedDate.Before(today) {
		return l, false
	}
	// An empty count is seeded from the start date before today is credited.
	if seeded, ok := seed(l, now, loc); ok {
		l = seeded
	}

	var daysToAdd uint32 = 1
	switch {
	case l.LastConfirmedDate != nil:
		if gap := utils.ElapsedCalendarDays(*l.LastConfirmedDate, today, loc); gap > 1 {
			daysToAdd = uint32(gap)
		}
	case l.LastSeedDate != nil:
		// The seed already credited the day it was taken on.
		gap := utils.ElapsedCalendarDays(*l.LastSeedDate, today, loc)
		if gap < 0 {
			gap = 0
		}
		daysToAdd = uint32(gap)
	}

	next = updateStreak(l, today, loc)
	next.ConfirmedDayCount += daysToAdd
	next.LastConfirmedDate = &today
	next.LastSeedDate = nil
	return next, true
}

// updateStreak must run against the ledger as it was before today's confirmation.
func updateStreak(l models.Ledger, today time.Time, loc *time.Location) models.Ledger {
	if l.LastConfirmedDate == nil {
		l.CurrentStreak = 1
	} else {
		gap := utils.ElapsedCalendarDays(*l.LastConfirmedDate, today, loc)
		if gap == 1 {
			l.CurrentStreak++
		} else {
			l.CurrentStreak = 1
		}
	}
	if l.CurrentStreak > l.BestStreak {
		l.BestStreak = l.CurrentStreak
	}
	return l
}

// reset starts a new abstinence period. The best streak survives; the current one
// restarts from the next confirmation.
func reset(l models.Ledger, now time.Time, loc *time.Location) models.Ledger {
	today := utils.Midnight(now, loc)
	return models.Ledger{
		StartDate:         now,
		LastConfirmedDate: &today,
		ConfirmedDayCount: 1,
		CurrentStreak:     0,
		BestStreak:        l.BestStreak,
	}
}

func reinitialize(l models.Ledger, start, now time.Time, loc *time.Location) models.Ledger {
	today := utils.Midnight(now, loc)
	l.StartDate = start
	l.ConfirmedDayCount = daysSober(l, now, loc) + 1
	l.LastConfirmedDate = &today
	l.LastSeedDate = nil
	return l
}

// seed fills an empty confirmed-day count from the start date. ok is false when the
// count is already set or a seed was already taken today.
func seed(l models.Ledger, now time.Time, loc *time.Location) (next models.Ledger, ok bool) {
	if l.ConfirmedDayCount > 0 {
		return l, false
	}
	today := utils.Midnight(now, loc)
	if l.LastSeedDate != nil && !l.LastSeedDate.Before(today) {
		return l, false
	}
	l.ConfirmedDayCount = daysSober(l, now, loc) + 1
	l.LastSeedDate = &today
	return l, true
}
