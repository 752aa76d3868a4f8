package utils

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/soberlit/internal/constants"
)

// Clock returns the current instant. Services take one so tests can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock
func SystemClock() time.Time {
	return time.Now()
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// Midnight normalizes t to 00:00 of its calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return Midnight(a, loc).Equal(Midnight(b, loc))
}

// ElapsedCalendarDays counts calendar-day boundaries crossed going from `from` to `to` in loc.
// The result is negative when `to` is on an earlier day. DST transitions do not skew it
// because the count is taken on civil dates, not on 24h windows.
func ElapsedCalendarDays(from, to time.Time, loc *time.Location) int {
	f := from.In(loc)
	t := to.In(loc)
	fd := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	td := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(td.Sub(fd) / constants.Day)
}

// AddCalendarDays moves a local midnight forward by n civil days.
func AddCalendarDays(day time.Time, n int, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day()+n, 0, 0, 0, 0, loc)
}

// NextOccurrence returns the first instant at hour:minute in loc that is strictly after now.
// If the time has already passed today, it is tomorrow's.
func NextOccurrence(now time.Time, hour, minute int, loc *time.Location) time.Time {
	n := now.In(loc)
	candidate := time.Date(n.Year(), n.Month(), n.Day(), hour, minute, 0, 0, loc)
	if !candidate.After(now) {
		candidate = time.Date(n.Year(), n.Month(), n.Day()+1, hour, minute, 0, 0, loc)
	}
	return candidate
}

// ParseTime parses a time string in the standard format (HH:MM).
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, timeStr)
}

// ParseClock parses HH:MM into hour and minute.
func ParseClock(timeStr string) (int, int, error) {
	t, err := ParseTime(strings.TrimSpace(timeStr))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q (expected HH:MM): %w", timeStr, err)
	}
	return t.Hour(), t.Minute(), nil
}

// FormatClock renders hour and minute as HH:MM.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseClockList parses a comma-joined "HH:MM" list. Blank entries are skipped and
// duplicates are collapsed; the result is sorted.
func ParseClockList(s string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, m, err := ParseClock(part)
		if err != nil {
			return nil, err
		}
		norm := FormatClock(h, m)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}
	sort.Strings(out)
	return out, nil
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) as local midnight in loc.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// EpochMillis converts t to epoch milliseconds; the zero time maps to 0.
func EpochMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromEpochMillis is the inverse of EpochMillis; 0 maps to the zero time.
func FromEpochMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
