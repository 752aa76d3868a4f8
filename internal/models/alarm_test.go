package models

import (
	"testing"
	"time"
)

func TestAlarmValidate(t *testing.T) {
	fire := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		alarm   Alarm
		wantErr bool
	}{
		{name: "valid one-shot", alarm: Alarm{RequestID: 1003, Kind: KindMilestone, FireAt: fire}},
		{name: "valid recurring", alarm: Alarm{RequestID: 1001, Kind: KindMorning, FireAt: fire, Recurring: true, Interval: 24 * time.Hour}},
		{name: "missing id", alarm: Alarm{Kind: KindMorning, FireAt: fire}, wantErr: true},
		{name: "missing kind", alarm: Alarm{RequestID: 1, FireAt: fire}, wantErr: true},
		{name: "missing fire time", alarm: Alarm{RequestID: 1, Kind: KindMorning}, wantErr: true},
		{name: "recurring without interval", alarm: Alarm{RequestID: 1, Kind: KindMorning, FireAt: fire, Recurring: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.alarm.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAlarmAdvanceSkipsMissedOccurrences(t *testing.T) {
	a := Alarm{
		RequestID: 1001,
		Kind:      KindMorning,
		FireAt:    time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		Recurring: true,
		Interval:  24 * time.Hour,
	}
	now := time.Date(2025, 1, 4, 9, 0, 0, 0, time.UTC)

	a.Advance(now, time.UTC)

	want := time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)
	if !a.FireAt.Equal(want) {
		t.Errorf("FireAt = %v, want %v", a.FireAt, want)
	}
}

func TestAlarmAdvanceKeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// clocks go forward on 2026-03-08
	a := Alarm{
		RequestID: 1001,
		Kind:      KindMorning,
		FireAt:    time.Date(2026, 3, 7, 8, 0, 0, 0, loc),
		Recurring: true,
		Interval:  24 * time.Hour,
	}

	a.Advance(time.Date(2026, 3, 7, 9, 0, 0, 0, loc), loc)

	got := a.FireAt.In(loc)
	if got.Day() != 8 || got.Hour() != 8 || got.Minute() != 0 {
		t.Errorf("FireAt = %v, want 2026-03-08 08:00 local", got)
	}
}

func TestAlarmAdvanceSubDayInterval(t *testing.T) {
	a := Alarm{
		RequestID: 1,
		Kind:      KindCustom,
		FireAt:    time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		Recurring: true,
		Interval:  90 * time.Minute,
	}
	a.Advance(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), time.UTC)

	want := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	if !a.FireAt.Equal(want) {
		t.Errorf("FireAt = %v, want %v", a.FireAt, want)
	}
}

func TestCustomRequestIDStable(t *testing.T) {
	if CustomRequestID(0) != 2000 || CustomRequestID(3) != 2003 {
		t.Errorf("custom request ids not stable: %d %d", CustomRequestID(0), CustomRequestID(3))
	}
}
