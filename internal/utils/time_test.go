package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "empty string returns local", timezone: ""},
		{name: "Local returns local", timezone: "Local"},
		{name: "valid timezone UTC", timezone: "UTC"},
		{name: "valid timezone America/New_York", timezone: "America/New_York"},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
		})
	}
}

func TestElapsedCalendarDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{
			name: "same day",
			from: time.Date(2025, 3, 1, 0, 5, 0, 0, ny),
			to:   time.Date(2025, 3, 1, 23, 55, 0, 0, ny),
			want: 0,
		},
		{
			name: "late night to early morning is one day",
			from: time.Date(2025, 3, 1, 23, 59, 0, 0, ny),
			to:   time.Date(2025, 3, 2, 0, 1, 0, 0, ny),
			want: 1,
		},
		{
			name: "across spring-forward DST",
			from: time.Date(2025, 3, 8, 12, 0, 0, 0, ny),
			to:   time.Date(2025, 3, 10, 12, 0, 0, 0, ny),
			want: 2,
		},
		{
			name: "across fall-back DST",
			from: time.Date(2025, 11, 1, 0, 30, 0, 0, ny),
			to:   time.Date(2025, 11, 3, 0, 30, 0, 0, ny),
			want: 2,
		},
		{
			name: "backwards is negative",
			from: time.Date(2025, 3, 5, 0, 0, 0, 0, ny),
			to:   time.Date(2025, 3, 2, 0, 0, 0, 0, ny),
			want: -3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ElapsedCalendarDays(tt.from, tt.to, ny); got != tt.want {
				t.Errorf("ElapsedCalendarDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNextOccurrence(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 6, 10, 9, 30, 0, 0, loc)

	tests := []struct {
		name         string
		hour, minute int
		want         time.Time
	}{
		{name: "later today", hour: 20, minute: 0, want: time.Date(2025, 6, 10, 20, 0, 0, 0, loc)},
		{name: "already passed pushes to tomorrow", hour: 8, minute: 0, want: time.Date(2025, 6, 11, 8, 0, 0, 0, loc)},
		{name: "exactly now pushes to tomorrow", hour: 9, minute: 30, want: time.Date(2025, 6, 11, 9, 30, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextOccurrence(now, tt.hour, tt.minute, loc); !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseClockList(t *testing.T) {
	got, err := ParseClockList(" 13:05, 7:30,,13:05 ")
	if err != nil {
		t.Fatalf("ParseClockList() error = %v", err)
	}
	want := []string{"07:30", "13:05"}
	if len(got) != len(want) {
		t.Fatalf("ParseClockList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseClockList()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := ParseClockList("25:00"); err == nil {
		t.Error("ParseClockList() accepted an invalid hour")
	}
}

func TestEpochMillisRoundTripZero(t *testing.T) {
	if EpochMillis(time.Time{}) != 0 {
		t.Error("zero time should map to 0")
	}
	if !FromEpochMillis(0).IsZero() {
		t.Error("0 should map to zero time")
	}
}
