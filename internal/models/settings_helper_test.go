package models

import (
	"testing"

	"github.com/julianstephens/soberlit/internal/constants"
)

func TestMapToReminderPrefsDefaults(t *testing.T) {
	prefs, err := MapToReminderPrefs(map[string]string{})
	if err != nil {
		t.Fatalf("MapToReminderPrefs() error = %v", err)
	}
	if !prefs.NotificationsEnabled || prefs.CheckinHour != constants.DefaultCheckinHour {
		t.Errorf("defaults not applied: %+v", prefs)
	}
	if len(prefs.CustomTimes) != 0 {
		t.Errorf("CustomTimes = %v, want empty", prefs.CustomTimes)
	}
}

func TestMapToReminderPrefsParsesStoredValues(t *testing.T) {
	prefs, err := MapToReminderPrefs(map[string]string{
		constants.SettingMorningEnabled: "false",
		constants.SettingEveningHour:    "19",
		constants.SettingEveningMinute:  "45",
		constants.SettingCustomTimes:    "12:00,06:15",
	})
	if err != nil {
		t.Fatalf("MapToReminderPrefs() error = %v", err)
	}
	if prefs.MorningEnabled {
		t.Error("MorningEnabled = true, want false")
	}
	if prefs.EveningHour != 19 || prefs.EveningMinute != 45 {
		t.Errorf("evening = %02d:%02d, want 19:45", prefs.EveningHour, prefs.EveningMinute)
	}
	if len(prefs.CustomTimes) != 2 || prefs.CustomTimes[0] != "06:15" {
		t.Errorf("CustomTimes = %v, want sorted [06:15 12:00]", prefs.CustomTimes)
	}
}

func TestMapToReminderPrefsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		data map[string]string
	}{
		{name: "non-numeric hour", data: map[string]string{constants.SettingMorningHour: "eight"}},
		{name: "hour out of range", data: map[string]string{constants.SettingCheckinHour: "24"}},
		{name: "bad custom time", data: map[string]string{constants.SettingCustomTimes: "12:00,99:99"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := MapToReminderPrefs(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReminderPrefsMapPreservesCustomTimes(t *testing.T) {
	prefs := DefaultReminderPrefs()
	prefs.CustomTimes = []string{"10:00", "14:30"}

	m := ReminderPrefsToMap(prefs)
	if m[constants.SettingCustomTimes] != "10:00,14:30" {
		t.Errorf("custom_times = %q, want comma-joined list", m[constants.SettingCustomTimes])
	}
}

func TestMapToSettings(t *testing.T) {
	settings, err := MapToSettings(map[string]string{
		constants.SettingExactAlarmsAllowed: "false",
		constants.SettingDailyCost:          "12.5",
	})
	if err != nil {
		t.Fatalf("MapToSettings() error = %v", err)
	}
	if settings.ExactAlarmsAllowed {
		t.Error("ExactAlarmsAllowed = true, want false")
	}
	if settings.DailyCost != 12.5 {
		t.Errorf("DailyCost = %v, want 12.5", settings.DailyCost)
	}
	if settings.Timezone != constants.DefaultTimezone {
		t.Errorf("Timezone = %q, want default", settings.Timezone)
	}

	if _, err := MapToSettings(map[string]string{constants.SettingDailyCost: "lots"}); err == nil {
		t.Error("expected error for non-numeric daily_cost")
	}
}

func TestCheckinIntrusive(t *testing.T) {
	tests := []struct {
		name  string
		prefs ReminderPrefs
		want  bool
	}{
		{"all enabled", ReminderPrefs{NotificationsEnabled: true, DailyCheckinEnabled: true, IntrusiveEnabled: true}, true},
		{"notifications off", ReminderPrefs{DailyCheckinEnabled: true, IntrusiveEnabled: true}, false},
		{"check-in off", ReminderPrefs{NotificationsEnabled: true, IntrusiveEnabled: true}, false},
		{"plain check-in", ReminderPrefs{NotificationsEnabled: true, DailyCheckinEnabled: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.prefs.CheckinIntrusive(); got != tt.want {
				t.Errorf("CheckinIntrusive() = %v, want %v", got, tt.want)
			}
		})
	}
}
