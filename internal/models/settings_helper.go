package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/utils"
)

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		Timezone:           constants.DefaultTimezone,
		ExactAlarmsAllowed: constants.DefaultExactAlarmsAllowed,
	}
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Missing keys keep their defaults.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			if value != "" {
				settings.Timezone = value
			}
		case constants.SettingExactAlarmsAllowed:
			settings.ExactAlarmsAllowed = value == "true"
		case constants.SettingExactDeniedNotified:
			settings.ExactDeniedNotified = value == "true"
		case constants.SettingBuddyWebhookURL:
			settings.BuddyWebhookURL = value
		case constants.SettingBuddyName:
			settings.BuddyName = value
		case constants.SettingDailyCost:
			if value == "" {
				continue
			}
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing daily_cost: %w", err)
			}
			settings.DailyCost = f
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:            settings.Timezone,
		constants.SettingExactAlarmsAllowed:  strconv.FormatBool(settings.ExactAlarmsAllowed),
		constants.SettingExactDeniedNotified: strconv.FormatBool(settings.ExactDeniedNotified),
		constants.SettingBuddyWebhookURL:     settings.BuddyWebhookURL,
		constants.SettingBuddyName:           settings.BuddyName,
		constants.SettingDailyCost:           strconv.FormatFloat(settings.DailyCost, 'f', -1, 64),
	}
}

// DefaultReminderPrefs returns the reminder schedule used on a fresh install.
func DefaultReminderPrefs() ReminderPrefs {
	return ReminderPrefs{
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
		MorningEnabled:       constants.DefaultMorningEnabled,
		MorningHour:          constants.DefaultMorningHour,
		MorningMinute:        constants.DefaultMorningMinute,
		EveningEnabled:       constants.DefaultEveningEnabled,
		EveningHour:          constants.DefaultEveningHour,
		EveningMinute:        constants.DefaultEveningMinute,
		MilestoneEnabled:     constants.DefaultMilestoneEnabled,
		MilestoneHour:        constants.DefaultMilestoneHour,
		DailyCheckinEnabled:  constants.DefaultDailyCheckinEnabled,
		CheckinHour:          constants.DefaultCheckinHour,
		CheckinMinute:        constants.DefaultCheckinMinute,
		IntrusiveEnabled:     constants.DefaultIntrusiveEnabled,
	}
}

// MapToReminderPrefs converts stored key-value pairs to ReminderPrefs.
// Missing keys keep their defaults.
func MapToReminderPrefs(data map[string]string) (ReminderPrefs, error) {
	prefs := DefaultReminderPrefs()

	ints := map[string]*int{
		constants.SettingMorningHour:   &prefs.MorningHour,
		constants.SettingMorningMinute: &prefs.MorningMinute,
		constants.SettingEveningHour:   &prefs.EveningHour,
		constants.SettingEveningMinute: &prefs.EveningMinute,
		constants.SettingMilestoneHour: &prefs.MilestoneHour,
		constants.SettingCheckinHour:   &prefs.CheckinHour,
		constants.SettingCheckinMinute: &prefs.CheckinMinute,
	}
	bools := map[string]*bool{
		constants.SettingNotificationsEnabled: &prefs.NotificationsEnabled,
		constants.SettingMorningEnabled:       &prefs.MorningEnabled,
		constants.SettingEveningEnabled:       &prefs.EveningEnabled,
		constants.SettingMilestoneEnabled:     &prefs.MilestoneEnabled,
		constants.SettingDailyCheckinEnabled:  &prefs.DailyCheckinEnabled,
		constants.SettingIntrusiveEnabled:     &prefs.IntrusiveEnabled,
	}

	for key, value := range data {
		if p, ok := ints[key]; ok {
			n, err := strconv.Atoi(value)
			if err != nil {
				return ReminderPrefs{}, fmt.Errorf("parsing %s: %w", key, err)
			}
			*p = n
			continue
		}
		if p, ok := bools[key]; ok {
			*p = value == "true"
			continue
		}
		if key == constants.SettingCustomTimes {
			times, err := utils.ParseClockList(value)
			if err != nil {
				return ReminderPrefs{}, fmt.Errorf("parsing %s: %w", key, err)
			}
			prefs.CustomTimes = times
		}
	}

	if err := prefs.Validate(); err != nil {
		return ReminderPrefs{}, err
	}
	return prefs, nil
}

// ReminderPrefsToMap converts ReminderPrefs to stored key-value pairs.
func ReminderPrefsToMap(prefs ReminderPrefs) map[string]string {
	return map[string]string{
		constants.SettingNotificationsEnabled: strconv.FormatBool(prefs.NotificationsEnabled),
		constants.SettingMorningEnabled:       strconv.FormatBool(prefs.MorningEnabled),
		constants.SettingMorningHour:          strconv.Itoa(prefs.MorningHour),
		constants.SettingMorningMinute:        strconv.Itoa(prefs.MorningMinute),
		constants.SettingEveningEnabled:       strconv.FormatBool(prefs.EveningEnabled),
		constants.SettingEveningHour:          strconv.Itoa(prefs.EveningHour),
		constants.SettingEveningMinute:        strconv.Itoa(prefs.EveningMinute),
		constants.SettingCustomTimes:          strings.Join(prefs.CustomTimes, ","),
		constants.SettingMilestoneEnabled:     strconv.FormatBool(prefs.MilestoneEnabled),
		constants.SettingMilestoneHour:        strconv.Itoa(prefs.MilestoneHour),
		constants.SettingDailyCheckinEnabled:  strconv.FormatBool(prefs.DailyCheckinEnabled),
		constants.SettingCheckinHour:          strconv.Itoa(prefs.CheckinHour),
		constants.SettingCheckinMinute:        strconv.Itoa(prefs.CheckinMinute),
		constants.SettingIntrusiveEnabled:     strconv.FormatBool(prefs.IntrusiveEnabled),
	}
}

// Validate checks hour/minute ranges and the custom slot limit.
func (p ReminderPrefs) Validate() error {
	clocks := []struct {
		name         string
		hour, minute int
	}{
		{"morning", p.MorningHour, p.MorningMinute},
		{"evening", p.EveningHour, p.EveningMinute},
		{"milestone", p.MilestoneHour, 0},
		{"checkin", p.CheckinHour, p.CheckinMinute},
	}
	for _, c := range clocks {
		if c.hour < 0 || c.hour > 23 || c.minute < 0 || c.minute > 59 {
			return fmt.Errorf("invalid %s time %02d:%02d", c.name, c.hour, c.minute)
		}
	}
	if len(p.CustomTimes) > constants.MaxCustomTimes {
		return fmt.Errorf("at most %d custom reminder times are supported", constants.MaxCustomTimes)
	}
	return nil
}

// CheckinIntrusive reports whether the daily check-in takes over the terminal.
func (p ReminderPrefs) CheckinIntrusive() bool {
	return p.NotificationsEnabled && p.DailyCheckinEnabled && p.IntrusiveEnabled
}
