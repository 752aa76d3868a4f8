package settings

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/storage"
	"github.com/julianstephens/soberlit/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone    *string  `help:"IANA timezone used for calendar days (or 'Local')."`
	DailyCost   *float64 `help:"Money spent per day before getting sober."`
	ExactAlarms *bool    `name:"exact-alarms" help:"Allow exact reminder delivery."`
	BuddyURL    *string  `name:"buddy-url" help:"Accountability buddy webhook URL (empty disables)."`
	BuddyName   *string  `name:"buddy-name" help:"Name sent to the accountability buddy."`

	Notifications *bool    `help:"Enable or disable every reminder."`
	Morning       *string  `help:"Morning reminder time (HH:MM)."`
	NoMorning     bool     `help:"Disable the morning reminder."`
	Evening       *string  `help:"Evening reminder time (HH:MM)."`
	NoEvening     bool     `help:"Disable the evening reminder."`
	Custom        []string `help:"Custom reminder times (HH:MM), replaces the current list." sep:","`
	ClearCustom   bool     `help:"Remove every custom reminder time."`
	Milestone     *int     `help:"Hour for milestone announcements (0-23)."`
	NoMilestone   bool     `help:"Disable milestone announcements."`
	Checkin       *string  `help:"Daily check-in time (HH:MM)."`
	NoCheckin     bool     `help:"Disable the daily check-in."`
	Intrusive     *bool    `help:"Use the blocking check-in prompt instead of a plain notification."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := storage.GetSettings(ctx.Ctx(), ctx.Store)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	prefs, err := storage.GetReminderPrefs(ctx.Ctx(), ctx.Store)
	if err != nil {
		return fmt.Errorf("failed to get reminder preferences: %w", err)
	}

	if c.List {
		fmt.Println("Current Settings:")
		fmt.Printf("  Timezone:              %s\n", settings.Timezone)
		fmt.Printf("  Daily Cost:            %.2f\n", settings.DailyCost)
		fmt.Printf("  Exact Alarms:          %v\n", settings.ExactAlarmsAllowed)
		fmt.Printf("  Buddy Webhook:         %s\n", orNone(settings.BuddyWebhookURL))
		fmt.Printf("  Buddy Name:            %s\n", orNone(settings.BuddyName))
		fmt.Println("\nReminder Settings:")
		fmt.Printf("  Notifications Enabled: %v\n", prefs.NotificationsEnabled)
		fmt.Printf("  Morning:               %s\n", clock(prefs.MorningEnabled, prefs.MorningHour, prefs.MorningMinute))
		fmt.Printf("  Evening:               %s\n", clock(prefs.EveningEnabled, prefs.EveningHour, prefs.EveningMinute))
		fmt.Printf("  Custom:                %v\n", prefs.CustomTimes)
		fmt.Printf("  Milestone:             %s\n", clock(prefs.MilestoneEnabled, prefs.MilestoneHour, 0))
		fmt.Printf("  Daily Check-in:        %s\n", clock(prefs.DailyCheckinEnabled, prefs.CheckinHour, prefs.CheckinMinute))
		fmt.Printf("  Intrusive Check-in:    %v\n", prefs.IntrusiveEnabled)
		return nil
	}

	settingsUpdated := false
	if c.Timezone != nil {
		if !utils.ValidateTimezone(*c.Timezone) {
			return fmt.Errorf("invalid timezone: %s", *c.Timezone)
		}
		settings.Timezone = *c.Timezone
		settingsUpdated = true
	}
	if c.DailyCost != nil {
		if *c.DailyCost < 0 {
			return fmt.Errorf("daily cost cannot be negative")
		}
		settings.DailyCost = *c.DailyCost
		settingsUpdated = true
	}
	if c.ExactAlarms != nil {
		settings.ExactAlarmsAllowed = *c.ExactAlarms
		if *c.ExactAlarms {
			settings.ExactDeniedNotified = false
		}
		settingsUpdated = true
	}
	if c.BuddyURL != nil {
		if *c.BuddyURL != "" {
			u, err := url.Parse(*c.BuddyURL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("buddy webhook must be an http(s) URL")
			}
		}
		settings.BuddyWebhookURL = *c.BuddyURL
		settingsUpdated = true
	}
	if c.BuddyName != nil {
		settings.BuddyName = *c.BuddyName
		settingsUpdated = true
	}

	prefsUpdated := false
	setClock := func(value *string, disable bool, enabled *bool, hour, minute *int) error {
		if value != nil {
			h, m, err := utils.ParseClock(*value)
			if err != nil {
				return err
			}
			*enabled, *hour, *minute = true, h, m
			prefsUpdated = true
		}
		if disable {
			*enabled = false
			prefsUpdated = true
		}
		return nil
	}
	if c.Notifications != nil {
		prefs.NotificationsEnabled = *c.Notifications
		prefsUpdated = true
	}
	if err := setClock(c.Morning, c.NoMorning, &prefs.MorningEnabled, &prefs.MorningHour, &prefs.MorningMinute); err != nil {
		return err
	}
	if err := setClock(c.Evening, c.NoEvening, &prefs.EveningEnabled, &prefs.EveningHour, &prefs.EveningMinute); err != nil {
		return err
	}
	if err := setClock(c.Checkin, c.NoCheckin, &prefs.DailyCheckinEnabled, &prefs.CheckinHour, &prefs.CheckinMinute); err != nil {
		return err
	}
	if len(c.Custom) > 0 {
		times, err := utils.ParseClockList(strings.Join(c.Custom, ","))
		if err != nil {
			return err
		}
		prefs.CustomTimes = times
		prefsUpdated = true
	}
	if c.ClearCustom {
		prefs.CustomTimes = nil
		prefsUpdated = true
	}
	if c.Milestone != nil {
		prefs.MilestoneEnabled, prefs.MilestoneHour = true, *c.Milestone
		prefsUpdated = true
	}
	if c.NoMilestone {
		prefs.MilestoneEnabled = false
		prefsUpdated = true
	}
	if c.Intrusive != nil {
		prefs.IntrusiveEnabled = *c.Intrusive
		prefsUpdated = true
	}

	if !settingsUpdated && !prefsUpdated {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	if settingsUpdated {
		if err := storage.SaveSettings(ctx.Ctx(), ctx.Store, settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
	}
	if prefsUpdated {
		if err := storage.SaveReminderPrefs(ctx.Ctx(), ctx.Store, prefs); err != nil {
			return fmt.Errorf("failed to save reminder preferences: %w", err)
		}
	}
	fmt.Println("Settings updated successfully.")

	// Reminder times and the timezone both change when alarms fire
	if prefsUpdated || c.Timezone != nil || c.ExactAlarms != nil {
		a, err := ctx.App()
		if err != nil {
			return err
		}
		if _, err := a.ScheduleAll(ctx.Ctx()); err != nil {
			return fmt.Errorf("settings saved but rescheduling failed: %w", err)
		}
		fmt.Println("Reminders rescheduled.")
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func clock(enabled bool, hour, minute int) string {
	if !enabled {
		return "off"
	}
	return utils.FormatClock(hour, minute)
}
