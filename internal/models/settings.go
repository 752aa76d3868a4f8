package models

// Settings represents application-wide settings
type Settings struct {
	Timezone            string  `json:"timezone"`              // IANA timezone name or "Local"
	ExactAlarmsAllowed  bool    `json:"exact_alarms_allowed"`  // whether the registry may schedule exact wake-ups
	ExactDeniedNotified bool    `json:"exact_denied_notified"` // one-time degraded-delivery prompt already shown
	BuddyWebhookURL     string  `json:"buddy_webhook_url"`     // accountability buddy endpoint, empty disables
	BuddyName           string  `json:"buddy_name"`
	DailyCost           float64 `json:"daily_cost"` // money saved per sober day
}

// ReminderPrefs holds the enabled flags and times for every reminder kind
type ReminderPrefs struct {
	NotificationsEnabled bool     `json:"notifications_enabled"` // master toggle
	MorningEnabled       bool     `json:"morning_enabled"`
	MorningHour          int      `json:"morning_hour"`
	MorningMinute        int      `json:"morning_minute"`
	EveningEnabled       bool     `json:"evening_enabled"`
	EveningHour          int      `json:"evening_hour"`
	EveningMinute        int      `json:"evening_minute"`
	CustomTimes          []string `json:"custom_times"` // HH:MM
	MilestoneEnabled     bool     `json:"milestone_enabled"`
	MilestoneHour        int      `json:"milestone_hour"`
	DailyCheckinEnabled  bool     `json:"daily_checkin_enabled"`
	CheckinHour          int      `json:"checkin_hour"`
	CheckinMinute        int      `json:"checkin_minute"`
	IntrusiveEnabled     bool     `json:"intrusive_enabled"`
}
