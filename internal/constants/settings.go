package constants

// Store namespaces
const (
	NamespaceLedger       = "ledger"
	NamespaceAchievements = "achievements"
	NamespaceReminders    = "reminders"
	NamespaceSettings     = "settings"
)

// Ledger keys
const (
	KeySobrietyStartDate    = "sobriety_start_date"
	KeyLastConfirmedDate    = "last_confirmed_date"
	KeyConfirmedDaysCount   = "confirmed_days_count"
	KeyCurrentCheckinStreak = "current_checkin_streak"
	KeyBestCheckinStreak    = "best_checkin_streak"
	KeyLastSeedDate         = "last_seed_date"
	KeyAchievementsPayload  = "unlocked"
)

// Reminder preference keys
const (
	SettingNotificationsEnabled = "notifications_enabled"
	SettingMorningEnabled       = "morning_enabled"
	SettingMorningHour          = "morning_hour"
	SettingMorningMinute        = "morning_minute"
	SettingEveningEnabled       = "evening_enabled"
	SettingEveningHour          = "evening_hour"
	SettingEveningMinute        = "evening_minute"
	SettingCustomTimes          = "custom_times"
	SettingMilestoneEnabled     = "milestone_enabled"
	SettingMilestoneHour        = "milestone_hour"
	SettingDailyCheckinEnabled  = "daily_checkin_enabled"
	SettingCheckinHour          = "checkin_hour"
	SettingCheckinMinute        = "checkin_minute"
	SettingIntrusiveEnabled     = "intrusive_enabled"
)

// General settings keys
const (
	SettingTimezone            = "timezone"
	SettingExactAlarmsAllowed  = "exact_alarms_allowed"
	SettingExactDeniedNotified = "exact_denied_notified"
	SettingBuddyWebhookURL     = "buddy_webhook_url"
	SettingBuddyName           = "buddy_name"
	SettingDailyCost           = "daily_cost"
)

// Default values
const (
	DefaultNotificationsEnabled = true
	DefaultMorningEnabled       = true
	DefaultMorningHour          = 8
	DefaultMorningMinute        = 0
	DefaultEveningEnabled       = true
	DefaultEveningHour          = 20
	DefaultEveningMinute        = 0
	DefaultMilestoneEnabled     = true
	DefaultMilestoneHour        = 9
	DefaultDailyCheckinEnabled  = true
	DefaultCheckinHour          = 21
	DefaultCheckinMinute        = 0
	DefaultIntrusiveEnabled     = true
	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultExactAlarmsAllowed   = true
	MaxCustomTimes              = 8
)

// Alarm request IDs. They are the replace key in the alarm registry and must never change.
const (
	RequestIDMorning          = 1001
	RequestIDEvening          = 1002
	RequestIDMilestone        = 1003
	RequestIDDailyCheckin     = 1004
	RequestIDIntrusiveCheckin = 1005
	RequestIDCustomBase       = 2000
)
