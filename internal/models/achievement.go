package models

import "time"

// AchievementCategory groups achievements by the metric that unlocks them
type AchievementCategory string

const (
	CategoryTime      AchievementCategory = "time"
	CategoryFinancial AchievementCategory = "financial"
	CategoryJournal   AchievementCategory = "journal"
	CategoryOther     AchievementCategory = "other"
)

type Achievement struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Category      AchievementCategory `json:"category"`
	ThresholdDays uint32              `json:"threshold_days,omitempty"` // time milestones only
	Threshold     float64             `json:"threshold,omitempty"`      // money, entry count or streak length
	Unlocked      bool                `json:"unlocked"`
	UnlockedAt    *time.Time          `json:"unlocked_at,omitempty"`
}

// AchievementState is the persisted form: `{id, unlocked, unlockTime}` with epoch-ms time.
type AchievementState struct {
	ID         string `json:"id"`
	Unlocked   bool   `json:"unlocked"`
	UnlockTime int64  `json:"unlockTime"`
}
