package models

import "time"

// Ledger is the persisted sobriety state. All dates are local midnights except StartDate,
// which keeps the instant the user chose.
type Ledger struct {
	StartDate         time.Time  `json:"start_date"`
	LastConfirmedDate *time.Time `json:"last_confirmed_date,omitempty"`
	ConfirmedDayCount uint32     `json:"confirmed_day_count"`
	CurrentStreak     uint32     `json:"current_streak"`
	BestStreak        uint32     `json:"best_streak"`
	LastSeedDate      *time.Time `json:"last_seed_date,omitempty"`
}

// Confirmed reports whether the user has ever explicitly confirmed.
func (l Ledger) Confirmed() bool {
	return l.LastConfirmedDate != nil
}

// LedgerSnapshot is the read-only view handed to collaborators.
type LedgerSnapshot struct {
	Ledger
	DaysSober          uint32 `json:"days_sober"`
	ConfirmedDaysSober uint32 `json:"confirmed_days_sober"`
	CheckedInToday     bool   `json:"checked_in_today"`
}
