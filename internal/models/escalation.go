package models

import "time"

// EscalationSession exists only while the intrusive prompt is on screen. It is never persisted.
type EscalationSession struct {
	ID               string    `json:"id"`
	Active           bool      `json:"active"`
	StartedAt        time.Time `json:"started_at"`
	AcquiredWakeLock bool      `json:"acquired_wake_lock"`
}
