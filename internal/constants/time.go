package constants

import "time"

const (
	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Day is one nominal day; calendar arithmetic never divides by it
	Day = 24 * time.Hour

	// DaysPerYear drives the synthetic milestone after the catalog is exhausted
	DaysPerYear = 365
)
