package milestones

import (
	"fmt"

	"github.com/julianstephens/soberlit/internal/models"
)

// Journal achievement kinds share the journal category but measure different things.
const (
	journalEntries = "entries"
	journalStreak  = "streak"
)

type entry struct {
	models.Achievement
	journalMetric string
}

func timeMilestone(days uint32, title string) entry {
	return entry{Achievement: models.Achievement{
		ID:            fmt.Sprintf("days_%d", days),
		Title:         title,
		Category:      models.CategoryTime,
		ThresholdDays: days,
	}}
}

func financial(amount float64) entry {
	return entry{Achievement: models.Achievement{
		ID:        fmt.Sprintf("saved_%.0f", amount),
		Title:     fmt.Sprintf("Saved %.0f", amount),
		Category:  models.CategoryFinancial,
		Threshold: amount,
	}}
}

func journal(id, title, metric string, n float64) entry {
	return entry{
		Achievement: models.Achievement{
			ID:        id,
			Title:     title,
			Category:  models.CategoryJournal,
			Threshold: n,
		},
		journalMetric: metric,
	}
}

func checkinStreak(n float64, title string) entry {
	return entry{Achievement: models.Achievement{
		ID:        fmt.Sprintf("checkin_streak_%.0f", n),
		Title:     title,
		Category:  models.CategoryOther,
		Threshold: n,
	}}
}

// catalog is fixed and ordered; time milestones ascend by threshold.
var catalog = []entry{
	timeMilestone(1, "First Day"),
	timeMilestone(3, "Three Days"),
	timeMilestone(7, "One Week"),
	timeMilestone(14, "Two Weeks"),
	timeMilestone(30, "One Month"),
	timeMilestone(60, "Two Months"),
	timeMilestone(90, "Three Months"),
	timeMilestone(180, "Six Months"),
	timeMilestone(365, "One Year"),

	financial(10),
	financial(50),
	financial(100),
	financial(500),
	financial(1000),

	journal("journal_first", "First Journal Entry", journalEntries, 1),
	journal("journal_10", "Ten Journal Entries", journalEntries, 10),
	journal("journal_streak_7", "Journal Week", journalStreak, 7),
	journal("journal_streak_30", "Journal Month", journalStreak, 30),

	checkinStreak(3, "Three Check-ins in a Row"),
	checkinStreak(7, "A Week of Check-ins"),
	checkinStreak(30, "A Month of Check-ins"),
}

// timeMilestones returns the time-category part of the catalog in threshold order.
func timeMilestones() []models.Achievement {
	var out []models.Achievement
	for _, e := range catalog {
		if e.Category == models.CategoryTime {
			out = append(out, e.Achievement)
		}
	}
	return out
}
