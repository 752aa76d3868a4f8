package milestones

import (
	"sort"
	"time"

	"github.com/julianstephens/soberlit/internal/utils"
)

// LongestJournalStreak returns the longest run of consecutive calendar days that
// have at least one entry. Several entries on one day count once.
func LongestJournalStreak(entries []time.Time, loc *time.Location) int {
	if len(entries) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		days = append(days, utils.Midnight(e, loc))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		switch utils.ElapsedCalendarDays(days[i], days[i-1], loc) {
		case 0:
			continue
		case 1:
			run++
		default:
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
