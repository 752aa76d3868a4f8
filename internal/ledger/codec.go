package ledger

import (
	"fmt"
	"strconv"
	"time"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/utils"
)

// decode reads the ledger namespace. found is false when no start date has been stored yet.
func decode(data map[string]string) (l models.Ledger, found bool, err error) {
	startMs, ok, err := readInt(data, constants.KeySobrietyStartDate)
	if err != nil || !ok || startMs == 0 {
		return models.Ledger{}, false, err
	}
	l.StartDate = utils.FromEpochMillis(startMs)

	lastMs, _, err := readInt(data, constants.KeyLastConfirmedDate)
	if err != nil {
		return models.Ledger{}, false, err
	}
	l.LastConfirmedDate = optionalTime(lastMs)

	seedMs, _, err := readInt(data, constants.KeyLastSeedDate)
	if err != nil {
		return models.Ledger{}, false, err
	}
	l.LastSeedDate = optionalTime(seedMs)

	counters := map[string]*uint32{
		constants.KeyConfirmedDaysCount:   &l.ConfirmedDayCount,
		constants.KeyCurrentCheckinStreak: &l.CurrentStreak,
		constants.KeyBestCheckinStreak:    &l.BestStreak,
	}
	for key, dst := range counters {
		v, _, err := readInt(data, key)
		if err != nil {
			return models.Ledger{}, false, err
		}
		if v < 0 {
			v = 0
		}
		*dst = uint32(v)
	}
	return l, true, nil
}

// encode renders every ledger key so a single PutNamespace replaces the whole record.
func encode(l models.Ledger) map[string]string {
	return map[string]string{
		constants.KeySobrietyStartDate:    formatMillis(l.StartDate),
		constants.KeyLastConfirmedDate:    formatOptional(l.LastConfirmedDate),
		constants.KeyConfirmedDaysCount:   strconv.FormatUint(uint64(l.ConfirmedDayCount), 10),
		constants.KeyCurrentCheckinStreak: strconv.FormatUint(uint64(l.CurrentStreak), 10),
		constants.KeyBestCheckinStreak:    strconv.FormatUint(uint64(l.BestStreak), 10),
		constants.KeyLastSeedDate:         formatOptional(l.LastSeedDate),
	}
}

func readInt(data map[string]string, key string) (int64, bool, error) {
	raw, ok := data[key]
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return v, true, nil
}

func optionalTime(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := utils.FromEpochMillis(ms)
	return &t
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(utils.EpochMillis(t), 10)
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return "0"
	}
	return formatMillis(*t)
}
