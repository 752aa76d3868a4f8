// Package milestones evaluates the achievement catalog against ledger and
// collaborator metrics. It reports what was newly unlocked and leaves notifying
// the user to the caller.
package milestones

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/storage"
	"github.com/julianstephens/soberlit/internal/utils"
)

type Engine struct {
	store storage.Provider
	loc   atomic.Pointer[time.Location]
	now   utils.Clock

	mu sync.Mutex
}

func New(store storage.Provider, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	e := &Engine{
		store: store,
		now:   utils.SystemClock,
	}
	e.loc.Store(loc)
	return e
}

// SetLocation switches the timezone used to group journal entries by day.
func (e *Engine) SetLocation(loc *time.Location) {
	if loc != nil {
		e.loc.Store(loc)
	}
}

func (e *Engine) loadState(ctx context.Context) (map[string]models.AchievementState, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()

	data, err := e.store.GetNamespace(ctx, constants.NamespaceAchievements)
	if err != nil {
		return nil, errors.Store("read achievements", err)
	}

	state := make(map[string]models.AchievementState)
	raw := data[constants.KeyAchievementsPayload]
	if raw == "" {
		return state, nil
	}
	var list []models.AchievementState
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("corrupt achievements payload: %w", err)
	}
	for _, s := range list {
		state[s.ID] = s
	}
	return state, nil
}

func (e *Engine) saveState(ctx context.Context, state map[string]models.AchievementState) error {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()

	list := make([]models.AchievementState, 0, len(catalog))
	for _, c := range catalog {
		if s, ok := state[c.ID]; ok {
			list = append(list, s)
		}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode achievements: %w", err)
	}
	values := map[string]string{constants.KeyAchievementsPayload: string(payload)}
	if err := e.store.PutNamespace(ctx, constants.NamespaceAchievements, values); err != nil {
		return errors.Store("save achievements", err)
	}
	return nil
}

func withState(a models.Achievement, s models.AchievementState) models.Achievement {
	if !s.Unlocked {
		return a
	}
	a.Unlocked = true
	if s.UnlockTime != 0 {
		t := utils.FromEpochMillis(s.UnlockTime)
		a.UnlockedAt = &t
	}
	return a
}

// unlock marks every catalog entry accepted by eligible as unlocked and persists the
// result. It returns only the entries that were not unlocked before.
func (e *Engine) unlock(ctx context.Context, eligible func(entry) bool) ([]models.Achievement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadState(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now()
	var unlocked []models.Achievement
	for _, c := range catalog {
		if state[c.ID].Unlocked || !eligible(c) {
			continue
		}
		s := models.AchievementState{ID: c.ID, Unlocked: true, UnlockTime: utils.EpochMillis(now)}
		state[c.ID] = s
		unlocked = append(unlocked, withState(c.Achievement, s))
	}
	if len(unlocked) == 0 {
		return nil, nil
	}

	if err := e.saveState(ctx, state); err != nil {
		return nil, err
	}
	for _, a := range unlocked {
		logger.Info("Achievement unlocked", "id", a.ID, "category", a.Category)
	}
	return unlocked, nil
}

// Achievements returns the whole catalog with current unlock state.
func (e *Engine) Achievements(ctx context.Context) ([]models.Achievement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadState(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Achievement, 0, len(catalog))
	for _, c := range catalog {
		out = append(out, withState(c.Achievement, state[c.ID]))
	}
	return out, nil
}

// CheckTimeAchievements unlocks every time milestone at or below daysSober. today is
// the milestone whose threshold equals daysSober, when it was unlocked by this call.
func (e *Engine) CheckTimeAchievements(ctx context.Context, daysSober uint32) (today *models.Achievement, unlocked []models.Achievement, err error) {
	unlocked, err = e.unlock(ctx, func(c entry) bool {
		return c.Category == models.CategoryTime && c.ThresholdDays <= daysSober
	})
	if err != nil {
		return nil, nil, err
	}
	for i := range unlocked {
		if unlocked[i].ThresholdDays == daysSober {
			today = &unlocked[i]
		}
	}
	return today, unlocked, nil
}

// CheckFinancialAchievements unlocks money-saved thresholds at or below moneySaved.
func (e *Engine) CheckFinancialAchievements(ctx context.Context, moneySaved float64) ([]models.Achievement, error) {
	return e.unlock(ctx, func(c entry) bool {
		return c.Category == models.CategoryFinancial && c.Threshold <= moneySaved
	})
}

// CheckJournalAchievements unlocks entry-count and journal-streak achievements from
// the timestamps of the user's journal entries.
func (e *Engine) CheckJournalAchievements(ctx context.Context, entries []time.Time) ([]models.Achievement, error) {
	count := float64(len(entries))
	streak := float64(LongestJournalStreak(entries, e.loc.Load()))
	return e.unlock(ctx, func(c entry) bool {
		if c.Category != models.CategoryJournal {
			return false
		}
		if c.journalMetric == journalStreak {
			return c.Threshold <= streak
		}
		return c.Threshold <= count
	})
}

// CheckStreakAchievements unlocks check-in streak achievements.
func (e *Engine) CheckStreakAchievements(ctx context.Context, streak uint32) ([]models.Achievement, error) {
	return e.unlock(ctx, func(c entry) bool {
		return c.Category == models.CategoryOther && c.Threshold <= float64(streak)
	})
}

// Reset forgets every unlock.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()
	if err := e.store.DeleteNamespace(ctx, constants.NamespaceAchievements); err != nil {
		return errors.Store("reset achievements", err)
	}
	return nil
}

// GetNextMilestone returns the lowest time milestone above daysSober, or nil once
// the catalog is exhausted.
func GetNextMilestone(daysSober uint32) *models.Achievement {
	for _, a := range timeMilestones() {
		if a.ThresholdDays > daysSober {
			return &a
		}
	}
	return nil
}

// NextMilestoneDays is the day count of the next milestone. Past the catalog it is
// the next whole year.
func NextMilestoneDays(daysSober uint32) uint32 {
	if next := GetNextMilestone(daysSober); next != nil {
		return next.ThresholdDays
	}
	return (daysSober/constants.DaysPerYear + 1) * constants.DaysPerYear
}

// DaysToNextMilestone is always at least 1.
func DaysToNextMilestone(daysSober uint32) uint32 {
	return NextMilestoneDays(daysSober) - daysSober
}

// MilestoneProgress is the fraction of the way from the previous unlocked milestone
// to the next one.
func (e *Engine) MilestoneProgress(ctx context.Context, daysSober uint32) (float64, error) {
	e.mu.Lock()
	state, err := e.loadState(ctx)
	e.mu.Unlock()
	if err != nil {
		return 0, err
	}

	var previous uint32
	for _, a := range timeMilestones() {
		if a.ThresholdDays <= daysSober && state[a.ID].Unlocked && a.ThresholdDays > previous {
			previous = a.ThresholdDays
		}
	}
	// past the catalog the previous milestone is the last whole year
	if GetNextMilestone(daysSober) == nil {
		if year := daysSober / constants.DaysPerYear * constants.DaysPerYear; year > previous {
			previous = year
		}
	}
	return progress(daysSober, previous, NextMilestoneDays(daysSober)), nil
}

func progress(days, previous, next uint32) float64 {
	if next <= previous {
		return 1
	}
	f := float64(days-previous) / float64(next-previous)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
