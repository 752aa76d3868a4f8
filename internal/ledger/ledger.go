// Package ledger owns the sobriety counters: start date, confirmed-day count and
// check-in streaks. Every call reads the persisted record, so handlers started in a
// fresh process see the same state as a long-running daemon.
package ledger

import (
	"context"
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

type Service struct {
	store storage.Provider
	loc   atomic.Pointer[time.Location]
	now   utils.Clock

	// serializes read-modify-write cycles within one process
	mu sync.Mutex
}

func New(store storage.Provider, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{
		store: store,
		now:   utils.SystemClock,
	}
	s.loc.Store(loc)
	return s
}

// Location returns the timezone used for calendar-day arithmetic.
func (s *Service) Location() *time.Location {
	return s.loc.Load()
}

// SetLocation switches the timezone for later calls.
func (s *Service) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc.Store(loc)
	}
}

func (s *Service) load(ctx context.Context) (models.Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()

	data, err := s.store.GetNamespace(ctx, constants.NamespaceLedger)
	if err != nil {
		return models.Ledger{}, errors.Store("read ledger", err)
	}
	l, found, err := decode(data)
	if err != nil {
		return models.Ledger{}, fmt.Errorf("corrupt ledger: %w", err)
	}
	if found {
		return l, nil
	}

	l = models.Ledger{StartDate: s.now()}
	if err := s.save(ctx, "create ledger", l); err != nil {
		return models.Ledger{}, err
	}
	logger.Info("Created sobriety ledger", "start", l.StartDate.Format(time.RFC3339))
	return l, nil
}

func (s *Service) save(ctx context.Context, op string, l models.Ledger) error {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()

	if err := s.store.PutNamespace(ctx, constants.NamespaceLedger, encode(l)); err != nil {
		return errors.Store(op, err)
	}
	return nil
}

// Get returns the persisted ledger, creating it on first access.
func (s *Service) Get(ctx context.Context) (models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// GetDaysSober returns whole calendar days since the start date, clamped at 0.
func (s *Service) GetDaysSober(ctx context.Context) (uint32, error) {
	l, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	return daysSober(l, s.now(), s.Location()), nil
}

// GetConfirmedDaysSober returns the confirmed-day count. An empty count is seeded
// from the start date at most once per calendar day.
func (s *Service) GetConfirmedDaysSober(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	if l.ConfirmedDayCount > 0 {
		return l.ConfirmedDayCount, nil
	}

	next, ok := seed(l, now, s.Location())
	if !ok {
		return daysSober(l, now, s.Location()) + 1, nil
	}
	if err := s.save(ctx, "seed confirmed days", next); err != nil {
		return 0, err
	}
	logger.Debug("Seeded confirmed day count", "days", next.ConfirmedDayCount)
	return next.ConfirmedDayCount, nil
}

// ConfirmForToday credits the current calendar day. It reports false without
// writing anything when today is already confirmed.
func (s *Service) ConfirmForToday(ctx context.Context) (models.Ledger, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx)
	if err != nil {
		return models.Ledger{}, false, err
	}
	next, ok := confirm(l, s.now(), s.Location())
	if !ok {
		return l, false, nil
	}
	if err := s.save(ctx, "confirm", next); err != nil {
		return l, false, err
	}
	logger.Info("Confirmed sober day",
		"confirmed_days", next.ConfirmedDayCount,
		"streak", next.CurrentStreak,
		"best", next.BestStreak,
	)
	return next, true, nil
}

// ResetCounter records a relapse: the start date becomes now and the count restarts at 1.
func (s *Service) ResetCounter(ctx context.Context) (models.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx)
	if err != nil {
		return models.Ledger{}, err
	}
	next := reset(l, s.now(), s.Location())
	if err := s.save(ctx, "reset", next); err != nil {
		return l, err
	}
	logger.Info("Reset sobriety counter", "best_streak", next.BestStreak)
	return next, nil
}

// SetStartDate moves the start date without touching the confirmed-day count.
func (s *Service) SetStartDate(ctx context.Context, start time.Time) (models.Ledger, error) {
	return s.updateStart(ctx, start, false)
}

// SetStartDateAndReinitialize moves the start date and recomputes the confirmed-day
// count as the elapsed days plus today.
func (s *Service) SetStartDateAndReinitialize(ctx context.Context, start time.Time) (models.Ledger, error) {
	return s.updateStart(ctx, start, true)
}

func (s *Service) updateStart(ctx context.Context, start time.Time, reinit bool) (models.Ledger, error) {
	now := s.now()
	if utils.ElapsedCalendarDays(start, now, s.Location()) < 0 {
		return models.Ledger{}, fmt.Errorf("%s: %w", start.Format(constants.DateFormat), errors.ErrStartDateInFuture)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx)
	if err != nil {
		return models.Ledger{}, err
	}
	next := l
	next.StartDate = start
	if reinit {
		next = reinitialize(l, start, now, s.Location())
	}
	if err := s.save(ctx, "set start date", next); err != nil {
		return l, err
	}
	logger.Info("Updated sobriety start date",
		"start", start.Format(constants.DateFormat),
		"reinitialized", reinit,
		"confirmed_days", next.ConfirmedDayCount,
	)
	return next, nil
}

// HasCheckedInRecently is true when the last confirmation was today or yesterday.
func (s *Service) HasCheckedInRecently(ctx context.Context) (bool, error) {
	l, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	if l.LastConfirmedDate == nil {
		return false, nil
	}
	gap := utils.ElapsedCalendarDays(*l.LastConfirmedDate, s.now(), s.Location())
	return gap <= 1, nil
}

// HasCheckedInToday is the exact calendar-day variant used to suppress escalation.
func (s *Service) HasCheckedInToday(ctx context.Context) (bool, error) {
	l, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return checkedInToday(l, s.now(), s.Location()), nil
}

func checkedInToday(l models.Ledger, now time.Time, loc *time.Location) bool {
	return l.LastConfirmedDate != nil && !l.LastConfirmedDate.Before(utils.Midnight(now, loc))
}

// Snapshot returns a read-only view for collaborators. It never seeds.
func (s *Service) Snapshot(ctx context.Context) (models.LedgerSnapshot, error) {
	l, err := s.Get(ctx)
	if err != nil {
		return models.LedgerSnapshot{}, err
	}
	now := s.now()
	snap := models.LedgerSnapshot{
		Ledger:             l,
		DaysSober:          daysSober(l, now, s.Location()),
		ConfirmedDaysSober: l.ConfirmedDayCount,
		CheckedInToday:     checkedInToday(l, now, s.Location()),
	}
	if snap.ConfirmedDaysSober == 0 {
		snap.ConfirmedDaysSober = snap.DaysSober + 1
	}
	return snap, nil
}

// Wipe deletes the ledger. The next access recreates it with startDate = now.
func (s *Service) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()
	if err := s.store.DeleteNamespace(ctx, constants.NamespaceLedger); err != nil {
		return errors.Store("wipe ledger", err)
	}
	logger.Warn("Sobriety ledger wiped")
	return nil
}
