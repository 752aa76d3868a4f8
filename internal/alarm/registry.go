// Package alarm is the host wake-up facility: a durable registry of alarms keyed
// by request id and a dispatcher that delivers due alarms to handlers.
package alarm

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/storage"
)

// Registry registers wake-ups. Registering a request id that already exists
// replaces the previous registration.
type Registry interface {
	SetExact(ctx context.Context, alarm models.Alarm) error
	SetInexact(ctx context.Context, alarm models.Alarm) error
	Cancel(ctx context.Context, requestID int) error
	List(ctx context.Context) ([]models.Alarm, error)
	CanScheduleExact(ctx context.Context) (bool, error)
}

// StoreRegistry keeps alarms in the store's alarms table, scoped to one boot.
type StoreRegistry struct {
	store  storage.Provider
	bootID string
}

func NewStoreRegistry(store storage.Provider, bootID string) *StoreRegistry {
	return &StoreRegistry{
		store:  store,
		bootID: bootID,
	}
}

func (r *StoreRegistry) BootID() string {
	return r.bootID
}

func (r *StoreRegistry) CanScheduleExact(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()

	settings, err := storage.GetSettings(ctx, r.store)
	if err != nil {
		return false, err
	}
	return settings.ExactAlarmsAllowed, nil
}

// SetExact fails with ErrExactAlarmDenied when exact alarms are not allowed.
func (r *StoreRegistry) SetExact(ctx context.Context, alarm models.Alarm) error {
	allowed, err := r.CanScheduleExact(ctx)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("alarm %d: %w", alarm.RequestID, errors.ErrExactAlarmDenied)
	}
	alarm.Exact = true
	return r.save(ctx, alarm)
}

func (r *StoreRegistry) SetInexact(ctx context.Context, alarm models.Alarm) error {
	alarm.Exact = false
	return r.save(ctx, alarm)
}

func (r *StoreRegistry) save(ctx context.Context, alarm models.Alarm) error {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()

	alarm.BootID = r.bootID
	if alarm.CreatedAt.IsZero() {
		alarm.CreatedAt = time.Now()
	}
	if err := alarm.Validate(); err != nil {
		return err
	}
	if err := r.store.SaveAlarm(ctx, alarm); err != nil {
		return errors.Store("register alarm", err)
	}
	logger.Debug("Registered alarm",
		"request_id", alarm.RequestID,
		"kind", alarm.Kind,
		"fire_at", alarm.FireAt.Format(time.RFC3339),
		"exact", alarm.Exact,
		"recurring", alarm.Recurring,
	)
	return nil
}

// Cancel removes a registration. Cancelling an unknown request id is not an error.
func (r *StoreRegistry) Cancel(ctx context.Context, requestID int) error {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()

	if err := r.store.DeleteAlarm(ctx, requestID); err != nil {
		return errors.Store("cancel alarm", err)
	}
	return nil
}

// List returns the alarms registered during the current boot, soonest first.
func (r *StoreRegistry) List(ctx context.Context) ([]models.Alarm, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()

	all, err := r.store.GetAllAlarms(ctx)
	if err != nil {
		return nil, errors.Store("list alarms", err)
	}
	live := all[:0]
	for _, a := range all {
		if a.BootID == r.bootID {
			live = append(live, a)
		}
	}
	return live, nil
}

// PruneStale deletes alarms left over from a previous boot and returns how many
// were dropped.
func (r *StoreRegistry) PruneStale(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()

	all, err := r.store.GetAllAlarms(ctx)
	if err != nil {
		return 0, errors.Store("list alarms", err)
	}
	pruned := 0
	for _, a := range all {
		if a.BootID == r.bootID {
			continue
		}
		if err := r.store.DeleteAlarm(ctx, a.RequestID); err != nil {
			return pruned, errors.Store("prune alarm", err)
		}
		pruned++
	}
	if pruned > 0 {
		logger.Info("Dropped alarms from a previous boot", "count", pruned)
	}
	return pruned, nil
}

// DeliveryTime is when the dispatcher hands an alarm to its handler. Inexact
// alarms are batched onto the next delivery window boundary.
func DeliveryTime(a models.Alarm) time.Time {
	if a.Exact {
		return a.FireAt
	}
	window := constants.InexactDeliveryWindow
	t := a.FireAt.Truncate(window)
	if t.Before(a.FireAt) {
		t = t.Add(window)
	}
	return t
}
