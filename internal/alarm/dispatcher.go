package alarm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/utils"
)

// Handler reacts to a delivered alarm. It runs under a short execution budget and
// must read everything it needs from the store.
type Handler func(ctx context.Context, alarm models.Alarm) error

type Dispatcher struct {
	registry *StoreRegistry
	handlers map[models.ReminderKind]Handler
	now      utils.Clock
	tick     time.Duration
	budget   time.Duration
	location func() *time.Location
	refresh  func(ctx context.Context) error

	// one dispatch pass at a time
	mu sync.Mutex
}

func NewDispatcher(registry *StoreRegistry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		handlers: make(map[models.ReminderKind]Handler),
		now:      utils.SystemClock,
		tick:     constants.DispatchTick,
		budget:   constants.HandlerBudget,
		location: func() *time.Location { return time.Local },
	}
}

// UseLocation sets the timezone recurring alarms keep their wall-clock time in.
func (d *Dispatcher) UseLocation(loc func() *time.Location) {
	d.location = loc
}

// BeforeDispatch registers fn to run ahead of every pass that has due alarms, so
// handlers see settings changed by other processes. A failure is logged and the
// pass continues.
func (d *Dispatcher) BeforeDispatch(fn func(ctx context.Context) error) {
	d.refresh = fn
}

// Handle sets the handler for kind, replacing any previous one.
func (d *Dispatcher) Handle(kind models.ReminderKind, h Handler) {
	d.handlers[kind] = h
}

// Due returns the registered alarms whose delivery time is at or before now.
func (d *Dispatcher) Due(ctx context.Context, now time.Time) ([]models.Alarm, error) {
	alarms, err := d.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	var due []models.Alarm
	for _, a := range alarms {
		if !DeliveryTime(a).After(now) {
			due = append(due, a)
		}
	}
	return due, nil
}

// DispatchDue delivers every due alarm. The registry is updated before each handler
// runs, so a handler that re-registers its own request id is not overwritten and a
// crash mid-handler never redelivers. It returns how many alarms were delivered.
func (d *Dispatcher) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	due, err := d.Due(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(due) > 0 && d.refresh != nil {
		if err := d.refresh(ctx); err != nil {
			logger.Warn("Failed to refresh settings before dispatch", "error", err)
		}
	}

	delivered := 0
	for _, a := range due {
		if err := d.commit(ctx, a, now); err != nil {
			return delivered, err
		}
		delivered++
		d.deliver(ctx, a)
	}
	return delivered, nil
}

func (d *Dispatcher) commit(ctx context.Context, a models.Alarm, now time.Time) error {
	if !a.Recurring {
		return d.registry.Cancel(ctx, a.RequestID)
	}
	next := a
	next.Advance(now, d.location())
	ctx, cancel := context.WithTimeout(ctx, constants.StoreOpTimeout)
	defer cancel()
	if err := d.registry.store.SaveAlarm(ctx, next); err != nil {
		return errors.Store("advance alarm", err)
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, a models.Alarm) {
	log := logger.With("fire_id", uuid.NewString(), "request_id", a.RequestID, "kind", a.Kind)

	h, ok := d.handlers[a.Kind]
	if !ok {
		log.Warn("No handler for alarm kind")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.budget)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		return h(ctx, a)
	}()
	elapsed := time.Since(start)

	switch {
	case err != nil:
		log.Error("Alarm handler failed", "error", err, "elapsed", elapsed)
	case elapsed > d.budget:
		log.Warn("Alarm handler exceeded its budget", "elapsed", elapsed)
	default:
		log.Debug("Alarm delivered", "elapsed", elapsed)
	}
}

// Run dispatches on every tick until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	logger.Info("Alarm dispatcher started", "boot_id", d.registry.BootID(), "tick", d.tick)

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		if _, err := d.DispatchDue(ctx, d.now()); err != nil {
			logger.Error("Alarm dispatch failed", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("Alarm dispatcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}
