package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/models"
)

const alarmColumns = `request_id, kind, label, fire_at, recurring, interval_ms, exact, boot_id, created_at`

// SaveAlarm inserts or replaces the registration keyed by RequestID
func (s *Store) SaveAlarm(ctx context.Context, alarm models.Alarm) error {
	if err := alarm.Validate(); err != nil {
		return err
	}
	if s.db == nil {
		return fmt.Errorf("database not loaded")
	}

	createdAt := alarm.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO alarms (`+alarmColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		alarm.RequestID, string(alarm.Kind), alarm.Label, alarm.FireAt.UnixMilli(),
		alarm.Recurring, alarm.Interval.Milliseconds(), alarm.Exact, alarm.BootID,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save alarm %d: %w", alarm.RequestID, err)
	}
	return nil
}

func (s *Store) GetAlarm(ctx context.Context, requestID int) (models.Alarm, error) {
	if s.db == nil {
		return models.Alarm{}, fmt.Errorf("database not loaded")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+alarmColumns+` FROM alarms WHERE request_id = ?`, requestID)
	alarm, err := scanAlarm(row)
	if err == sql.ErrNoRows {
		return models.Alarm{}, fmt.Errorf("alarm %d: %w", requestID, errors.ErrNotFound)
	}
	if err != nil {
		return models.Alarm{}, fmt.Errorf("failed to get alarm: %w", err)
	}
	return alarm, nil
}

func (s *Store) GetAllAlarms(ctx context.Context) ([]models.Alarm, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not loaded")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+alarmColumns+` FROM alarms ORDER BY fire_at ASC, request_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarms: %w", err)
	}
	defer rows.Close()

	var alarms []models.Alarm
	for rows.Next() {
		alarm, err := scanAlarm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alarm: %w", err)
		}
		alarms = append(alarms, alarm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alarms: %w", err)
	}
	return alarms, nil
}

func (s *Store) DeleteAlarm(ctx context.Context, requestID int) error {
	if s.db == nil {
		return fmt.Errorf("database not loaded")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM alarms WHERE request_id = ?`, requestID); err != nil {
		return fmt.Errorf("failed to delete alarm %d: %w", requestID, err)
	}
	return nil
}

func (s *Store) DeleteAllAlarms(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not loaded")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM alarms`); err != nil {
		return fmt.Errorf("failed to delete alarms: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlarm(row rowScanner) (models.Alarm, error) {
	var alarm models.Alarm
	var kind, createdAtStr string
	var fireAtMs, intervalMs int64

	err := row.Scan(
		&alarm.RequestID, &kind, &alarm.Label, &fireAtMs,
		&alarm.Recurring, &intervalMs, &alarm.Exact, &alarm.BootID, &createdAtStr,
	)
	if err != nil {
		return models.Alarm{}, err
	}

	alarm.Kind = models.ReminderKind(kind)
	alarm.FireAt = time.UnixMilli(fireAtMs)
	alarm.Interval = time.Duration(intervalMs) * time.Millisecond

	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return models.Alarm{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	alarm.CreatedAt = createdAt
	return alarm, nil
}
