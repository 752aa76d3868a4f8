package storage

import (
	"context"

	"github.com/julianstephens/soberlit/internal/models"
)

// Provider is the persistent key-value store plus the durable alarm registry table.
// Every component owns one namespace; PutNamespace writes all given keys in a single
// transaction so a failed write never leaves a partial update behind.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Key-value state
	GetNamespace(ctx context.Context, namespace string) (map[string]string, error)
	PutNamespace(ctx context.Context, namespace string, values map[string]string) error
	DeleteNamespace(ctx context.Context, namespace string) error

	// Alarms
	SaveAlarm(ctx context.Context, alarm models.Alarm) error
	GetAlarm(ctx context.Context, requestID int) (models.Alarm, error)
	GetAllAlarms(ctx context.Context) ([]models.Alarm, error)
	DeleteAlarm(ctx context.Context, requestID int) error
	DeleteAllAlarms(ctx context.Context) error

	// Utils
	GetConfigPath() string
}
