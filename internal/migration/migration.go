// Package migration applies the embedded NNN_name.sql schema files for a store.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/logger"
)

var (
	// ErrSchemaTooNew means the database was migrated by a newer soberlit
	ErrSchemaTooNew = errors.New("database schema is newer than this soberlit")
	// ErrSchemaBehind means migrations are pending
	ErrSchemaBehind = errors.New("database schema has pending migrations")
)

type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Status compares the applied schema version with the newest embedded one.
type Status struct {
	Current int
	Latest  int
}

// Err returns nil when the schema is current.
func (s Status) Err() error {
	switch {
	case s.Current > s.Latest:
		return fmt.Errorf("%w: version %d, supported %d (upgrade soberlit)", ErrSchemaTooNew, s.Current, s.Latest)
	case s.Current < s.Latest:
		return fmt.Errorf("%w: version %d, latest %d (run 'soberlit migrate')", ErrSchemaBehind, s.Current, s.Latest)
	}
	return nil
}

// Runner tracks the applied version in a single-row schema_version table.
// Statements never bind parameters so one runner serves sqlite and postgres.
type Runner struct {
	db *sql.DB
	fs fs.FS
}

func NewRunner(db *sql.DB, fsys fs.FS) *Runner {
	return &Runner{db: db, fs: fsys}
}

func (r *Runner) ensureVersionTable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("failed to ensure schema_version table: %w", err)
	}
	return nil
}

// Current returns the applied version, 0 for a fresh database.
func (r *Runner) Current(ctx context.Context) (int, error) {
	if err := r.ensureVersionTable(ctx); err != nil {
		return 0, err
	}
	var version int
	err := r.db.QueryRowContext(ctx, "SELECT version FROM schema_version").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Load parses the migration files, sorted by version.
func (r *Runner) Load() ([]Migration, error) {
	entries, err := fs.ReadDir(r.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		m, err := r.parse(entry.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", out[i].Version)
		}
	}
	return out, nil
}

func (r *Runner) parse(name string) (Migration, error) {
	prefix, rest, ok := strings.Cut(name, "_")
	if !ok {
		return Migration{}, fmt.Errorf("invalid migration filename %s (expected NNN_name.sql)", name)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version < 1 {
		return Migration{}, fmt.Errorf("invalid migration version in %s", name)
	}
	body, err := fs.ReadFile(r.fs, name)
	if err != nil {
		return Migration{}, fmt.Errorf("failed to read migration %s: %w", name, err)
	}
	return Migration{Version: version, Name: strings.TrimSuffix(rest, ".sql"), SQL: string(body)}, nil
}

func (r *Runner) Status(ctx context.Context) (Status, error) {
	current, err := r.Current(ctx)
	if err != nil {
		return Status{}, err
	}
	all, err := r.Load()
	if err != nil {
		return Status{}, err
	}
	st := Status{Current: current}
	if len(all) > 0 {
		st.Latest = all[len(all)-1].Version
	}
	return st, nil
}

// Validate fails unless every embedded migration has been applied.
func (r *Runner) Validate(ctx context.Context) error {
	st, err := r.Status(ctx)
	if err != nil {
		return err
	}
	return st.Err()
}

// Apply runs pending migrations in order and returns how many ran. A failed
// migration leaves the version at the last one that committed.
func (r *Runner) Apply(ctx context.Context) (int, error) {
	current, err := r.Current(ctx)
	if err != nil {
		return 0, err
	}
	all, err := r.Load()
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}

	st := Status{Current: current, Latest: all[len(all)-1].Version}
	if errors.Is(st.Err(), ErrSchemaTooNew) {
		return 0, st.Err()
	}
	if st.Current == st.Latest {
		logger.Debug("Schema up to date", "version", st.Current)
		return 0, nil
	}

	logger.Info("Migrating schema", "from", st.Current, "to", st.Latest)
	start := time.Now()
	applied := 0
	for _, m := range all {
		if m.Version <= current {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return applied, err
		}
		applied++
		logger.Info("Applied migration", "version", m.Version, "name", m.Name)
	}
	logger.Info("Schema migrated", "applied", applied, "elapsed", time.Since(start))
	return applied, nil
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("failed to clear schema version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("INSERT INTO schema_version (version) VALUES (%d)", m.Version)); err != nil {
		return fmt.Errorf("failed to record schema version %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}
