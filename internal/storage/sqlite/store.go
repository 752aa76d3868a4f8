package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/soberlit/internal/migration"
	"github.com/julianstephens/soberlit/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := s.open(); err != nil {
		return err
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'soberlit init' first")
	}

	if err := s.open(); err != nil {
		return err
	}

	return s.validateSchemaVersion()
}

// open uses a single connection so the busy timeout pragma applies to every
// statement; the daemon and CLI invocations share the file concurrently.
func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 3000"); err != nil {
		db.Close()
		return fmt.Errorf("failed to configure database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) migrator() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS), nil
}

func (s *Store) runMigrations() error {
	runner, err := s.migrator()
	if err != nil {
		return err
	}
	_, err = runner.Apply(context.Background())
	return err
}

func (s *Store) validateSchemaVersion() error {
	runner, err := s.migrator()
	if err != nil {
		return err
	}
	return runner.Validate(context.Background())
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection, nil before Init or Load.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
