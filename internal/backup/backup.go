// Package backup keeps rotated copies of the SQLite database next to it.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/utils"
)

const stampFormat = "20060102-150405"

// Info describes one backup file.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

type Manager struct {
	dbPath    string
	backupDir string
	now       utils.Clock
}

func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath:    dbPath,
		backupDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		now:       utils.SystemClock,
	}
}

func (m *Manager) Dir() string {
	return m.backupDir
}

// Create snapshots the database and prunes backups beyond constants.MaxBackups.
func (m *Manager) Create(ctx context.Context) (string, error) {
	path, err := m.create(ctx)
	if err != nil {
		return "", err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old backups", "error", err)
	}
	return path, nil
}

func (m *Manager) create(ctx context.Context) (string, error) {
	if _, err := os.Stat(m.dbPath); err != nil {
		return "", fmt.Errorf("database does not exist: %s", m.dbPath)
	}
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path, err := m.nextPath()
	if err != nil {
		return "", err
	}
	if err := m.snapshot(ctx, path); err != nil {
		return "", fmt.Errorf("failed to backup database: %w", err)
	}
	logger.Debug("Backup created", "path", path)
	return path, nil
}

func (m *Manager) nextPath() (string, error) {
	stamp := m.now().Format(stampFormat)
	for n := 0; n <= 100; n++ {
		name := constants.BackupFilePrefix + stamp
		if n > 0 {
			name += "-" + strconv.Itoa(n)
		}
		path := filepath.Join(m.backupDir, name+constants.BackupFileSuffix)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique backup filename")
}

// snapshot writes a consistent copy with VACUUM INTO, falling back to a file copy.
func (m *Manager) snapshot(ctx context.Context, dest string) error {
	db, err := sql.Open("sqlite", m.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := verify(ctx, db); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		db.Close()
		return copyFile(m.dbPath, dest)
	}
	return nil
}

// List returns backups newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stamp, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Timestamp: stamp,
			Size:      info.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// parseName accepts soberlit-YYYYMMDD-HHMMSS.db with an optional -N counter.
func parseName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		return time.Time{}, false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)
	parts := strings.Split(body, "-")
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return time.Time{}, false
		}
	} else if len(parts) != 2 {
		return time.Time{}, false
	}
	stamp, err := time.ParseInLocation(stampFormat, parts[0]+"-"+parts[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return stamp, true
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Resolve finds a backup given an absolute path, a path relative to the working
// directory, or a bare file name inside the backup directory.
func (m *Manager) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	candidate := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", m.backupDir)
}

// Restore replaces the database with the backup at path. The current database is
// saved first; its backup path is returned.
func (m *Manager) Restore(ctx context.Context, path string) (string, error) {
	if err := verifyFile(ctx, path); err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var saved string
	if _, err := os.Stat(m.dbPath); err == nil {
		saved, err = m.create(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to backup current database before restore: %w", err)
		}
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return saved, fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary restore file", "path", tmp, "error", rmErr)
		}
		return saved, fmt.Errorf("failed to restore database: %w", err)
	}
	logger.Info("Database restored", "from", path)
	return saved, nil
}

func verify(ctx context.Context, db *sql.DB) error {
	var count int
	return db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func verifyFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("backup file does not exist: %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	return verify(ctx, db)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
