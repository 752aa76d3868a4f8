package system

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/julianstephens/soberlit/internal/alarm"
	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/keyring"
	"github.com/julianstephens/soberlit/internal/migration"
	"github.com/julianstephens/soberlit/internal/storage"
	"github.com/julianstephens/soberlit/internal/storage/sqlite"
	"github.com/julianstephens/soberlit/internal/tui"
	"github.com/julianstephens/soberlit/migrations"
)

type DoctorCmd struct{}

type check struct {
	name string
	// warn marks checks whose failure does not fail the command
	warn bool
	// needsDB skips the check when the database is unreachable
	needsDB bool
	run     func(ctx *cli.Context) error
}

var checks = []check{
	{name: "Database reachable", run: checkDBReachable},
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Settings", needsDB: true, run: checkSettings},
	{name: "Ledger", needsDB: true, run: checkLedger},
	{name: "Alarm registry", needsDB: true, warn: true, run: checkAlarms},
	{name: "Backups present", warn: true, run: checkBackupsPresent},
	{name: "OS keyring", warn: true, run: checkKeyring},
	{name: "Interactive terminal", warn: true, run: checkTerminal},
	{name: "Clock", run: checkClock},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := true

	for i, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warn:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
			if i == 0 {
				dbReachable = false
			}
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	if s, ok := ctx.Store.(*sqlite.Store); ok {
		db := s.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	s, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		// PostgreSQL validates its schema on Load
		return nil
	}

	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return err
	}
	st, err := migration.NewRunner(s.GetDB(), sub).Status(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	return st.Err()
}

func checkSettings(ctx *cli.Context) error {
	if _, err := storage.GetSettings(ctx.Ctx(), ctx.Store); err != nil {
		return err
	}
	prefs, err := storage.GetReminderPrefs(ctx.Ctx(), ctx.Store)
	if err != nil {
		return err
	}
	return prefs.Validate()
}

func checkLedger(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	_, err = a.Ledger.Get(ctx.Ctx())
	return err
}

func checkAlarms(ctx *cli.Context) error {
	all, err := ctx.Store.GetAllAlarms(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to read alarms: %w", err)
	}
	bootID := alarm.CurrentBootID()
	stale := 0
	for _, a := range all {
		if a.BootID != bootID {
			stale++
		}
	}
	if stale > 0 {
		return fmt.Errorf("%d alarm(s) belong to a previous boot - run 'soberlit boot'", stale)
	}
	if len(all) == 0 {
		return fmt.Errorf("no reminders scheduled - run 'soberlit reminders schedule'")
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'soberlit backup create'")
	}
	return nil
}

func checkKeyring(_ *cli.Context) error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available; the buddy secret and PostgreSQL credentials cannot be stored")
	}
	return nil
}

func checkTerminal(_ *cli.Context) error {
	if !tui.NewPrompt(nil).Available() {
		return fmt.Errorf("no interactive terminal; check-ins fall back to notifications")
	}
	return nil
}

func checkClock(_ *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
