package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/models"
	"github.com/julianstephens/soberlit/internal/storage"
	"github.com/julianstephens/soberlit/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, func()) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	if err := storage.SeedDefaults(context.Background(), store); err != nil {
		t.Fatalf("failed to seed defaults: %v", err)
	}

	ctx := &cli.Context{
		Context: context.Background(),
		Store:   store,
		Config:  dbPath,
	}

	cleanup := func() {
		ctx.Close()
		store.Close()
	}
	return ctx, cleanup
}

func TestInitCmd_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "soberlit.db")
	store := sqlite.NewStore(dbPath)
	ctx := &cli.Context{Store: store, Config: dbPath}
	defer func() {
		ctx.Close()
		store.Close()
	}()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	settings, err := storage.GetSettings(context.Background(), store)
	if err != nil {
		t.Fatalf("failed to read settings: %v", err)
	}
	if settings != models.DefaultSettings() {
		t.Errorf("expected default settings, got %+v", settings)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, cleanup := setupTestDB(t)
	defer cleanup()

	a, err := ctx.App()
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	snap, err := a.Ledger.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !snap.CheckedInToday {
		t.Error("re-running init should keep the existing ledger")
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	ctx, cleanup := setupTestDB(t)
	defer cleanup()

	settings := models.DefaultSettings()
	settings.DailyCost = 12
	if err := storage.SaveSettings(context.Background(), ctx.Store, settings); err != nil {
		t.Fatal(err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}

	got, err := storage.GetSettings(context.Background(), ctx.Store)
	if err != nil {
		t.Fatal(err)
	}
	if got.DailyCost != 0 {
		t.Errorf("expected settings to be reset, daily cost = %v", got.DailyCost)
	}

	mgr, err := ctx.Backups()
	if err != nil {
		t.Fatal(err)
	}
	backups, err := mgr.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Errorf("expected the old database to be backed up, found %d backups", len(backups))
	}
}

func TestInitCmd_ForceRejectsPostgres(t *testing.T) {
	ctx := &cli.Context{Config: "postgres://user@localhost/soberlit"}
	if err := (&InitCmd{Force: true}).Run(ctx); err == nil {
		t.Error("expected --force to be rejected for PostgreSQL")
	}
}

func TestMigrateCmd(t *testing.T) {
	ctx, cleanup := setupTestDB(t)
	defer cleanup()

	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
}

func TestBootCmd(t *testing.T) {
	ctx, cleanup := setupTestDB(t)
	defer cleanup()

	if err := (&BootCmd{}).Run(ctx); err != nil {
		t.Fatalf("boot failed: %v", err)
	}
	alarms, err := ctx.Store.GetAllAlarms(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(alarms) == 0 {
		t.Error("expected boot to schedule reminders")
	}
}

func TestCheckinCmd_NoTerminal(t *testing.T) {
	ctx, cleanup := setupTestDB(t)
	defer cleanup()

	// go test runs without a terminal, so the prompt degrades to a notification
	if err := (&CheckinCmd{}).Run(ctx); err != nil {
		t.Fatalf("checkin failed: %v", err)
	}
	a, _ := ctx.App()
	snap, err := a.Ledger.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.CheckedInToday {
		t.Error("an unanswered check-in must not confirm the day")
	}
}

func TestCheckinCmd_AlreadyCheckedIn(t *testing.T) {
	ctx, cleanup := setupTestDB(t)
	defer cleanup()

	a, err := ctx.App()
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := (&CheckinCmd{}).Run(ctx); err != nil {
		t.Fatalf("checkin failed: %v", err)
	}
}
