package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/storage"
	"github.com/julianstephens/soberlit/internal/storage/sqlite"
)

func setupStore(t *testing.T) storage.Provider {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSeedDefaults(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := storage.SeedDefaults(ctx, store); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}

	prefs, err := storage.GetReminderPrefs(ctx, store)
	if err != nil {
		t.Fatalf("GetReminderPrefs failed: %v", err)
	}
	if prefs.MorningHour != constants.DefaultMorningHour || prefs.EveningHour != constants.DefaultEveningHour {
		t.Errorf("unexpected default prefs: %+v", prefs)
	}

	settings, err := storage.GetSettings(ctx, store)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings.Timezone != constants.DefaultTimezone {
		t.Errorf("Timezone = %q, want %q", settings.Timezone, constants.DefaultTimezone)
	}
}

func TestSeedDefaultsKeepsExistingValues(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	prefs, _ := storage.GetReminderPrefs(ctx, store)
	prefs.MorningHour = 6
	if err := storage.SaveReminderPrefs(ctx, store, prefs); err != nil {
		t.Fatalf("SaveReminderPrefs failed: %v", err)
	}

	if err := storage.SeedDefaults(ctx, store); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}

	got, _ := storage.GetReminderPrefs(ctx, store)
	if got.MorningHour != 6 {
		t.Errorf("MorningHour = %d, want 6", got.MorningHour)
	}
}

func TestSaveReminderPrefsRejectsInvalid(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	prefs, _ := storage.GetReminderPrefs(ctx, store)
	prefs.EveningHour = 25
	if err := storage.SaveReminderPrefs(ctx, store, prefs); err == nil {
		t.Fatal("expected validation error for hour 25")
	}
}
