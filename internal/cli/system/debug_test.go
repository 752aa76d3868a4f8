package system

import (
	"context"
	"testing"
)

func TestDebugDBPathCmd(t *testing.T) {
	ctx, cleanup := setupTestDB(t)
	defer cleanup()

	if err := (&DebugDBPathCmd{}).Run(ctx); err != nil {
		t.Errorf("debug db-path failed: %v", err)
	}
}

func TestDebugDumpLedgerCmd(t *testing.T) {
	ctx, cleanup := setupTestDB(t)
	defer cleanup()

	if err := (&DebugDumpLedgerCmd{}).Run(ctx); err != nil {
		t.Fatalf("dump-ledger failed: %v", err)
	}
	// Reading the ledger creates it
	data, err := ctx.Store.GetNamespace(context.Background(), "ledger")
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("expected the ledger namespace to be populated")
	}
}

func TestDebugDumpCmds(t *testing.T) {
	ctx, cleanup := setupTestDB(t)
	defer cleanup()

	tests := []struct {
		name string
		run  func() error
	}{
		{"alarms", func() error { return (&DebugDumpAlarmsCmd{}).Run(ctx) }},
		{"settings", func() error { return (&DebugDumpSettingsCmd{}).Run(ctx) }},
		{"raw settings", func() error { return (&DebugDumpRawCmd{Namespace: "settings"}).Run(ctx) }},
		{"raw empty namespace", func() error { return (&DebugDumpRawCmd{Namespace: "achievements"}).Run(ctx) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); err != nil {
				t.Errorf("dump failed: %v", err)
			}
		})
	}
}
