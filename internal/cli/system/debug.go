package system

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/soberlit/internal/app"
	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/storage"
)

type DebugCmd struct {
	DBPath       *DebugDBPathCmd       `cmd:"" help:"Show database and log file paths."`
	DumpLedger   *DebugDumpLedgerCmd   `cmd:"" help:"Dump the sobriety ledger as JSON."`
	DumpAlarms   *DebugDumpAlarmsCmd   `cmd:"" help:"Dump every stored alarm as JSON, including stale ones."`
	DumpSettings *DebugDumpSettingsCmd `cmd:"" help:"Dump settings and reminder preferences as JSON."`
	DumpRaw      *DebugDumpRawCmd      `cmd:"" help:"Dump a raw key-value namespace as JSON."`
}

func printJSON(v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(map[string]string{
		"path": ctx.Store.GetConfigPath(),
		"log":  logger.Path(app.ConfigDir(ctx.Store)),
	})
}

type DebugDumpLedgerCmd struct{}

func (cmd *DebugDumpLedgerCmd) Run(ctx *cli.Context) error {
	a, err := ctx.App()
	if err != nil {
		return err
	}
	snap, err := a.Ledger.Snapshot(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to get ledger: %w", err)
	}
	return printJSON(snap)
}

type DebugDumpAlarmsCmd struct{}

func (cmd *DebugDumpAlarmsCmd) Run(ctx *cli.Context) error {
	alarms, err := ctx.Store.GetAllAlarms(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to get alarms: %w", err)
	}
	return printJSON(alarms)
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	settings, err := storage.GetSettings(ctx.Ctx(), ctx.Store)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	prefs, err := storage.GetReminderPrefs(ctx.Ctx(), ctx.Store)
	if err != nil {
		return fmt.Errorf("failed to get reminder preferences: %w", err)
	}
	return printJSON(map[string]any{
		"settings":  settings,
		"reminders": prefs,
	})
}

type DebugDumpRawCmd struct {
	Namespace string `arg:"" enum:"ledger,achievements,reminders,settings" help:"Namespace to dump (ledger, achievements, reminders, settings)."`
}

func (cmd *DebugDumpRawCmd) Run(ctx *cli.Context) error {
	data, err := ctx.Store.GetNamespace(ctx.Ctx(), cmd.Namespace)
	if err != nil {
		return fmt.Errorf("failed to read namespace %s: %w", cmd.Namespace, err)
	}
	return printJSON(data)
}
