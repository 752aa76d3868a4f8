package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/soberlit/internal/app"
	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/cli/backups"
	"github.com/julianstephens/soberlit/internal/cli/buddy"
	"github.com/julianstephens/soberlit/internal/cli/reminders"
	"github.com/julianstephens/soberlit/internal/cli/settings"
	"github.com/julianstephens/soberlit/internal/cli/sobriety"
	"github.com/julianstephens/soberlit/internal/cli/system"
	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Database path or PostgreSQL connection string. Credentials must NOT be embedded in the connection string; use ${conn_env}, .pgpass or the OS keyring instead." type:"string" default:"${default_config}"`
	LogDebug bool   `name:"debug" help:"Mirror logs to stderr at debug level."`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)." env:"${log_level_env}" default:"info"`

	Init       system.InitCmd         `cmd:"" help:"Initialize soberlit storage."`
	Migrate    system.MigrateCmd      `cmd:"" help:"Run database migrations."`
	Doctor     system.DoctorCmd       `cmd:"" help:"Run health checks and diagnostics."`
	Status     sobriety.StatusCmd     `cmd:"" help:"Show days sober, streaks and the next milestone." default:"1"`
	Confirm    sobriety.ConfirmCmd    `cmd:"" help:"Confirm today as a sober day."`
	Relapse    sobriety.RelapseCmd    `cmd:"" help:"Record a relapse and restart the counter."`
	StartDate  sobriety.StartDateCmd  `cmd:"" name:"start-date" help:"Change the sobriety start date."`
	Milestones sobriety.MilestonesCmd `cmd:"" help:"Show and evaluate achievements."`
	Reset      sobriety.ResetCmd      `cmd:"" help:"Delete all sobriety data (a backup is created first)."`
	Reminders  reminders.RemindersCmd `cmd:"" help:"Manage scheduled reminders."`
	Settings   settings.SettingsCmd   `cmd:"" help:"Manage application settings."`
	Boot       system.BootCmd         `cmd:"" help:"Re-register reminders after a restart."`
	Daemon     system.DaemonCmd       `cmd:"" help:"Deliver reminders and serve the local API until interrupted."`
	Serve      system.ServeCmd        `cmd:"" help:"Serve the local HTTP API."`
	Checkin    system.CheckinCmd      `cmd:"" help:"Run the blocking check-in prompt now."`
	Buddy      buddy.BuddyCmd         `cmd:"" help:"Manage the accountability buddy."`
	Keyring    system.KeyringCmd      `cmd:"" help:"Manage the database connection string in the OS keyring."`
	Debug      system.DebugCmd        `cmd:"" help:"Debug commands for troubleshooting."`
	Backup     struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
}

// needsStore reports whether the selected command reads or writes the database.
// Init and migrate create or upgrade the schema themselves.
func needsStore(command string) bool {
	words := strings.Fields(command)
	if len(words) == 0 {
		return true
	}
	switch words[0] {
	case "init", "migrate", "keyring":
		return false
	case "buddy":
		return len(words) > 1 && words[1] == "test"
	}
	return true
}

func newParser() (*kong.Kong, error) {
	return kong.New(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Sobriety tracker with milestones, reminders and a check-in that won't be ignored"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
			"conn_env":       constants.ConnectionEnvVar,
			"server_address": constants.DefaultServerAddress,
			"log_level_env":  constants.LogLevelEnvVar,
		},
	)
}

func main() {
	parser, err := newParser()
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	errors.Fatal(run(ctx))
}

func run(ctx *kong.Context) error {
	config := app.ResolveConfig(CLI.Config)
	store, err := app.OpenStore(config, config != CLI.Config)
	if err != nil {
		return err
	}
	defer store.Close()

	command := ctx.Command()
	if err := logger.Init(logger.Config{
		ConfigDir: app.ConfigDir(store),
		Level:     CLI.LogLevel,
		Debug:     CLI.LogDebug,
		Console:   strings.HasPrefix(command, "daemon") || strings.HasPrefix(command, "serve"),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	appCtx := &cli.Context{
		Context: context.Background(),
		Store:   store,
		Config:  config,
	}
	defer appCtx.Close()

	if needsStore(command) {
		if err := store.Load(); err != nil {
			return err
		}
	}
	return ctx.Run(appCtx)
}
