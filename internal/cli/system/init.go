package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/storage"
	"github.com/julianstephens/soberlit/internal/storage/postgres"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing SQLite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if postgres.IsConnString(ctx.Config) {
			return fmt.Errorf("--force is only supported for SQLite databases")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			ctx.PerformAutomaticBackup()
			// Close first to release the file lock
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	if err := storage.SeedDefaults(ctx.Ctx(), ctx.Store); err != nil {
		return err
	}

	a, err := ctx.App()
	if err != nil {
		return err
	}
	l, err := a.Ledger.Get(ctx.Ctx())
	if err != nil {
		return err
	}

	fmt.Printf("Initialized soberlit storage at: %s\n", ctx.Store.GetConfigPath())
	fmt.Printf("Sober since %s. Run 'soberlit start-date YYYY-MM-DD' to change it.\n",
		l.StartDate.In(a.Location()).Format(constants.DateFormat))
	return nil
}

// MigrateCmd applies pending schema migrations to an existing database.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	ctx.PerformAutomaticBackup()
	if err := ctx.Store.Init(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Println("Database schema is up to date.")
	return nil
}
