package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/julianstephens/soberlit/internal/app"
	"github.com/julianstephens/soberlit/internal/backup"
	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/storage"
	"github.com/julianstephens/soberlit/internal/storage/postgres"
)

// Context is handed to every command's Run method.
type Context struct {
	Context context.Context
	Store   storage.Provider
	// Config is the resolved --config value (file path or connection string)
	Config string

	app *app.App
}

// Ctx returns the command context.
func (c *Context) Ctx() context.Context {
	if c.Context == nil {
		return context.Background()
	}
	return c.Context
}

// App wires the services on first use, after the store is loaded.
func (c *Context) App() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := app.New(c.Ctx(), c.Store)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// Close stops background work started by the app.
func (c *Context) Close() {
	if c.app != nil {
		c.app.Close()
	}
}

// Backups returns the backup manager for SQLite stores.
func (c *Context) Backups() (*backup.Manager, error) {
	if postgres.IsConnString(c.Config) {
		return nil, fmt.Errorf("backups are only supported for SQLite databases")
	}
	return backup.NewManager(c.Store.GetConfigPath()), nil
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.Backups()
	if err != nil {
		logger.Debug("Skipping automatic backup", "reason", err)
		return
	}
	if _, err := mgr.Create(c.Ctx()); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ErrNotConfirmed is returned when a destructive command cannot ask for confirmation.
var ErrNotConfirmed = errors.New("refusing to continue without confirmation, pass --yes to skip the prompt")

// Confirm asks a yes/no question on the terminal. Without a terminal it returns
// ErrNotConfirmed so scripts must opt in explicitly.
func Confirm(title, description string) (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return false, ErrNotConfirmed
	}
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("interactive form error: %w", err)
	}
	return ok, nil
}
