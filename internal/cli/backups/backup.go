package backups

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/constants"
)

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	backupPath, err := mgr.Create(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Printf("✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Println("No backups found.")
		fmt.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	fmt.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		fmt.Printf("  %s  %s  (%.1f KB)\n",
			b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.Size)/1024.0)
	}
	fmt.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	backupPath, err := mgr.Resolve(c.BackupFile)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := cli.Confirm("Restore from "+filepath.Base(backupPath)+"?",
			"This replaces your current database. A backup of it is created first.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	// Release the file before it is replaced
	ctx.Close()
	if err := ctx.Store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database connection: %v\n", err)
	}

	saved, err := mgr.Restore(ctx.Ctx(), backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Println("✓ Database restored successfully!")
	if saved != "" {
		fmt.Printf("  Previous database saved as %s\n", filepath.Base(saved))
	}
	fmt.Println("Restart any running soberlit daemon to use the restored database.")
	return nil
}
