package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/keyring"
	"github.com/julianstephens/soberlit/internal/storage/postgres"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
	Get    KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
	Status KeyringStatusCmd `cmd:"" help:"Check keyring availability." default:"1"`
}

// KeyringSetCmd stores database connection credentials in the OS keyring
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring"`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	if !postgres.IsConnString(cmd.ConnectionString) && !strings.Contains(cmd.ConnectionString, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is encrypted, so embedded credentials are acceptable here
		fmt.Println("⚠️  Warning: Connection string contains embedded credentials.")
		fmt.Println("   It will be stored as-is in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}

	fmt.Println("✓ Connection string stored successfully in OS keyring")
	fmt.Println("  soberlit will use it whenever --config is left at its default")
	return nil
}

type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring. Use 'soberlit keyring set' to store one")
		}
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	fmt.Println("Connection string retrieved from keyring:")
	fmt.Println(maskPassword(connStr))
	return nil
}

type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}

	fmt.Println("✓ Connection string deleted from OS keyring")
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		fmt.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	fmt.Println("✓ OS keyring is available")

	for _, item := range []struct {
		name string
		get  func() (string, error)
	}{
		{"Connection string", keyring.GetConnectionString},
		{"Buddy webhook secret", keyring.GetBuddySecret},
	} {
		if _, err := item.get(); err == nil {
			fmt.Printf("✓ %s is stored in keyring\n", item.name)
		} else if errors.Is(err, keyring.ErrNotFound) {
			fmt.Printf("ℹ No %s stored in keyring\n", strings.ToLower(item.name))
		}
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if postgres.IsConnString(connStr) {
		scheme := strings.Index(connStr, "://") + 3
		rest := connStr[scheme:]
		// The last @ separates user info from the host
		at := strings.LastIndex(rest, "@")
		if at == -1 {
			return connStr
		}
		if colon := strings.Index(rest[:at], ":"); colon != -1 {
			return connStr[:scheme] + rest[:colon] + ":****" + rest[at:]
		}
		return connStr
	}

	// DSN format (host=... password=...)
	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
