package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/keyring"
	"github.com/julianstephens/soberlit/internal/logger"
	"github.com/julianstephens/soberlit/internal/storage"
	"github.com/julianstephens/soberlit/internal/storage/postgres"
	"github.com/julianstephens/soberlit/internal/storage/sqlite"
)

// lookupConnString is the keyring seam for tests.
var lookupConnString = keyring.GetConnectionString

// ResolveConfig picks the store location: the connection string environment
// variable wins, then an explicit --config, then a connection string saved in the
// keyring when --config was left at its default.
func ResolveConfig(config string) string {
	if env := os.Getenv(constants.ConnectionEnvVar); env != "" {
		return env
	}
	if config != constants.DefaultConfigPath {
		return config
	}
	connStr, err := lookupConnString()
	switch {
	case err == nil:
		return connStr
	case !errors.Is(err, keyring.ErrNotFound):
		logger.Debug("Keyring lookup failed, using default database path", "error", err)
	}
	return config
}

// OpenStore builds the provider for config without loading it. Connection strings
// read from the environment or the keyring are trusted to carry credentials.
func OpenStore(config string, trusted bool) (storage.Provider, error) {
	if postgres.IsConnString(config) {
		if ok, err := postgres.ValidateConnString(config); !ok {
			if trusted && errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return postgres.New(config), nil
			}
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w: store the connection string with 'soberlit keyring set' or export %s instead",
					err, constants.ConnectionEnvVar)
			}
			return nil, err
		}
		return postgres.New(config), nil
	}

	path, err := expandHome(config)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ConfigDir is where logs and backups live for a store.
func ConfigDir(store storage.Provider) string {
	path := store.GetConfigPath()
	if path == "postgresql" {
		if dir, err := expandHome(filepath.Dir(constants.DefaultConfigPath)); err == nil {
			return dir
		}
	}
	return filepath.Dir(path)
}
