// Package keyring stores soberlit secrets in the OS keyring: the PostgreSQL
// connection string and the accountability buddy's webhook secret.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/soberlit/internal/constants"
)

var (
	// ErrNotFound is returned when no secret is stored under the requested name
	ErrNotFound = errors.New("secret not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	secret, err := keyring.Get(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func set(user, what, secret string) error {
	if secret == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, user, secret); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func del(user, what string) error {
	if err := keyring.Delete(constants.AppName, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	return nil
}

// GetConnectionString returns the stored PostgreSQL connection string.
func GetConnectionString() (string, error) {
	return get(constants.DefaultKeyringUser)
}

func SetConnectionString(connStr string) error {
	return set(constants.DefaultKeyringUser, "connection string", connStr)
}

func DeleteConnectionString() error {
	return del(constants.DefaultKeyringUser, "connection string")
}

// GetBuddySecret returns the shared secret sent with buddy webhook calls.
func GetBuddySecret() (string, error) {
	return get(constants.BuddyKeyringUser)
}

func SetBuddySecret(secret string) error {
	return set(constants.BuddyKeyringUser, "buddy secret", secret)
}

func DeleteBuddySecret() error {
	return del(constants.BuddyKeyringUser, "buddy secret")
}

// IsAvailable is a best-effort check: a read that fails with anything other than
// "not found" means there is no usable keyring.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
