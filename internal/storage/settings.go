package storage

import (
	"context"
	"fmt"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/errors"
	"github.com/julianstephens/soberlit/internal/models"
)

// GetSettings reads application settings, applying defaults for missing keys.
func GetSettings(ctx context.Context, p Provider) (models.Settings, error) {
	data, err := p.GetNamespace(ctx, constants.NamespaceSettings)
	if err != nil {
		return models.Settings{}, errors.Store("read settings", err)
	}
	return models.MapToSettings(data)
}

// SaveSettings persists every settings key in one transaction.
func SaveSettings(ctx context.Context, p Provider, settings models.Settings) error {
	if err := p.PutNamespace(ctx, constants.NamespaceSettings, models.SettingsToMap(settings)); err != nil {
		return errors.Store("save settings", err)
	}
	return nil
}

// GetReminderPrefs reads reminder preferences, applying defaults for missing keys.
func GetReminderPrefs(ctx context.Context, p Provider) (models.ReminderPrefs, error) {
	data, err := p.GetNamespace(ctx, constants.NamespaceReminders)
	if err != nil {
		return models.ReminderPrefs{}, errors.Store("read reminder prefs", err)
	}
	return models.MapToReminderPrefs(data)
}

// SaveReminderPrefs validates and persists reminder preferences.
func SaveReminderPrefs(ctx context.Context, p Provider, prefs models.ReminderPrefs) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	if err := p.PutNamespace(ctx, constants.NamespaceReminders, models.ReminderPrefsToMap(prefs)); err != nil {
		return errors.Store("save reminder prefs", err)
	}
	return nil
}

// SeedDefaults writes default settings and reminder prefs for any namespace that is still empty.
func SeedDefaults(ctx context.Context, p Provider) error {
	settings, err := p.GetNamespace(ctx, constants.NamespaceSettings)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if len(settings) == 0 {
		if err := SaveSettings(ctx, p, models.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}

	prefs, err := p.GetNamespace(ctx, constants.NamespaceReminders)
	if err != nil {
		return fmt.Errorf("failed to read reminder prefs: %w", err)
	}
	if len(prefs) == 0 {
		if err := SaveReminderPrefs(ctx, p, models.DefaultReminderPrefs()); err != nil {
			return fmt.Errorf("failed to save default reminder prefs: %w", err)
		}
	}
	return nil
}
