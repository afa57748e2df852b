// Package settingsstore resolves platform settings that admins can override
// at runtime. Every value is looked up in the settings table first, then in
// the environment (through config), then falls back to the built-in default.
package settingsstore

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/config"
	"github.com/mrlokans/lms/internal/database/settings"
)

// Where an effective value came from.
const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// Priority: database > environment > default
type SettingsStore struct {
	repo        *settings.Repository
	maintenance config.Maintenance
	audit       config.Audit
}

// New creates a store over repo. maintenance and audit carry the values
// loaded from the environment or the config defaults.
func New(repo *settings.Repository, maintenance config.Maintenance, audit config.Audit) *SettingsStore {
	return &SettingsStore{repo: repo, maintenance: maintenance, audit: audit}
}

// lookup returns the stored override for key, or fallback with its source.
func (s *SettingsStore) lookup(key, envVar, fallback string) (string, string) {
	setting, err := s.repo.GetSetting(key)
	if err == nil && setting.Value != "" {
		return setting.Value, SourceDatabase
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Err(err).Str("key", key).Msg("failed to read setting, using fallback")
	}
	if os.Getenv(envVar) != "" {
		return fallback, SourceEnvironment
	}
	return fallback, SourceDefault
}

func (s *SettingsStore) lookupInt(key, envVar string, fallback int) (int, string) {
	raw, source := s.lookup(key, envVar, strconv.Itoa(fallback))
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback, SourceDefault
	}
	return n, source
}

func (s *SettingsStore) lookupBool(key, envVar string, fallback bool) (bool, string) {
	raw, source := s.lookup(key, envVar, strconv.FormatBool(fallback))
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, SourceDefault
	}
	return b, source
}
