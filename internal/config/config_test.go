package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, 48*time.Hour, cfg.Auth.VerificationTokenTTL)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, DefaultMaintenanceSchedule, cfg.Maintenance.Schedule)
	assert.Equal(t, 90, cfg.Maintenance.NotificationRetentionDays)
	assert.True(t, cfg.Tasks.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTH_BCRYPT_COST", "4")
	t.Setenv("MAINTENANCE_SCHEDULE", "*/5 * * * *")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.Equal(t, "*/5 * * * *", cfg.Maintenance.Schedule)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	t.Run("rejects unknown log level", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Log.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects bcrypt cost below minimum", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Auth.BcryptCost = 2
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects empty database path", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Database.Path = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects malformed public url", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Auth.PublicURL = "not a url"
		assert.Error(t, cfg.Validate())
	})
}
