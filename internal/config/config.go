package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Log
		Tasks
		Auth
		Audit
		Maintenance
		Content
	}

	HTTP struct {
		Port int32  `validate:"required,min=1,max=65535"`
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int `validate:"min=0"`
	}
	Database struct {
		Path string `validate:"required"`
	}
	Log struct {
		Level  string `validate:"oneof=trace debug info warn error"`
		Format string `validate:"oneof=json console"`
	}
	Tasks struct {
		Enabled           bool
		Workers           int `validate:"min=1"`
		MaxRetries        int `validate:"min=0"`
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration `validate:"required"`
		TokenExpiry     time.Duration
		BcryptCost      int  `validate:"min=4,max=31"`
		SecureCookies   bool // false for local dev without HTTPS

		MaxLoginAttempts int `validate:"min=1"`
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration

		VerificationTokenTTL time.Duration `validate:"required"`
		PasswordResetTTL     time.Duration `validate:"required"`
		// Base URL used to build links handed to the mailer.
		PublicURL string `validate:"omitempty,url"`
	}
	Audit struct {
		RetentionDays int `validate:"min=1"`
	}
	Maintenance struct {
		Enabled                   bool
		Schedule                  string `validate:"required"` // cron: "0 3 * * *" = daily at 03:00
		NotificationRetentionDays int    `validate:"min=1"`
	}
	Content struct {
		// Base64-encoded 32-byte key for meeting credentials. Derived from the
		// session secret when empty.
		EncryptionKey string
	}
)

var validate = validator.New()

// Validate checks that all required settings are present and in range.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("audit_retention_days", 30)

	// Auth defaults
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_token_expiry", "720h")     // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration
	v.SetDefault("auth_verification_token_ttl", "48h")
	v.SetDefault("auth_password_reset_ttl", "1h")
	v.SetDefault("auth_public_url", "http://localhost:8188")

	// Maintenance defaults
	v.SetDefault("maintenance_enabled", true)
	v.SetDefault("maintenance_schedule", DefaultMaintenanceSchedule)
	v.SetDefault("notification_retention_days", 90)

	v.SetDefault("content_encryption_key", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			SessionSecret:        v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:      v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:          v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:           v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:        v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts:     v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:      v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:      v.GetDuration("AUTH_LOCKOUT_DURATION"),
			VerificationTokenTTL: v.GetDuration("AUTH_VERIFICATION_TOKEN_TTL"),
			PasswordResetTTL:     v.GetDuration("AUTH_PASSWORD_RESET_TTL"),
			PublicURL:            v.GetString("AUTH_PUBLIC_URL"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Maintenance: Maintenance{
			Enabled:                   v.GetBool("MAINTENANCE_ENABLED"),
			Schedule:                  v.GetString("MAINTENANCE_SCHEDULE"),
			NotificationRetentionDays: v.GetInt("NOTIFICATION_RETENTION_DAYS"),
		},
		Content: Content{
			EncryptionKey: v.GetString("CONTENT_ENCRYPTION_KEY"),
		},
	}
}
