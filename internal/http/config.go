package http

import (
	"github.com/mrlokans/lms/internal/audit"
	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/crypto"
	"github.com/mrlokans/lms/internal/database"
	"github.com/mrlokans/lms/internal/scheduler"
	"github.com/mrlokans/lms/internal/settingsstore"
	"github.com/mrlokans/lms/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Audit    *audit.Service

	// Authentication
	AuthService    *auth.Service
	AuthController *auth.AuthController // owned by the caller, which stops it
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	// Background work. Dispatcher runs tasks inline when the queue is disabled.
	Dispatcher *tasks.Dispatcher
	Settings   *settingsstore.SettingsStore
	Scheduler  *scheduler.MaintenanceScheduler

	// Encryptor seals live session meeting passwords.
	Encryptor *crypto.Encryptor

	// Application info
	Version string
}
