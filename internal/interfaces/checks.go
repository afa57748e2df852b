package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/lms/internal/audit"
	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/notifications"
	"github.com/mrlokans/lms/internal/database/progress"
	"github.com/mrlokans/lms/internal/scheduler"
	"github.com/mrlokans/lms/internal/tasks"
)

// =============================================================================
// Task Queue Handlers
// =============================================================================

var _ tasks.NotificationWriter = (*notifications.Repository)(nil)
var _ tasks.NotificationCleaner = (*notifications.Repository)(nil)
var _ tasks.ProgressRecomputer = (*progress.Repository)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.NotificationMailer = auth.LogMailer{}

// =============================================================================
// Maintenance
// =============================================================================

var _ scheduler.Cleaner = (*tasks.Dispatcher)(nil)
var _ scheduler.Auditor = (*audit.Service)(nil)

// =============================================================================
// Authentication
// =============================================================================

var _ auth.Auditor = (*audit.Service)(nil)
var _ auth.Mailer = auth.LogMailer{}
