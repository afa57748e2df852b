// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Task Queue Handlers
//
//   - NotificationWriter: Stores fanned-out notifications (internal/tasks/notify_users.go)
//   - NotificationMailer: Emails notifications to opted-in users (internal/tasks/notify_users.go)
//   - ProgressRecomputer: Re-derives course progress (internal/tasks/recompute_progress.go)
//   - NotificationCleaner: Purges read notifications (internal/tasks/retention.go)
//   - AuditEventCleaner: Purges old audit events (internal/tasks/retention.go)
//
// ## Maintenance
//
//   - Cleaner: Hands cleanup work to the queue (internal/scheduler/maintenance.go)
//   - Auditor: Records maintenance runs (internal/scheduler/maintenance.go)
//
// ## Authentication
//
//   - Auditor: Receives login and logout events (internal/auth/handlers.go)
//   - Mailer: Delivers verification and reset links (internal/auth/mailer.go)
//
// # Adding a New Background Task
//
//  1. Define the task and its processor in internal/tasks/
//
//     type ExpireEnrollmentsTask struct {
//         CourseID uint `json:"course_id"`
//     }
//
//     func (t ExpireEnrollmentsTask) Config() backlite.QueueConfig
//
//     func ExpireEnrollmentsProcessor(store EnrollmentExpirer) backlite.QueueProcessor[ExpireEnrollmentsTask]
//
//  2. Add a Dispatcher method that queues it, or runs it inline when the
//     queue is disabled, and list the queue in Dispatcher.Queues.
//
//  3. Add a compile-time check for the store in checks.go.
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., certificates):
//
//  1. Create sub-package: internal/database/certificates/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Return raw gorm errors; callers classify them with internal/database/dberr.
//
//  4. Add the entities to database.Models so AutoMigrate picks them up.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
