package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
)

const (
	defaultNotificationRetentionDays = 90
	defaultAuditRetentionDays        = 30
)

var errCleanerMissing = errors.New("cleaner not configured")

// NotificationCleaner deletes read notifications created before a cutoff.
type NotificationCleaner interface {
	DeleteReadBefore(cutoff time.Time) (int64, error)
}

// AuditEventCleaner deletes audit events older than the retention.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// CleanupNotificationsTask purges read notifications past the retention.
type CleanupNotificationsTask struct {
	RetentionDays int `json:"retention_days"`
}

// CleanupAuditEventsTask purges audit events past the retention.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Both cleanup queues retry slowly and keep payloads only for failures.
func retentionQueue(name string, timeout time.Duration) backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        name,
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     timeout,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func (t CleanupNotificationsTask) Config() backlite.QueueConfig {
	return retentionQueue("cleanup_notifications", 5*time.Minute)
}

func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return retentionQueue("cleanup_audit_events", 2*time.Minute)
}

func retentionDays(days, fallback int) int {
	if days <= 0 {
		return fallback
	}
	return days
}

func CleanupNotificationsProcessor(cleaner NotificationCleaner) backlite.QueueProcessor[CleanupNotificationsTask] {
	return func(ctx context.Context, task CleanupNotificationsTask) error {
		if cleaner == nil {
			return fmt.Errorf("cleanup notifications: %w", errCleanerMissing)
		}
		days := retentionDays(task.RetentionDays, defaultNotificationRetentionDays)

		deleted, err := cleaner.DeleteReadBefore(time.Now().AddDate(0, 0, -days))
		if err != nil {
			return fmt.Errorf("cleanup notifications: %w", err)
		}
		log.Info().Int64("deleted", deleted).Int("retention_days", days).Msg("cleaned up read notifications")
		return nil
	}
}

func CleanupAuditEventsProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return fmt.Errorf("cleanup audit events: %w", errCleanerMissing)
		}
		days := retentionDays(task.RetentionDays, defaultAuditRetentionDays)

		deleted, err := cleaner.DeleteOldEvents(time.Duration(days) * 24 * time.Hour)
		if err != nil {
			return fmt.Errorf("cleanup audit events: %w", err)
		}
		log.Info().Int64("deleted", deleted).Int("retention_days", days).Msg("cleaned up audit events")
		return nil
	}
}

func NewCleanupNotificationsQueue(cleaner NotificationCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupNotificationsProcessor(cleaner))
}

func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner))
}
