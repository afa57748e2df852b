package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/lms/internal/entities"
)

// NotificationWriter stores one notification per user and resolves who of
// them also wants it by email.
type NotificationWriter interface {
	CreateForUsers(userIDs []uint, message string) (int, error)
	EmailRecipients(userIDs []uint) ([]entities.User, error)
}

// NotificationMailer emails a notification to one user. auth.LogMailer
// implements it.
type NotificationMailer interface {
	SendNotification(ctx context.Context, user *entities.User, message string) error
}

// NotifyUsersTask fans a message out to a list of users.
type NotifyUsersTask struct {
	UserIDs []uint `json:"user_ids"`
	Message string `json:"message"`
	// Source names the trigger for logs, e.g. "broadcast" or "batch:12".
	Source string `json:"source,omitempty"`
}

func (t NotifyUsersTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "notify_users",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// NotifyUsersProcessor stores the notifications, then emails the users who
// opted in. Mail failures are logged and skipped so a retry never duplicates
// stored notifications. mailer may be nil.
func NotifyUsersProcessor(writer NotificationWriter, mailer NotificationMailer) backlite.QueueProcessor[NotifyUsersTask] {
	return func(ctx context.Context, task NotifyUsersTask) error {
		if writer == nil {
			return fmt.Errorf("notification writer not configured")
		}
		created, err := writer.CreateForUsers(task.UserIDs, task.Message)
		if err != nil {
			return fmt.Errorf("notify users: %w", err)
		}
		log.Debug().Int("created", created).Str("source", task.Source).Msg("notifications delivered")

		if mailer == nil {
			return nil
		}
		recipients, err := writer.EmailRecipients(task.UserIDs)
		if err != nil {
			log.Error().Err(err).Str("source", task.Source).Msg("resolve notification email recipients")
			return nil
		}
		sent := 0
		for i := range recipients {
			if err := mailer.SendNotification(ctx, &recipients[i], task.Message); err != nil {
				log.Warn().Err(err).Uint("user_id", recipients[i].ID).Msg("notification email failed")
				continue
			}
			sent++
		}
		log.Debug().Int("emailed", sent).Str("source", task.Source).Msg("notification emails sent")
		return nil
	}
}

func NewNotifyUsersQueue(writer NotificationWriter, mailer NotificationMailer) backlite.Queue {
	return backlite.NewQueue(NotifyUsersProcessor(writer, mailer))
}
