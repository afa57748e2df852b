package tasks

import (
	"context"
	"errors"
	"strings"

	"github.com/mikestefanello/backlite"
)

// ErrEmptyMessage is returned before a notification fan-out is accepted.
var ErrEmptyMessage = errors.New("empty notification message")

// Handlers are the stores the built-in queues act on.
type Handlers struct {
	Notifications NotificationWriter
	Progress      ProgressRecomputer
	NotifCleaner  NotificationCleaner
	AuditCleaner  AuditEventCleaner
	// Mailer emails notifications to opted-in users. Nil skips email.
	Mailer NotificationMailer
}

// Dispatcher hands work to the background queue, or runs it inline when the
// queue is disabled. Inline runs return an empty task ID.
type Dispatcher struct {
	client   *Client
	handlers Handlers
}

// NewDispatcher creates a dispatcher. client may be nil.
func NewDispatcher(client *Client, h Handlers) *Dispatcher {
	return &Dispatcher{client: client, handlers: h}
}

// Queues returns the queues to register on the client before Start.
func (d *Dispatcher) Queues() []backlite.Queue {
	return []backlite.Queue{
		NewNotifyUsersQueue(d.handlers.Notifications, d.handlers.Mailer),
		NewRecomputeCourseProgressQueue(d.handlers.Progress),
		NewCleanupNotificationsQueue(d.handlers.NotifCleaner),
		NewCleanupAuditEventsQueue(d.handlers.AuditCleaner),
	}
}

// Async reports whether tasks go through the queue.
func (d *Dispatcher) Async() bool {
	return d.client != nil
}

// Client returns the queue client, or nil when tasks run inline.
func (d *Dispatcher) Client() *Client {
	return d.client
}

// NotifyUsers stores message for every user. An empty user list is a no-op.
func (d *Dispatcher) NotifyUsers(ctx context.Context, userIDs []uint, message, source string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	if len(userIDs) == 0 {
		return "", nil
	}
	task := NotifyUsersTask{UserIDs: userIDs, Message: message, Source: source}
	return run(ctx, d, task, NotifyUsersProcessor(d.handlers.Notifications, d.handlers.Mailer))
}

// RecomputeCourseProgress refreshes every enrollment of the course.
func (d *Dispatcher) RecomputeCourseProgress(ctx context.Context, courseID uint) (string, error) {
	task := RecomputeCourseProgressTask{CourseID: courseID}
	return run(ctx, d, task, RecomputeCourseProgressProcessor(d.handlers.Progress))
}

func (d *Dispatcher) CleanupNotifications(ctx context.Context, retentionDays int) (string, error) {
	task := CleanupNotificationsTask{RetentionDays: retentionDays}
	return run(ctx, d, task, CleanupNotificationsProcessor(d.handlers.NotifCleaner))
}

func (d *Dispatcher) CleanupAuditEvents(ctx context.Context, retentionDays int) (string, error) {
	task := CleanupAuditEventsTask{RetentionDays: retentionDays}
	return run(ctx, d, task, CleanupAuditEventsProcessor(d.handlers.AuditCleaner))
}

func run[T backlite.Task](ctx context.Context, d *Dispatcher, task T, inline backlite.QueueProcessor[T]) (string, error) {
	if d.client == nil {
		return "", inline(ctx, task)
	}
	ids, err := d.client.Add(task).Save()
	if err != nil {
		return "", err
	}
	return ids[0], nil
}
