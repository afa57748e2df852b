package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/lms/internal/entities"
)

type fakeStore struct {
	mu        sync.Mutex
	notified  map[uint][]string
	courses   []uint
	notifCut  time.Time
	auditKeep time.Duration
	done      chan struct{}
	err       error
	// optedOut users get the notification but no email.
	optedOut map[uint]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{notified: map[uint][]string{}, done: make(chan struct{}, 8)}
}

func (f *fakeStore) CreateForUsers(userIDs []uint, message string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	for _, id := range userIDs {
		f.notified[id] = append(f.notified[id], message)
	}
	f.done <- struct{}{}
	return len(userIDs), nil
}

func (f *fakeStore) EmailRecipients(userIDs []uint) ([]entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.User
	for _, id := range userIDs {
		if !f.optedOut[id] {
			out = append(out, entities.User{ID: id, Email: fmt.Sprintf("user%d@example.com", id)})
		}
	}
	return out, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent map[string]string
	fail map[uint]bool
}

func (m *fakeMailer) SendNotification(_ context.Context, user *entities.User, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[user.ID] {
		return errors.New("smtp unavailable")
	}
	m.sent[user.Email] = message
	return nil
}

func (f *fakeStore) RecomputeCourse(courseID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses = append(f.courses, courseID)
	return 1, nil
}

func (f *fakeStore) DeleteReadBefore(cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifCut = cutoff
	return 3, nil
}

func (f *fakeStore) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auditKeep = retention
	return 2, nil
}

func inlineDispatcher(store *fakeStore) *Dispatcher {
	return NewDispatcher(nil, Handlers{
		Notifications: store,
		Progress:      store,
		NotifCleaner:  store,
		AuditCleaner:  store,
	})
}

func TestDispatcher_InlineNotify(t *testing.T) {
	store := newFakeStore()
	d := inlineDispatcher(store)
	assert.False(t, d.Async())

	id, err := d.NotifyUsers(context.Background(), []uint{1, 2}, "Class moved to 5pm", "batch:1")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, []string{"Class moved to 5pm"}, store.notified[1])
	assert.Equal(t, []string{"Class moved to 5pm"}, store.notified[2])
}

func TestDispatcher_InlineNotifyEmailsOptedInUsers(t *testing.T) {
	store := newFakeStore()
	store.optedOut = map[uint]bool{2: true}
	mailer := &fakeMailer{sent: map[string]string{}, fail: map[uint]bool{3: true}}
	d := NewDispatcher(nil, Handlers{Notifications: store, Mailer: mailer})

	_, err := d.NotifyUsers(context.Background(), []uint{1, 2, 3}, "Exam on Friday", "broadcast")
	require.NoError(t, err, "mail failures do not fail the fan-out")

	assert.Len(t, store.notified, 3, "every user gets the in-app notification")
	assert.Equal(t, map[string]string{"user1@example.com": "Exam on Friday"}, mailer.sent)
}

func TestDispatcher_NotifyValidation(t *testing.T) {
	store := newFakeStore()
	d := inlineDispatcher(store)

	_, err := d.NotifyUsers(context.Background(), []uint{1}, "   ", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = d.NotifyUsers(context.Background(), nil, "hello", "")
	assert.NoError(t, err)
	assert.Empty(t, store.notified)
}

func TestDispatcher_InlineErrorsPropagate(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("disk full")
	d := inlineDispatcher(store)

	_, err := d.NotifyUsers(context.Background(), []uint{1}, "hello", "")
	assert.ErrorContains(t, err, "disk full")
}

func TestDispatcher_InlineMaintenance(t *testing.T) {
	store := newFakeStore()
	d := inlineDispatcher(store)
	ctx := context.Background()

	_, err := d.CleanupNotifications(ctx, 10)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -10), store.notifCut, time.Minute)

	_, err = d.CleanupAuditEvents(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, store.auditKeep, "zero retention uses the default")

	_, err = d.RecomputeCourseProgress(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, store.courses)

	_, err = d.RecomputeCourseProgress(ctx, 0)
	assert.Error(t, err)
}

func TestDispatcher_QueuedNotify(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1
	client, err := NewClient(filepath.Join(t.TempDir(), "lms.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	store := newFakeStore()
	d := NewDispatcher(client, Handlers{
		Notifications: store,
		Progress:      store,
		NotifCleaner:  store,
		AuditCleaner:  store,
	})
	client.Register(d.Queues()...)
	assert.True(t, d.Async())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := d.NotifyUsers(ctx, []uint{5}, "New assignment posted", "batch:3")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case <-store.done:
	case <-time.After(5 * time.Second):
		t.Fatal("notification task was not executed within timeout")
	}

	store.mu.Lock()
	assert.Equal(t, []string{"New assignment posted"}, store.notified[5])
	store.mu.Unlock()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	client.Stop(stopCtx)
}

func TestProcessors_MissingCleaner(t *testing.T) {
	err := CleanupNotificationsProcessor(nil)(context.Background(), CleanupNotificationsTask{})
	assert.ErrorIs(t, err, errCleanerMissing)

	err = CleanupAuditEventsProcessor(nil)(context.Background(), CleanupAuditEventsTask{RetentionDays: 5})
	assert.ErrorIs(t, err, errCleanerMissing)
}
