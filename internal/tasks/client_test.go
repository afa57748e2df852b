package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/lms/internal/config"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(dir, "lms.db"), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, dir
}

func TestQueueDBPath(t *testing.T) {
	assert.Equal(t, "data/lms-tasks.db", QueueDBPath("data/lms.db"))
	assert.Equal(t, "lms-tasks", QueueDBPath("lms"))
	assert.Equal(t, "/var/lib/app.v2-tasks.sqlite", QueueDBPath("/var/lib/app.v2.sqlite"))
}

func TestNewClient_CreatesQueueDatabase(t *testing.T) {
	_, dir := newTestClient(t)

	_, err := os.Stat(filepath.Join(dir, "lms-tasks.db"))
	assert.NoError(t, err)
}

func TestClient_StopBeforeStart(t *testing.T) {
	client, _ := newTestClient(t)

	assert.True(t, client.Stop(context.Background()))
}

func TestClient_StartStop(t *testing.T) {
	client, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx))
}

type echoTask struct {
	Value string `json:"value"`
}

func (t echoTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "echo",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
		Retention: &backlite.Retention{
			Duration: time.Hour,
		},
	}
}

func TestClient_ProcessesEnqueuedTask(t *testing.T) {
	client, _ := newTestClient(t)

	executed := make(chan string, 1)
	client.Register(backlite.NewQueue(func(ctx context.Context, task echoTask) error {
		executed <- task.Value
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	ids, err := client.Add(echoTask{Value: "hello"}).Save()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	select {
	case val := <-executed:
		assert.Equal(t, "hello", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed")
	}

	// The completion row is written after the processor returns.
	require.Eventually(t, func() bool {
		status, err := client.Status(ctx, ids[0])
		return err == nil && StatusString(status) == "success"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.Tasks{Workers: 4, RetentionDuration: 2 * time.Hour})

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2*time.Hour, cfg.RetentionDuration)
	assert.Equal(t, 3, cfg.MaxRetries, "zero values fall back to defaults")
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
}

func TestQueueConfigs(t *testing.T) {
	tests := []struct {
		task backlite.Task
		name string
	}{
		{NotifyUsersTask{}, "notify_users"},
		{RecomputeCourseProgressTask{}, "recompute_course_progress"},
		{CleanupNotificationsTask{}, "cleanup_notifications"},
		{CleanupAuditEventsTask{}, "cleanup_audit_events"},
	}
	for _, tt := range tests {
		cfg := tt.task.Config()
		assert.Equal(t, tt.name, cfg.Name)
		assert.Greater(t, cfg.MaxAttempts, 0)
		assert.NotNil(t, cfg.Retention)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusString(backlite.TaskStatusPending))
	assert.Equal(t, "success", StatusString(backlite.TaskStatusSuccess))
	assert.Equal(t, "not_found", StatusString(backlite.TaskStatusNotFound))
}
