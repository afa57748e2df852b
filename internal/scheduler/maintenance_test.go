package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/lms/internal/config"
	"github.com/mrlokans/lms/internal/database"
	"github.com/mrlokans/lms/internal/database/settings"
	"github.com/mrlokans/lms/internal/settingsstore"
)

type fakeCleaner struct {
	mu         sync.Mutex
	notifDays  []int
	auditDays  []int
	auditError error
}

func (f *fakeCleaner) CleanupNotifications(_ context.Context, days int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifDays = append(f.notifDays, days)
	return "task-notif", nil
}

func (f *fakeCleaner) CleanupAuditEvents(_ context.Context, days int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auditDays = append(f.auditDays, days)
	if f.auditError != nil {
		return "", f.auditError
	}
	return "task-audit", nil
}

type fakeAuditor struct {
	descriptions []string
	errs         []error
}

func (a *fakeAuditor) LogMaintenance(description string, err error) {
	a.descriptions = append(a.descriptions, description)
	a.errs = append(a.errs, err)
}

func setupScheduler(t *testing.T, enabled bool) (*MaintenanceScheduler, *settingsstore.SettingsStore, *fakeCleaner, *fakeAuditor) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "scheduler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := settingsstore.New(settings.NewRepository(db.DB),
		config.Maintenance{Enabled: enabled, Schedule: "0 3 * * *", NotificationRetentionDays: 90},
		config.Audit{RetentionDays: 30},
	)
	cleaner := &fakeCleaner{}
	auditor := &fakeAuditor{}
	return NewMaintenanceScheduler(store, cleaner, auditor), store, cleaner, auditor
}

func TestMaintenanceScheduler_RunNow(t *testing.T) {
	s, store, cleaner, auditor := setupScheduler(t, true)

	result, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "task-notif", result.NotificationTaskID)
	assert.Equal(t, "task-audit", result.AuditTaskID)
	assert.Equal(t, []int{90}, cleaner.notifDays)
	assert.Equal(t, []int{30}, cleaner.auditDays)

	status := store.GetMaintenanceStatus()
	assert.Equal(t, "success", status.Status)
	assert.NotNil(t, status.LastRunAt)
	require.Len(t, auditor.errs, 1)
	assert.NoError(t, auditor.errs[0])
}

func TestMaintenanceScheduler_RunUsesOverrides(t *testing.T) {
	s, store, cleaner, _ := setupScheduler(t, true)
	days := 7
	require.NoError(t, store.UpdateMaintenance(settingsstore.MaintenanceUpdate{NotificationRetentionDays: &days}))

	_, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{7}, cleaner.notifDays)
}

func TestMaintenanceScheduler_RunRecordsFailure(t *testing.T) {
	s, store, cleaner, auditor := setupScheduler(t, true)
	cleaner.auditError = errors.New("queue unavailable")

	_, err := s.RunNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue unavailable")
	assert.Len(t, cleaner.notifDays, 1, "notification cleanup still runs")

	status := store.GetMaintenanceStatus()
	assert.Equal(t, "failed", status.Status)
	assert.Contains(t, status.Message, "queue unavailable")
	require.Len(t, auditor.errs, 1)
	assert.Error(t, auditor.errs[0])
	assert.False(t, s.IsBusy())
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s, _, _, _ := setupScheduler(t, true)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())

	require.NoError(t, s.Start(context.Background()), "second start is a no-op")

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
	s.Stop()
}

func TestMaintenanceScheduler_Disabled(t *testing.T) {
	s, _, _, _ := setupScheduler(t, false)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestMaintenanceScheduler_Reschedule(t *testing.T) {
	s, store, _, _ := setupScheduler(t, true)
	require.NoError(t, s.Start(context.Background()))

	schedule := "30 5 * * *"
	require.NoError(t, store.UpdateMaintenance(settingsstore.MaintenanceUpdate{Schedule: &schedule}))
	require.NoError(t, s.Reschedule())
	defer s.Stop()

	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 5, next.Hour())
	assert.Equal(t, 30, next.Minute())
}

func TestMaintenanceScheduler_ContextCancelStops(t *testing.T) {
	s, _, _, _ := setupScheduler(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}
