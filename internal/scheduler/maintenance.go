// Package scheduler runs the periodic maintenance job on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/lms/internal/settingsstore"
)

// ErrAlreadyRunning is returned by RunNow while a run is in progress.
var ErrAlreadyRunning = errors.New("maintenance is already running")

// Cleaner hands cleanup work to the task queue. *tasks.Dispatcher implements it.
type Cleaner interface {
	CleanupNotifications(ctx context.Context, retentionDays int) (string, error)
	CleanupAuditEvents(ctx context.Context, retentionDays int) (string, error)
}

// Auditor records maintenance runs. *audit.Service implements it.
type Auditor interface {
	LogMaintenance(description string, err error)
}

// RunResult describes one maintenance run. Task IDs are empty when the work
// ran inline.
type RunResult struct {
	StartedAt          time.Time `json:"started_at"`
	NotificationTaskID string    `json:"notification_task_id,omitempty"`
	AuditTaskID        string    `json:"audit_task_id,omitempty"`
}

// MaintenanceScheduler triggers notification and audit cleanup.
type MaintenanceScheduler struct {
	settings *settingsstore.SettingsStore
	cleaner  Cleaner
	auditor  Auditor

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isBusy     bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a new scheduler instance. auditor may be nil.
func NewMaintenanceScheduler(settings *settingsstore.SettingsStore, cleaner Cleaner, auditor Auditor) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		settings: settings,
		cleaner:  cleaner,
		auditor:  auditor,
		cron:     newCron(),
	}
}

func newCron() *cron.Cron {
	return cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
}

// Start begins the scheduler if maintenance is enabled
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	cfg := s.settings.GetMaintenanceConfig()
	if !cfg.Enabled {
		log.Info().Msg("maintenance scheduler: disabled")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", cfg.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(cfg.Schedule, func() {
		if _, err := s.run(context.Background()); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			log.Error().Err(err).Msg("scheduled maintenance failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(cfg.Schedule)
	log.Info().
		Str("schedule", cfg.Schedule).
		Str("description", settingsstore.GetCronDescription(cfg.Schedule)).
		Time("next_run", *nextRun).
		Msg("maintenance scheduler: started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	c, entryID, cancel := s.cron, s.entryID, s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	// The job takes s.mu, so wait for it without holding the lock.
	<-c.Stop().Done()
	c.Remove(entryID)
	if cancel != nil {
		cancel()
	}

	log.Info().Msg("maintenance scheduler: stopped")
}

// Reschedule applies changed settings.
func (s *MaintenanceScheduler) Reschedule() error {
	s.Stop()
	s.mu.Lock()
	s.cron = newCron()
	s.mu.Unlock()
	return s.Start(context.Background())
}

// RunNow triggers an immediate run.
func (s *MaintenanceScheduler) RunNow(ctx context.Context) (*RunResult, error) {
	return s.run(ctx)
}

func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsBusy reports whether a maintenance run is in progress.
func (s *MaintenanceScheduler) IsBusy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isBusy
}

// GetNextRunTime returns when the next run will occur
func (s *MaintenanceScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *MaintenanceScheduler) run(ctx context.Context) (*RunResult, error) {
	s.mu.Lock()
	if s.isBusy {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.isBusy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isBusy = false
		s.mu.Unlock()
	}()

	cfg := s.settings.GetMaintenanceConfig()
	result := &RunResult{StartedAt: time.Now()}
	var failures []string

	id, err := s.cleaner.CleanupNotifications(ctx, cfg.NotificationRetentionDays)
	if err != nil {
		failures = append(failures, "notifications: "+err.Error())
	}
	result.NotificationTaskID = id

	id, err = s.cleaner.CleanupAuditEvents(ctx, cfg.AuditRetentionDays)
	if err != nil {
		failures = append(failures, "audit events: "+err.Error())
	}
	result.AuditTaskID = id

	if len(failures) > 0 {
		runErr := errors.New(strings.Join(failures, "; "))
		s.record("failed", "Maintenance failed: "+runErr.Error(), runErr)
		return result, runErr
	}

	msg := fmt.Sprintf("Cleanup of notifications older than %d days and audit events older than %d days started",
		cfg.NotificationRetentionDays, cfg.AuditRetentionDays)
	s.record("success", msg, nil)
	return result, nil
}

func (s *MaintenanceScheduler) record(status, message string, err error) {
	if serr := s.settings.SetMaintenanceStatus(status, message); serr != nil {
		log.Warn().Err(serr).Msg("failed to record maintenance status")
	}
	if s.auditor != nil {
		s.auditor.LogMaintenance(message, err)
	}
	log.Info().Str("status", status).Msg(message)
}
