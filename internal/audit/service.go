// Package audit records privileged actions as AuditEvent rows. Writes happen
// in the background so request handlers never wait on the audit table.
package audit

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/lms/internal/database/audit"
	"github.com/mrlokans/lms/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records an event synchronously.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Error().Err(err).Str("action", event.Action).Msg("failed to log audit event")
		}
	}()
}

// Wait blocks until every LogAsync write has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogAuth records a login, logout, registration or password event.
func (s *Service) LogAuth(userID uint, action, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}
	s.LogAsync(event)
}

// LogEnrollment records a user joining or leaving a course.
func (s *Service) LogEnrollment(actorID uint, action string, enrollmentID, userID, courseID uint) {
	s.LogAsync(&entities.AuditEvent{
		UserID:     actorID,
		EventType:  entities.AuditEventEnrollment,
		Action:     action,
		EntityType: "enrollment",
		EntityID:   &enrollmentID,
		Metadata:   metadata(map[string]any{"user_id": userID, "course_id": courseID}),
		Status:     entities.AuditStatusSuccess,
	})
}

// LogGrade records a submission being graded.
func (s *Service) LogGrade(actorID, submissionID uint, grade string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      actorID,
		EventType:   entities.AuditEventGrade,
		Action:      "grade_submission",
		Description: "Graded " + grade,
		EntityType:  "submission",
		EntityID:    &submissionID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogBatch records archive, suspension and membership changes on a batch.
func (s *Service) LogBatch(actorID, batchID uint, action, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      actorID,
		EventType:   entities.AuditEventBatch,
		Action:      action,
		Description: description,
		EntityType:  "batch",
		EntityID:    &batchID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogDelete records a deletion event.
func (s *Service) LogDelete(actorID uint, entityType string, entityID uint, entityName string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      actorID,
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: truncate("Deleted "+entityType+": "+entityName, 500),
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogSettings records a settings change event.
func (s *Service) LogSettings(actorID uint, action, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      actorID,
		EventType:   entities.AuditEventSettings,
		Action:      action,
		Description: description,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogMaintenance records the outcome of a maintenance run.
func (s *Service) LogMaintenance(description string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMaintenance,
		Action:      "maintenance_run",
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// List returns a filtered page of events.
func (s *Service) List(f audit.Filter) ([]entities.AuditEvent, int64, error) {
	return s.repo.List(f)
}

func (s *Service) Get(id uint) (*entities.AuditEvent, error) {
	return s.repo.GetEvent(id)
}

// DeleteOldEvents removes events older than retention.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(time.Now().Add(-retention))
}

func metadata(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
