// Package audit stores the trail of privileged actions: logins, enrollments,
// grading, batch membership changes, deletions and maintenance runs.
//
// # Usage
//
//	repo := audit.NewRepository(db)
//	events, total, err := repo.List(audit.Filter{EventType: entities.AuditEventGrade})
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

// Filter narrows List. Zero values match everything.
type Filter struct {
	UserID     uint
	EventType  entities.AuditEventType
	EntityType string
	EntityID   *uint
	Since      *time.Time
	Limit      int
	Offset     int
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event, stamping CreatedAt when unset.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// List returns a page of events, most recent first, along with the total
// count matching the filter.
func (r *Repository) List(f Filter) ([]entities.AuditEvent, int64, error) {
	query := r.db.Model(&entities.AuditEvent{})
	if f.UserID > 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.EventType != "" {
		query = query.Where("event_type = ?", f.EventType)
	}
	if f.EntityType != "" {
		query = query.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		query = query.Where("entity_id = ?", *f.EntityID)
	}
	if f.Since != nil {
		query = query.Where("created_at > ?", *f.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(f.Offset, 0)

	var events []entities.AuditEvent
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

func (r *Repository) GetEvent(id uint) (*entities.AuditEvent, error) {
	var event entities.AuditEvent
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteOlderThan removes events created before cutoff and returns how many
// were removed.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
