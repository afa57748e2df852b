package entities

import "time"

// Batch is a cohort of students and staff taking a course over a date range.
type Batch struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	BatchName           string     `gorm:"size:255;not null" json:"batch_name"`
	CourseID            uint       `gorm:"index;not null" json:"course_id"`
	Course              *Course    `json:"course,omitempty"`
	StartDate           *time.Time `json:"start_date"`
	EndDate             *time.Time `json:"end_date"`
	IsArchived          bool       `gorm:"default:false;index" json:"is_archived"`
	ManagerID           *uint      `json:"manager_id"`
	AssistantManagerID  *uint      `json:"assistant_manager_id"`
	CourseCoordinatorID *uint      `json:"course_coordinator_id"`
	SupportContactID    *uint      `json:"support_contact_id"`

	StudentCount int64 `gorm:"-" json:"student_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Batch) TableName() string {
	return "batches"
}

// ManagedBy reports whether userID holds one of the batch manager positions.
func (b *Batch) ManagedBy(userID uint) bool {
	for _, id := range []*uint{b.ManagerID, b.AssistantManagerID, b.CourseCoordinatorID, b.SupportContactID} {
		if id != nil && *id == userID {
			return true
		}
	}
	return false
}

type BatchStudent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BatchID     uint      `gorm:"uniqueIndex:idx_batch_student;not null" json:"batch_id"`
	Batch       *Batch    `json:"batch,omitempty"`
	StudentID   uint      `gorm:"uniqueIndex:idx_batch_student;index;not null" json:"student_id"`
	Student     *User     `json:"student,omitempty"`
	IsSuspended bool      `gorm:"default:false" json:"is_suspended"`
	JoinedAt    time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (BatchStudent) TableName() string {
	return "batch_students"
}

type BatchStaff struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BatchID    uint      `gorm:"uniqueIndex:idx_batch_staff;not null" json:"batch_id"`
	StaffID    uint      `gorm:"uniqueIndex:idx_batch_staff;index;not null" json:"staff_id"`
	Staff      *User     `json:"staff,omitempty"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assigned_at"`
}

func (BatchStaff) TableName() string {
	return "batch_staff"
}
