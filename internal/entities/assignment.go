package entities

import "time"

type Assignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"index;not null" json:"course_id"`
	SyllabusID  *uint     `gorm:"index" json:"syllabus_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueDate     time.Time `gorm:"not null" json:"due_date"`
	CreatedByID *uint     `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Assignment) TableName() string {
	return "assignments"
}

type Submission struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	AssignmentID uint        `gorm:"uniqueIndex:idx_submission_student;not null" json:"assignment_id"`
	Assignment   *Assignment `json:"assignment,omitempty"`
	StudentID    uint        `gorm:"uniqueIndex:idx_submission_student;index;not null" json:"student_id"`
	FileURL      string      `gorm:"size:500;not null" json:"file_url"`
	SubmittedAt  time.Time   `gorm:"autoCreateTime" json:"submitted_at"`
	Grade        *string     `gorm:"size:10" json:"grade"`
	Feedback     string      `gorm:"type:text" json:"feedback"`
	GradedAt     *time.Time  `json:"graded_at"`
}

func (Submission) TableName() string {
	return "assignment_submissions"
}
