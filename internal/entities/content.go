package entities

import "time"

// Syllabus is an ordered module of a course. Videos, quizzes and assignments
// hang off it.
type Syllabus struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"uniqueIndex:idx_syllabus_course_title;not null" json:"course_id"`
	Title       string    `gorm:"uniqueIndex:idx_syllabus_course_title;size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Order       int       `gorm:"column:sort_order;default:0" json:"order"`
	Videos      []Video   `json:"videos,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Syllabus) TableName() string {
	return "syllabi"
}

type Video struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"index;not null" json:"course_id"`
	SyllabusID  *uint     `gorm:"index" json:"syllabus_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	VideoURL    string    `gorm:"size:500" json:"video_url"`
	Duration    int       `gorm:"not null" json:"duration"` // seconds
	Order       int       `gorm:"column:sort_order;default:0" json:"order"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Video) TableName() string {
	return "videos"
}

// CompletionThreshold is the watched time after which the video counts as
// complete: 90% of its duration, truncated to whole seconds.
func (v *Video) CompletionThreshold() int {
	return v.Duration * 9 / 10
}

// LiveSession is a scheduled meeting for a batch. MeetingPassword is stored
// encrypted and only decrypted for participants.
type LiveSession struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	BatchID         uint      `gorm:"index;not null" json:"batch_id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	StartTime       time.Time `gorm:"index" json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	MeetingLink     string    `gorm:"size:500" json:"meeting_link"`
	MeetingID       string    `gorm:"size:100" json:"meeting_id"`
	MeetingPassword string    `gorm:"type:text" json:"meeting_password,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (LiveSession) TableName() string {
	return "live_sessions"
}
