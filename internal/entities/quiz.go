package entities

import "time"

type Quiz struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	CreatedByID *uint          `json:"created_by_id"`
	Duration    int            `gorm:"not null" json:"duration"` // minutes
	TotalMarks  int            `gorm:"default:0" json:"total_marks"`
	IsActive    bool           `json:"is_active"`
	BatchID     uint           `gorm:"index;not null" json:"batch_id"`
	Batch       *Batch         `json:"batch,omitempty"`
	SyllabusID  *uint          `gorm:"index" json:"module_id"`
	Questions   []QuizQuestion `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type QuizQuestion struct {
	ID      uint         `gorm:"primaryKey" json:"id"`
	QuizID  uint         `gorm:"index;not null" json:"quiz_id"`
	Text    string       `gorm:"type:text;not null" json:"text"`
	Mark    int          `gorm:"default:1" json:"mark"`
	Options []QuizOption `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

type QuizOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"index;not null" json:"question_id"`
	Text       string `gorm:"size:255;not null" json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

func (QuizOption) TableName() string {
	return "quiz_options"
}

type QuizAttempt struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	StudentID   uint         `gorm:"index;not null" json:"student_id"`
	QuizID      uint         `gorm:"index;not null" json:"quiz_id"`
	Score       int          `gorm:"default:0" json:"score"`
	AttemptedOn time.Time    `gorm:"autoCreateTime" json:"attempted_on"`
	Answers     []QuizAnswer `gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

type QuizAnswer struct {
	ID               uint  `gorm:"primaryKey" json:"id"`
	AttemptID        uint  `gorm:"index;not null" json:"attempt_id"`
	QuestionID       uint  `gorm:"not null" json:"question_id"`
	SelectedOptionID *uint `json:"selected_option_id"`
	IsCorrect        bool  `json:"is_correct"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}
