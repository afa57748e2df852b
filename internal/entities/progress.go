package entities

import (
	"math"
	"time"
)

type VideoProgress struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StudentID      uint      `gorm:"uniqueIndex:idx_video_progress;not null" json:"student_id"`
	VideoID        uint      `gorm:"uniqueIndex:idx_video_progress;index;not null" json:"video_id"`
	Video          *Video    `json:"video,omitempty"`
	WatchedSeconds int       `gorm:"default:0" json:"watched_seconds"`
	IsCompleted    bool      `gorm:"default:false" json:"is_completed"`
	LastWatchedOn  time.Time `gorm:"index" json:"last_watched_on"`
}

func (VideoProgress) TableName() string {
	return "video_progress"
}

type SyllabusProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"uniqueIndex:idx_syllabus_progress;not null" json:"student_id"`
	SyllabusID  uint       `gorm:"uniqueIndex:idx_syllabus_progress;index;not null" json:"syllabus_id"`
	IsCompleted bool       `gorm:"default:false" json:"is_completed"`
	CompletedOn *time.Time `json:"completed_on"`
}

func (SyllabusProgress) TableName() string {
	return "syllabus_progress"
}

// Percent returns completed/total*100 truncated to an integer, 0 when total is 0.
func Percent(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(completed * 100 / total)
}

// PercentRounded returns completed/total*100 rounded to two decimals, 0 when
// total is 0.
func PercentRounded(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}
