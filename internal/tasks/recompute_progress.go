package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
)

// ProgressRecomputer refreshes the progress roll-up of a course.
type ProgressRecomputer interface {
	RecomputeCourse(courseID uint) (int, error)
}

// RecomputeCourseProgressTask re-derives syllabus completion and enrollment
// percentages after the video set of a course changed.
type RecomputeCourseProgressTask struct {
	CourseID uint `json:"course_id"`
}

func (t RecomputeCourseProgressTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "recompute_course_progress",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func RecomputeCourseProgressProcessor(r ProgressRecomputer) backlite.QueueProcessor[RecomputeCourseProgressTask] {
	return func(ctx context.Context, task RecomputeCourseProgressTask) error {
		if r == nil {
			return fmt.Errorf("progress recomputer not configured")
		}
		if task.CourseID == 0 {
			return fmt.Errorf("course_id is required")
		}
		updated, err := r.RecomputeCourse(task.CourseID)
		if err != nil {
			return fmt.Errorf("recompute course %d: %w", task.CourseID, err)
		}
		log.Info().Uint("course_id", task.CourseID).Int("enrollments", updated).Msg("recomputed course progress")
		return nil
	}
}

func NewRecomputeCourseProgressQueue(r ProgressRecomputer) backlite.Queue {
	return backlite.NewQueue(RecomputeCourseProgressProcessor(r))
}
