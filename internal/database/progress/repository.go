// Package progress tracks watched videos and rolls completion up from videos
// to syllabi to enrollments.
//
// A video is complete once at least 90% of its duration has been watched. A
// syllabus is complete when all of its videos are (or when marked manually).
// The enrollment percentage is the share of completed syllabi in the course.
// Every roll-up runs in the same transaction as the write that caused it.
//
// # Usage
//
//	repo := progress.NewRepository(db)
//	result, err := repo.UpdateVideoProgress(studentID, videoID, 540)
//	course, err := repo.CourseProgress(studentID, courseID)
package progress

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

var ErrNotEnrolled = errors.New("not enrolled in this course")

// UpdateResult is returned after a progress write.
type UpdateResult struct {
	Progress          *entities.VideoProgress `json:"progress"`
	SyllabusCompleted bool                    `json:"syllabus_completed"`
	CourseProgress    int                     `json:"course_progress"`
}

// SyllabusBreakdown is the progress of one student in one syllabus.
type SyllabusBreakdown struct {
	SyllabusID      uint   `json:"syllabus_id"`
	Title           string `json:"title"`
	CompletedVideos int64  `json:"completed_videos"`
	TotalVideos     int64  `json:"total_videos"`
	Percent         int    `json:"progress_percent"`
	IsCompleted     bool   `json:"is_completed"`
}

// CourseProgress summarises a student's course completion.
type CourseProgress struct {
	CourseID         uint                `json:"course_id"`
	Percent          float64             `json:"progress_percent"`
	CompletedSyllabi int64               `json:"completed_syllabi"`
	TotalSyllabi     int64               `json:"total_syllabi"`
	Syllabi          []SyllabusBreakdown `json:"syllabi"`
}

// Position locates a student in a course: the latest watched video with its
// neighbours, and the first video not completed yet.
type Position struct {
	Previous *entities.Video `json:"previous_video"`
	Current  *entities.Video `json:"current_video"`
	Next     *entities.Video `json:"next_video"`
	Resume   *entities.Video `json:"resume_video"`
}

// StudentProgress is one row of a batch progress report.
type StudentProgress struct {
	StudentID uint                `json:"student_id"`
	FullName  string              `json:"full_name"`
	Email     string              `json:"email"`
	Syllabi   []SyllabusBreakdown `json:"syllabi"`
}

// Repository handles progress persistence.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// UpdateVideoProgress records watched seconds for a video and rolls the
// completion up to the syllabus and the enrollment.
func (r *Repository) UpdateVideoProgress(studentID, videoID uint, watchedSeconds int) (*UpdateResult, error) {
	result := &UpdateResult{}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var video entities.Video
		if err := tx.First(&video, videoID).Error; err != nil {
			return err
		}
		enrollment, err := activeEnrollment(tx, studentID, video.CourseID)
		if err != nil {
			return err
		}

		now := r.now()
		var vp entities.VideoProgress
		err = tx.Where("student_id = ? AND video_id = ?", studentID, videoID).First(&vp).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vp = entities.VideoProgress{StudentID: studentID, VideoID: videoID}
		case err != nil:
			return err
		}

		vp.WatchedSeconds = max(vp.WatchedSeconds, watchedSeconds)
		vp.IsCompleted = vp.IsCompleted || vp.WatchedSeconds >= video.CompletionThreshold()
		vp.LastWatchedOn = now
		if err := tx.Omit("Video").Save(&vp).Error; err != nil {
			return err
		}
		result.Progress = &vp

		if video.SyllabusID != nil {
			done, err := r.rollUpSyllabus(tx, studentID, *video.SyllabusID)
			if err != nil {
				return err
			}
			result.SyllabusCompleted = done
		}

		percent, err := r.rollUpEnrollment(tx, enrollment, &video.ID)
		if err != nil {
			return err
		}
		result.CourseProgress = percent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func activeEnrollment(tx *gorm.DB, studentID, courseID uint) (*entities.Enrollment, error) {
	var enrollment entities.Enrollment
	err := tx.Where("user_id = ? AND course_id = ? AND is_active = ?", studentID, courseID, true).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// videoCounts returns how many videos the syllabus has and how many of them
// the student completed.
func videoCounts(tx *gorm.DB, studentID, syllabusID uint) (completed, total int64, err error) {
	if err = tx.Model(&entities.Video{}).Where("syllabus_id = ?", syllabusID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = tx.Model(&entities.VideoProgress{}).
		Joins("JOIN videos ON videos.id = video_progress.video_id").
		Where("video_progress.student_id = ? AND videos.syllabus_id = ? AND video_progress.is_completed = ?", studentID, syllabusID, true).
		Count(&completed).Error
	return completed, total, err
}

// rollUpSyllabus marks the syllabus complete once every video in it is.
// Completion is never revoked here.
func (r *Repository) rollUpSyllabus(tx *gorm.DB, studentID, syllabusID uint) (bool, error) {
	completed, total, err := videoCounts(tx, studentID, syllabusID)
	if err != nil {
		return false, err
	}

	var sp entities.SyllabusProgress
	err = tx.Where("student_id = ? AND syllabus_id = ?", studentID, syllabusID).First(&sp).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sp = entities.SyllabusProgress{StudentID: studentID, SyllabusID: syllabusID}
	case err != nil:
		return false, err
	}
	if sp.IsCompleted {
		return true, nil
	}
	if total == 0 || completed < total {
		if sp.ID == 0 {
			return false, tx.Create(&sp).Error
		}
		return false, nil
	}

	now := r.now()
	sp.IsCompleted = true
	sp.CompletedOn = &now
	return true, tx.Save(&sp).Error
}

// rollUpEnrollment stores floor(completed syllabi / total syllabi * 100) on
// the enrollment.
func (r *Repository) rollUpEnrollment(tx *gorm.DB, enrollment *entities.Enrollment, lastVideoID *uint) (int, error) {
	completed, total, err := syllabusCounts(tx, enrollment.UserID, enrollment.CourseID)
	if err != nil {
		return 0, err
	}
	percent := entities.Percent(completed, total)

	updates := map[string]any{"progress_percent": percent}
	if lastVideoID != nil {
		updates["last_watched_video_id"] = *lastVideoID
	}
	if err := tx.Model(&entities.Enrollment{}).Where("id = ?", enrollment.ID).Updates(updates).Error; err != nil {
		return 0, err
	}
	return percent, nil
}

func syllabusCounts(tx *gorm.DB, studentID, courseID uint) (completed, total int64, err error) {
	if err = tx.Model(&entities.Syllabus{}).Where("course_id = ?", courseID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = tx.Model(&entities.SyllabusProgress{}).
		Joins("JOIN syllabi ON syllabi.id = syllabus_progress.syllabus_id").
		Where("syllabus_progress.student_id = ? AND syllabi.course_id = ? AND syllabus_progress.is_completed = ?", studentID, courseID, true).
		Count(&completed).Error
	return completed, total, err
}

// SyllabusProgress returns the breakdown of one syllabus for a student.
// Manual completion reports 100%.
func (r *Repository) SyllabusProgress(studentID, syllabusID uint) (*SyllabusBreakdown, error) {
	var syllabus entities.Syllabus
	if err := r.db.First(&syllabus, syllabusID).Error; err != nil {
		return nil, err
	}
	return r.breakdown(r.db, studentID, syllabus)
}

func (r *Repository) breakdown(tx *gorm.DB, studentID uint, syllabus entities.Syllabus) (*SyllabusBreakdown, error) {
	completed, total, err := videoCounts(tx, studentID, syllabus.ID)
	if err != nil {
		return nil, err
	}
	var sp entities.SyllabusProgress
	err = tx.Where("student_id = ? AND syllabus_id = ?", studentID, syllabus.ID).First(&sp).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	b := &SyllabusBreakdown{
		SyllabusID:      syllabus.ID,
		Title:           syllabus.Title,
		CompletedVideos: completed,
		TotalVideos:     total,
		Percent:         entities.Percent(completed, total),
		IsCompleted:     sp.IsCompleted,
	}
	if sp.IsCompleted {
		b.Percent = 100
	}
	return b, nil
}

// MarkSyllabus sets the manual completion flag of a syllabus for a student
// and refreshes the enrollment percentage.
func (r *Repository) MarkSyllabus(studentID, syllabusID uint, completed bool) (*SyllabusBreakdown, error) {
	var out *SyllabusBreakdown
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var syllabus entities.Syllabus
		if err := tx.First(&syllabus, syllabusID).Error; err != nil {
			return err
		}
		enrollment, err := activeEnrollment(tx, studentID, syllabus.CourseID)
		if err != nil {
			return err
		}

		var sp entities.SyllabusProgress
		err = tx.Where("student_id = ? AND syllabus_id = ?", studentID, syllabusID).First(&sp).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			sp = entities.SyllabusProgress{StudentID: studentID, SyllabusID: syllabusID}
		case err != nil:
			return err
		}
		sp.IsCompleted = completed
		sp.CompletedOn = nil
		if completed {
			now := r.now()
			sp.CompletedOn = &now
		}
		if err := tx.Save(&sp).Error; err != nil {
			return err
		}

		if _, err := r.rollUpEnrollment(tx, enrollment, nil); err != nil {
			return err
		}
		out, err = r.breakdown(tx, studentID, syllabus)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CourseProgress returns round(completed syllabi / total * 100, 2) with a
// per-syllabus breakdown.
func (r *Repository) CourseProgress(studentID, courseID uint) (*CourseProgress, error) {
	var syllabi []entities.Syllabus
	if err := r.db.Where("course_id = ?", courseID).Order("sort_order, id").Find(&syllabi).Error; err != nil {
		return nil, err
	}

	cp := &CourseProgress{CourseID: courseID, TotalSyllabi: int64(len(syllabi)), Syllabi: []SyllabusBreakdown{}}
	for _, s := range syllabi {
		b, err := r.breakdown(r.db, studentID, s)
		if err != nil {
			return nil, err
		}
		if b.IsCompleted {
			cp.CompletedSyllabi++
		}
		cp.Syllabi = append(cp.Syllabi, *b)
	}
	cp.Percent = entities.PercentRounded(cp.CompletedSyllabi, cp.TotalSyllabi)
	return cp, nil
}

// RequireEnrollment returns ErrNotEnrolled unless the student holds an active
// enrollment in the course.
func (r *Repository) RequireEnrollment(studentID, courseID uint) error {
	_, err := activeEnrollment(r.db, studentID, courseID)
	return err
}

// Position returns where the student is in the course's video sequence.
func (r *Repository) Position(studentID, courseID uint) (*Position, error) {
	var videos []entities.Video
	if err := r.db.Where("course_id = ?", courseID).Order("sort_order, id").Find(&videos).Error; err != nil {
		return nil, err
	}
	var progress []entities.VideoProgress
	err := r.db.Joins("JOIN videos ON videos.id = video_progress.video_id").
		Where("video_progress.student_id = ? AND videos.course_id = ?", studentID, courseID).
		Order("video_progress.last_watched_on DESC, video_progress.id DESC").
		Find(&progress).Error
	if err != nil {
		return nil, err
	}

	completed := make(map[uint]bool, len(progress))
	for _, p := range progress {
		completed[p.VideoID] = p.IsCompleted
	}

	pos := &Position{}
	for i := range videos {
		if !completed[videos[i].ID] {
			pos.Resume = &videos[i]
			break
		}
	}

	if len(progress) == 0 {
		if len(videos) > 0 {
			pos.Next = &videos[0]
		}
		return pos, nil
	}
	latest := progress[0].VideoID
	for i := range videos {
		if videos[i].ID != latest {
			continue
		}
		pos.Current = &videos[i]
		if i > 0 {
			pos.Previous = &videos[i-1]
		}
		if i+1 < len(videos) {
			pos.Next = &videos[i+1]
		}
		break
	}
	return pos, nil
}

// BatchProgress reports per-syllabus progress for every student of a batch.
func (r *Repository) BatchProgress(batchID uint) ([]StudentProgress, error) {
	var batch entities.Batch
	if err := r.db.First(&batch, batchID).Error; err != nil {
		return nil, err
	}
	var syllabi []entities.Syllabus
	if err := r.db.Where("course_id = ?", batch.CourseID).Order("sort_order, id").Find(&syllabi).Error; err != nil {
		return nil, err
	}
	var members []entities.BatchStudent
	if err := r.db.Preload("Student").Where("batch_id = ?", batchID).Order("student_id").Find(&members).Error; err != nil {
		return nil, err
	}

	report := make([]StudentProgress, 0, len(members))
	for _, m := range members {
		row := StudentProgress{StudentID: m.StudentID, Syllabi: []SyllabusBreakdown{}}
		if m.Student != nil {
			row.FullName = m.Student.FullName
			row.Email = m.Student.Email
		}
		for _, s := range syllabi {
			b, err := r.breakdown(r.db, m.StudentID, s)
			if err != nil {
				return nil, err
			}
			row.Syllabi = append(row.Syllabi, *b)
		}
		report = append(report, row)
	}
	return report, nil
}

// RecomputeCourse refreshes syllabus completion and the enrollment percentage
// of every active enrollment in the course, e.g. after videos were added or
// removed. It returns the number of enrollments updated.
func (r *Repository) RecomputeCourse(courseID uint) (int, error) {
	var enrollments []entities.Enrollment
	if err := r.db.Where("course_id = ? AND is_active = ?", courseID, true).Find(&enrollments).Error; err != nil {
		return 0, err
	}
	var syllabusIDs []uint
	if err := r.db.Model(&entities.Syllabus{}).Where("course_id = ?", courseID).Pluck("id", &syllabusIDs).Error; err != nil {
		return 0, err
	}

	updated := 0
	for i := range enrollments {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			for _, sid := range syllabusIDs {
				if _, err := r.rollUpSyllabus(tx, enrollments[i].UserID, sid); err != nil {
					return err
				}
			}
			_, err := r.rollUpEnrollment(tx, &enrollments[i], nil)
			return err
		})
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
