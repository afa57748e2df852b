// Package content provides database operations for syllabi (course modules),
// videos and live sessions.
//
// # Usage
//
//	repo := content.NewRepository(db)
//	syllabi, err := repo.ListSyllabi(&courseID, true)
//	nav, err := repo.Navigation(videoID)
package content

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

var ErrSyllabusCourseMismatch = errors.New("syllabus does not belong to this course")

// VideoFilter narrows ListVideos. CourseIDs, when non-nil, restricts the
// result to those courses (an empty slice matches nothing).
type VideoFilter struct {
	CourseID   *uint
	SyllabusID *uint
	CourseIDs  []uint
}

// LiveSessionFilter narrows ListLiveSessions. BatchIDs behaves like
// VideoFilter.CourseIDs.
type LiveSessionFilter struct {
	BatchID  *uint
	BatchIDs []uint
}

// Navigation is a video with its neighbours in course order.
type Navigation struct {
	Previous *entities.Video `json:"previous_video"`
	Current  *entities.Video `json:"current_video"`
	Next     *entities.Video `json:"next_video"`
}

// Repository handles course content persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new content repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Syllabi

func orderedVideos(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order, id")
}

// ListSyllabi returns the syllabi ordered by order then id, optionally for a
// single course and with their videos.
func (r *Repository) ListSyllabi(courseID *uint, withVideos bool) ([]entities.Syllabus, error) {
	query := r.db.Order("sort_order, id")
	if courseID != nil {
		query = query.Where("course_id = ?", *courseID)
	}
	if withVideos {
		query = query.Preload("Videos", orderedVideos)
	}
	var list []entities.Syllabus
	err := query.Find(&list).Error
	return list, err
}

func (r *Repository) GetSyllabus(id uint, withVideos bool) (*entities.Syllabus, error) {
	query := r.db
	if withVideos {
		query = query.Preload("Videos", orderedVideos)
	}
	var syllabus entities.Syllabus
	if err := query.First(&syllabus, id).Error; err != nil {
		return nil, err
	}
	return &syllabus, nil
}

func (r *Repository) CreateSyllabus(syllabus *entities.Syllabus) error {
	return r.db.Omit("Videos").Create(syllabus).Error
}

func (r *Repository) UpdateSyllabus(syllabus *entities.Syllabus) error {
	return r.db.Omit("Videos").Save(syllabus).Error
}

// DeleteSyllabus removes a syllabus. Its videos, quizzes and assignments stay
// in the course, detached from the module.
func (r *Repository) DeleteSyllabus(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&entities.Video{}, &entities.Quiz{}, &entities.Assignment{}} {
			if err := tx.Model(model).Where("syllabus_id = ?", id).Update("syllabus_id", nil).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("syllabus_id = ?", id).Delete(&entities.SyllabusProgress{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Syllabus{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Videos

func (r *Repository) ListVideos(f VideoFilter) ([]entities.Video, error) {
	query := r.db.Order("course_id, sort_order, id")
	if f.CourseID != nil {
		query = query.Where("course_id = ?", *f.CourseID)
	}
	if f.SyllabusID != nil {
		query = query.Where("syllabus_id = ?", *f.SyllabusID)
	}
	if f.CourseIDs != nil {
		if len(f.CourseIDs) == 0 {
			return []entities.Video{}, nil
		}
		query = query.Where("course_id IN ?", f.CourseIDs)
	}
	var list []entities.Video
	err := query.Find(&list).Error
	return list, err
}

func (r *Repository) GetVideo(id uint) (*entities.Video, error) {
	var video entities.Video
	if err := r.db.First(&video, id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// CreateVideo inserts a video. A syllabus, when given, must belong to the
// same course.
func (r *Repository) CreateVideo(video *entities.Video) error {
	if err := r.checkSyllabus(video); err != nil {
		return err
	}
	return r.db.Create(video).Error
}

func (r *Repository) UpdateVideo(video *entities.Video) error {
	if err := r.checkSyllabus(video); err != nil {
		return err
	}
	return r.db.Save(video).Error
}

func (r *Repository) checkSyllabus(video *entities.Video) error {
	if video.SyllabusID == nil {
		return nil
	}
	syllabus, err := r.GetSyllabus(*video.SyllabusID, false)
	if err != nil {
		return err
	}
	if syllabus.CourseID != video.CourseID {
		return ErrSyllabusCourseMismatch
	}
	return nil
}

// DeleteVideo removes a video with its progress rows and returns the course
// it belonged to.
func (r *Repository) DeleteVideo(id uint) (uint, error) {
	var courseID uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var video entities.Video
		if err := tx.First(&video, id).Error; err != nil {
			return err
		}
		courseID = video.CourseID
		if err := tx.Where("video_id = ?", id).Delete(&entities.VideoProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&entities.Enrollment{}).Where("last_watched_video_id = ?", id).
			Update("last_watched_video_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&video).Error
	})
	return courseID, err
}

// CourseVideos returns every video of a course in playback order.
func (r *Repository) CourseVideos(courseID uint) ([]entities.Video, error) {
	return r.ListVideos(VideoFilter{CourseID: &courseID})
}

// Navigation returns the video with the previous and next videos of its course.
func (r *Repository) Navigation(videoID uint) (*Navigation, error) {
	video, err := r.GetVideo(videoID)
	if err != nil {
		return nil, err
	}
	videos, err := r.CourseVideos(video.CourseID)
	if err != nil {
		return nil, err
	}
	return NavigationAround(videos, video.ID), nil
}

// NavigationAround locates videoID in an ordered list. Current is nil when the
// id is not in the list.
func NavigationAround(videos []entities.Video, videoID uint) *Navigation {
	nav := &Navigation{}
	for i := range videos {
		if videos[i].ID != videoID {
			continue
		}
		nav.Current = &videos[i]
		if i > 0 {
			nav.Previous = &videos[i-1]
		}
		if i+1 < len(videos) {
			nav.Next = &videos[i+1]
		}
		break
	}
	return nav
}

// Live sessions

func (r *Repository) ListLiveSessions(f LiveSessionFilter) ([]entities.LiveSession, error) {
	query := r.db.Order("start_time, id")
	if f.BatchID != nil {
		query = query.Where("batch_id = ?", *f.BatchID)
	}
	if f.BatchIDs != nil {
		if len(f.BatchIDs) == 0 {
			return []entities.LiveSession{}, nil
		}
		query = query.Where("batch_id IN ?", f.BatchIDs)
	}
	var list []entities.LiveSession
	err := query.Find(&list).Error
	return list, err
}

func (r *Repository) GetLiveSession(id uint) (*entities.LiveSession, error) {
	var session entities.LiveSession
	if err := r.db.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *Repository) CreateLiveSession(session *entities.LiveSession) error {
	return r.db.Create(session).Error
}

func (r *Repository) UpdateLiveSession(session *entities.LiveSession) error {
	return r.db.Save(session).Error
}

func (r *Repository) DeleteLiveSession(id uint) error {
	result := r.db.Delete(&entities.LiveSession{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
