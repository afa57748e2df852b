// Package courses provides database operations for the course catalogue:
// categories, authors, courses with their nested descriptions, reviews, FAQs
// and enrollments.
//
// # Usage
//
//	repo := courses.NewRepository(db)
//	list, total, err := repo.ListCourses(courses.CourseFilter{Search: "go"})
//	enrollment, err := repo.Enroll(userID, courseID)
package courses

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

var (
	ErrCourseArchived   = errors.New("course is archived")
	ErrCourseHasBatches = errors.New("course still has batches")
	ErrAlreadyReviewed  = errors.New("course already reviewed by user")
	ErrNotReviewOwner   = errors.New("review belongs to another user")
	ErrVideoNotInCourse = errors.New("video does not belong to this course")
)

// CourseFilter narrows ListCourses. Nil pointers mean "any".
type CourseFilter struct {
	CategoryID      *uint
	IsTrending      *bool
	IsNew           *bool
	SpecialTag      entities.SpecialTag
	Search          string
	IncludeArchived bool
	Limit           int
	Offset          int
}

// EnrollmentFilter narrows ListEnrollments.
type EnrollmentFilter struct {
	UserID     *uint
	CourseID   *uint
	ActiveOnly bool
}

// Repository handles course catalogue persistence.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new courses repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Categories

// ListCategories returns categories with the number of non-archived courses in each.
func (r *Repository) ListCategories(activeOnly bool) ([]entities.Category, error) {
	var categories []entities.Category
	query := r.db.Order("name")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		CategoryID uint
		Total      int64
	}
	err := r.db.Model(&entities.Course{}).
		Select("category_id, COUNT(*) AS total").
		Where("category_id IS NOT NULL AND is_archived = ?", false).
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byCategory := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byCategory[c.CategoryID] = c.Total
	}
	for i := range categories {
		categories[i].CourseCount = byCategory[categories[i].ID]
	}
	return categories, nil
}

func (r *Repository) GetCategory(id uint) (*entities.Category, error) {
	var category entities.Category
	if err := r.db.First(&category, id).Error; err != nil {
		return nil, err
	}
	err := r.db.Model(&entities.Course{}).
		Where("category_id = ? AND is_archived = ?", id, false).
		Count(&category.CourseCount).Error
	return &category, err
}

func (r *Repository) CreateCategory(category *entities.Category) error {
	return r.db.Create(category).Error
}

func (r *Repository) UpdateCategory(category *entities.Category) error {
	return r.db.Save(category).Error
}

// DeleteCategory removes a category and detaches its courses.
func (r *Repository) DeleteCategory(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Course{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return deleteByID(tx, &entities.Category{}, id)
	})
}

// Authors

func (r *Repository) ListAuthors() ([]entities.Author, error) {
	var authors []entities.Author
	err := r.db.Order("name").Find(&authors).Error
	return authors, err
}

func (r *Repository) GetAuthor(id uint) (*entities.Author, error) {
	var author entities.Author
	if err := r.db.First(&author, id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *Repository) CreateAuthor(author *entities.Author) error {
	return r.db.Create(author).Error
}

func (r *Repository) UpdateAuthor(author *entities.Author) error {
	return r.db.Save(author).Error
}

// DeleteAuthor removes an author and detaches their courses.
func (r *Repository) DeleteAuthor(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Course{}).Where("author_id = ?", id).
			Update("author_id", nil).Error; err != nil {
			return err
		}
		return deleteByID(tx, &entities.Author{}, id)
	})
}

// Courses

// ListCourses returns a page of courses matching f plus the total count.
func (r *Repository) ListCourses(f CourseFilter) ([]entities.Course, int64, error) {
	query := r.db.Model(&entities.Course{})
	if !f.IncludeArchived {
		query = query.Where("is_archived = ?", false)
	}
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.IsTrending != nil {
		query = query.Where("is_trending = ?", *f.IsTrending)
	}
	if f.IsNew != nil {
		query = query.Where("is_new = ?", *f.IsNew)
	}
	if f.SpecialTag != "" {
		query = query.Where("special_tag = ?", f.SpecialTag)
	}
	if f.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	var courses []entities.Course
	err := query.Preload("Category").Preload("Author").
		Order("created_at DESC, id DESC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}

	now := r.now()
	for i := range courses {
		courses[i].Decorate(now)
	}
	return courses, total, nil
}

// GetCourse loads a course with every nested child.
func (r *Repository) GetCourse(id uint) (*entities.Course, error) {
	var course entities.Course
	err := r.db.
		Preload("Category").
		Preload("Author").
		Preload("LearningPoints").
		Preload("Inclusions").
		Preload("Sections").
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	course.Decorate(r.now())
	return &course, nil
}

// CreateCourse inserts a course together with its nested children.
func (r *Repository) CreateCourse(course *entities.Course) error {
	course.ApplyDiscount()
	if err := r.db.Omit("Category", "Author").Create(course).Error; err != nil {
		return err
	}
	course.Decorate(r.now())
	return nil
}

// UpdateCourse saves the course columns. With replaceChildren the learning
// points, inclusions and sections are replaced by the ones on course.
func (r *Repository) UpdateCourse(course *entities.Course, replaceChildren bool) error {
	course.ApplyDiscount()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Category", "Author", "LearningPoints", "Inclusions", "Sections").
			Save(course).Error; err != nil {
			return err
		}
		if !replaceChildren {
			return nil
		}
		return replaceCourseChildren(tx, course)
	})
	if err != nil {
		return err
	}
	course.Decorate(r.now())
	return nil
}

func replaceCourseChildren(tx *gorm.DB, course *entities.Course) error {
	for _, model := range []any{&entities.LearningPoint{}, &entities.CourseInclusion{}, &entities.CourseSection{}} {
		if err := tx.Where("course_id = ?", course.ID).Delete(model).Error; err != nil {
			return err
		}
	}
	for i := range course.LearningPoints {
		course.LearningPoints[i].ID = 0
		course.LearningPoints[i].CourseID = course.ID
	}
	for i := range course.Inclusions {
		course.Inclusions[i].ID = 0
		course.Inclusions[i].CourseID = course.ID
	}
	for i := range course.Sections {
		course.Sections[i].ID = 0
		course.Sections[i].CourseID = course.ID
	}
	if len(course.LearningPoints) > 0 {
		if err := tx.Create(&course.LearningPoints).Error; err != nil {
			return err
		}
	}
	if len(course.Inclusions) > 0 {
		if err := tx.Create(&course.Inclusions).Error; err != nil {
			return err
		}
	}
	if len(course.Sections) > 0 {
		if err := tx.Create(&course.Sections).Error; err != nil {
			return err
		}
	}
	return nil
}

// SetArchived archives or restores a course.
func (r *Repository) SetArchived(id uint, archived bool) (*entities.Course, error) {
	result := r.db.Model(&entities.Course{}).Where("id = ?", id).Update("is_archived", archived)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetCourse(id)
}

// DeleteCourse removes a course and everything that belongs only to it.
// Courses that still have batches must have those deleted first.
func (r *Repository) DeleteCourse(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var batches int64
		if err := tx.Model(&entities.Batch{}).Where("course_id = ?", id).Count(&batches).Error; err != nil {
			return err
		}
		if batches > 0 {
			return ErrCourseHasBatches
		}

		videoIDs := tx.Model(&entities.Video{}).Select("id").Where("course_id = ?", id)
		syllabusIDs := tx.Model(&entities.Syllabus{}).Select("id").Where("course_id = ?", id)
		assignmentIDs := tx.Model(&entities.Assignment{}).Select("id").Where("course_id = ?", id)

		steps := []struct {
			model any
			query string
			arg   any
		}{
			{&entities.VideoProgress{}, "video_id IN (?)", videoIDs},
			{&entities.SyllabusProgress{}, "syllabus_id IN (?)", syllabusIDs},
			{&entities.Submission{}, "assignment_id IN (?)", assignmentIDs},
			{&entities.Assignment{}, "course_id = ?", id},
			{&entities.Video{}, "course_id = ?", id},
			{&entities.Syllabus{}, "course_id = ?", id},
			{&entities.Review{}, "course_id = ?", id},
			{&entities.Enrollment{}, "course_id = ?", id},
			{&entities.LearningPoint{}, "course_id = ?", id},
			{&entities.CourseInclusion{}, "course_id = ?", id},
			{&entities.CourseSection{}, "course_id = ?", id},
		}
		for _, step := range steps {
			if err := tx.Where(step.query, step.arg).Delete(step.model).Error; err != nil {
				return fmt.Errorf("failed to delete %T: %w", step.model, err)
			}
		}
		return deleteByID(tx, &entities.Course{}, id)
	})
}

// Reviews

// ListReviews returns reviews newest first, optionally for one course.
func (r *Repository) ListReviews(courseID *uint) ([]entities.Review, error) {
	var reviews []entities.Review
	query := r.db.Preload("User").Order("created_at DESC, id DESC")
	if courseID != nil {
		query = query.Where("course_id = ?", *courseID)
	}
	err := query.Find(&reviews).Error
	return reviews, err
}

func (r *Repository) GetReview(id uint) (*entities.Review, error) {
	var review entities.Review
	if err := r.db.Preload("User").First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// CreateReview adds a review and refreshes the course rating.
func (r *Repository) CreateReview(review *entities.Review) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var course entities.Course
		if err := tx.Select("id").First(&course, review.CourseID).Error; err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&entities.Review{}).
			Where("user_id = ? AND course_id = ?", review.UserID, review.CourseID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyReviewed
		}
		if err := tx.Omit("User").Create(review).Error; err != nil {
			return err
		}
		return recomputeRating(tx, review.CourseID)
	})
}

// UpdateReview changes the rating and comment of the caller's own review.
func (r *Repository) UpdateReview(id, userID uint, rating int, comment string) (*entities.Review, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var review entities.Review
		if err := tx.First(&review, id).Error; err != nil {
			return err
		}
		if review.UserID != userID {
			return ErrNotReviewOwner
		}
		if err := tx.Model(&review).Updates(map[string]any{"rating": rating, "comment": comment}).Error; err != nil {
			return err
		}
		return recomputeRating(tx, review.CourseID)
	})
	if err != nil {
		return nil, err
	}
	return r.GetReview(id)
}

// DeleteReview removes the caller's own review.
func (r *Repository) DeleteReview(id, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var review entities.Review
		if err := tx.First(&review, id).Error; err != nil {
			return err
		}
		if review.UserID != userID {
			return ErrNotReviewOwner
		}
		if err := tx.Delete(&review).Error; err != nil {
			return err
		}
		return recomputeRating(tx, review.CourseID)
	})
}

func recomputeRating(tx *gorm.DB, courseID uint) error {
	var agg struct {
		Avg   float64
		Count int
	}
	err := tx.Model(&entities.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("course_id = ?", courseID).
		Scan(&agg).Error
	if err != nil {
		return err
	}
	return tx.Model(&entities.Course{}).Where("id = ?", courseID).Updates(map[string]any{
		"average_rating": math.Round(agg.Avg*100) / 100,
		"review_count":   agg.Count,
	}).Error
}

// FAQs

func (r *Repository) ListFAQs(activeOnly bool) ([]entities.FAQ, error) {
	var faqs []entities.FAQ
	query := r.db.Order("id")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&faqs).Error
	return faqs, err
}

func (r *Repository) GetFAQ(id uint) (*entities.FAQ, error) {
	var faq entities.FAQ
	if err := r.db.First(&faq, id).Error; err != nil {
		return nil, err
	}
	return &faq, nil
}

func (r *Repository) CreateFAQ(faq *entities.FAQ) error {
	return r.db.Create(faq).Error
}

func (r *Repository) UpdateFAQ(faq *entities.FAQ) error {
	return r.db.Save(faq).Error
}

func (r *Repository) DeleteFAQ(id uint) error {
	return deleteByID(r.db, &entities.FAQ{}, id)
}

// Enrollments

// Enroll creates an active enrollment. Archived courses cannot be joined and
// an existing pair fails with a unique constraint error.
func (r *Repository) Enroll(userID, courseID uint) (*entities.Enrollment, error) {
	var course entities.Course
	if err := r.db.Select("id", "is_archived").First(&course, courseID).Error; err != nil {
		return nil, err
	}
	if course.IsArchived {
		return nil, ErrCourseArchived
	}

	enrollment := &entities.Enrollment{UserID: userID, CourseID: courseID, IsActive: true}
	if err := r.db.Omit("Course").Create(enrollment).Error; err != nil {
		return nil, err
	}
	return enrollment, nil
}

// EnsureEnrolled enrolls the user unless an enrollment already exists, in
// which case it is reactivated.
func (r *Repository) EnsureEnrolled(userID, courseID uint) (*entities.Enrollment, error) {
	existing, err := r.GetEnrollmentFor(userID, courseID)
	if err == nil {
		if !existing.IsActive {
			if err := r.db.Model(existing).Update("is_active", true).Error; err != nil {
				return nil, err
			}
			existing.IsActive = true
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return r.Enroll(userID, courseID)
}

func (r *Repository) GetEnrollment(id uint) (*entities.Enrollment, error) {
	var enrollment entities.Enrollment
	if err := r.db.Preload("Course").First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *Repository) GetEnrollmentFor(userID, courseID uint) (*entities.Enrollment, error) {
	var enrollment entities.Enrollment
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// IsEnrolled reports whether the user holds an active enrollment in the course.
func (r *Repository) IsEnrolled(userID, courseID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND is_active = ?", userID, courseID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) ListEnrollments(f EnrollmentFilter) ([]entities.Enrollment, error) {
	var enrollments []entities.Enrollment
	query := r.db.Preload("Course").Order("enrolled_at DESC, id DESC")
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.CourseID != nil {
		query = query.Where("course_id = ?", *f.CourseID)
	}
	if f.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&enrollments).Error
	return enrollments, err
}

func (r *Repository) SetEnrollmentActive(id uint, active bool) (*entities.Enrollment, error) {
	result := r.db.Model(&entities.Enrollment{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetEnrollment(id)
}

// UpdateEnrollmentProgress sets the progress percentage (clamped to 0..100)
// and optionally the last watched video, which must belong to the course.
func (r *Repository) UpdateEnrollmentProgress(id uint, percent int, lastVideoID *uint) (*entities.Enrollment, error) {
	enrollment, err := r.GetEnrollment(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"progress_percent": min(max(percent, 0), 100)}
	if lastVideoID != nil {
		var video entities.Video
		if err := r.db.Select("id", "course_id").First(&video, *lastVideoID).Error; err != nil {
			return nil, err
		}
		if video.CourseID != enrollment.CourseID {
			return nil, ErrVideoNotInCourse
		}
		updates["last_watched_video_id"] = *lastVideoID
	}

	if err := r.db.Model(&entities.Enrollment{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetEnrollment(id)
}

// ListEnrolledUserIDs returns the active students of a course.
func (r *Repository) ListEnrolledUserIDs(courseID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.Enrollment{}).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func deleteByID(tx *gorm.DB, model any, id uint) error {
	result := tx.Delete(model, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
