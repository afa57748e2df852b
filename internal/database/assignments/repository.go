// Package assignments provides database operations for course assignments
// and student submissions.
//
// # Usage
//
//	repo := assignments.NewRepository(db)
//	submission, err := repo.Submit(studentID, assignmentID, "https://files.example.com/hw1.pdf")
package assignments

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

var (
	ErrNotEnrolled      = errors.New("not enrolled in the assignment course")
	ErrDeadlinePassed   = errors.New("submission deadline passed")
	ErrAlreadySubmitted = errors.New("assignment already submitted")
)

// Filter narrows ListAssignments. CourseIDs, when non-nil, restricts the
// result to those courses.
type Filter struct {
	CourseID   *uint
	SyllabusID *uint
	CourseIDs  []uint
}

// SubmissionFilter narrows ListSubmissions.
type SubmissionFilter struct {
	AssignmentID *uint
	StudentID    *uint
}

// Repository handles assignment persistence.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new assignments repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func (r *Repository) ListAssignments(f Filter) ([]entities.Assignment, error) {
	query := r.db.Order("due_date, id")
	if f.CourseID != nil {
		query = query.Where("course_id = ?", *f.CourseID)
	}
	if f.SyllabusID != nil {
		query = query.Where("syllabus_id = ?", *f.SyllabusID)
	}
	if f.CourseIDs != nil {
		if len(f.CourseIDs) == 0 {
			return []entities.Assignment{}, nil
		}
		query = query.Where("course_id IN ?", f.CourseIDs)
	}
	var list []entities.Assignment
	err := query.Find(&list).Error
	return list, err
}

func (r *Repository) GetAssignment(id uint) (*entities.Assignment, error) {
	var a entities.Assignment
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAssignment inserts an assignment and refreshes the course's assignment_count.
func (r *Repository) CreateAssignment(a *entities.Assignment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&entities.Course{}, a.CourseID).Error; err != nil {
			return err
		}
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		return syncCount(tx, a.CourseID)
	})
}

// UpdateAssignment saves an assignment. Moving it to another course refreshes
// the counts of both courses.
func (r *Repository) UpdateAssignment(a *entities.Assignment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var before entities.Assignment
		if err := tx.First(&before, a.ID).Error; err != nil {
			return err
		}
		if err := tx.Save(a).Error; err != nil {
			return err
		}
		if before.CourseID == a.CourseID {
			return nil
		}
		if err := syncCount(tx, before.CourseID); err != nil {
			return err
		}
		return syncCount(tx, a.CourseID)
	})
}

// DeleteAssignment removes an assignment with its submissions.
func (r *Repository) DeleteAssignment(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var a entities.Assignment
		if err := tx.First(&a, id).Error; err != nil {
			return err
		}
		if err := tx.Where("assignment_id = ?", id).Delete(&entities.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&a).Error; err != nil {
			return err
		}
		return syncCount(tx, a.CourseID)
	})
}

func syncCount(tx *gorm.DB, courseID uint) error {
	var count int64
	if err := tx.Model(&entities.Assignment{}).Where("course_id = ?", courseID).Count(&count).Error; err != nil {
		return err
	}
	return tx.Model(&entities.Course{}).Where("id = ?", courseID).Update("assignment_count", count).Error
}

// Submit records a student's submission. The student must be enrolled in the
// course, the due date must not have passed and only one submission per
// assignment is accepted.
func (r *Repository) Submit(studentID, assignmentID uint, fileURL string) (*entities.Submission, error) {
	a, err := r.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}

	var enrolled int64
	if err := r.db.Model(&entities.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND is_active = ?", studentID, a.CourseID, true).
		Count(&enrolled).Error; err != nil {
		return nil, err
	}
	if enrolled == 0 {
		return nil, ErrNotEnrolled
	}
	if r.now().After(a.DueDate) {
		return nil, ErrDeadlinePassed
	}

	var existing int64
	if err := r.db.Model(&entities.Submission{}).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrAlreadySubmitted
	}

	submission := &entities.Submission{AssignmentID: assignmentID, StudentID: studentID, FileURL: fileURL}
	if err := r.db.Omit("Assignment").Create(submission).Error; err != nil {
		return nil, err
	}
	return submission, nil
}

func (r *Repository) GetSubmission(id uint) (*entities.Submission, error) {
	var s entities.Submission
	if err := r.db.Preload("Assignment").First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) ListSubmissions(f SubmissionFilter) ([]entities.Submission, error) {
	query := r.db.Preload("Assignment").Order("submitted_at DESC, id DESC")
	if f.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *f.AssignmentID)
	}
	if f.StudentID != nil {
		query = query.Where("student_id = ?", *f.StudentID)
	}
	var list []entities.Submission
	err := query.Find(&list).Error
	return list, err
}

// Grade stores a grade and feedback on a submission.
func (r *Repository) Grade(submissionID uint, grade, feedback string) (*entities.Submission, error) {
	now := r.now()
	result := r.db.Model(&entities.Submission{}).Where("id = ?", submissionID).Updates(map[string]any{
		"grade":     grade,
		"feedback":  feedback,
		"graded_at": now,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetSubmission(submissionID)
}
