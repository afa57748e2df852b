package assignments

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/database"
	"github.com/mrlokans/lms/internal/entities"
)

func setup(t *testing.T) (*Repository, *gorm.DB, *entities.Course, *entities.User) {
	t.Helper()
	d, err := database.NewDatabase(filepath.Join(t.TempDir(), "assignments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	course := &entities.Course{Title: "Go"}
	require.NoError(t, d.DB.Create(course).Error)
	student := &entities.User{Email: "s@example.com", Role: entities.UserRoleStudent, IsActive: true}
	require.NoError(t, d.DB.Create(student).Error)
	require.NoError(t, d.DB.Omit("Course").Create(&entities.Enrollment{UserID: student.ID, CourseID: course.ID, IsActive: true}).Error)
	return NewRepository(d.DB), d.DB, course, student
}

func assignmentCount(t *testing.T, db *gorm.DB, courseID uint) int {
	t.Helper()
	var c entities.Course
	require.NoError(t, db.First(&c, courseID).Error)
	return c.AssignmentCount
}

func TestAssignmentCountSync(t *testing.T) {
	repo, db, course, _ := setup(t)

	a := &entities.Assignment{CourseID: course.ID, Title: "HW1", DueDate: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateAssignment(a))
	require.NoError(t, repo.CreateAssignment(&entities.Assignment{CourseID: course.ID, Title: "HW2", DueDate: time.Now()}))
	assert.Equal(t, 2, assignmentCount(t, db, course.ID))

	other := &entities.Course{Title: "Rust"}
	require.NoError(t, db.Create(other).Error)
	a.CourseID = other.ID
	require.NoError(t, repo.UpdateAssignment(a))
	assert.Equal(t, 1, assignmentCount(t, db, course.ID))
	assert.Equal(t, 1, assignmentCount(t, db, other.ID))

	require.NoError(t, repo.DeleteAssignment(a.ID))
	assert.Equal(t, 0, assignmentCount(t, db, other.ID))
}

func TestSubmit(t *testing.T) {
	repo, db, course, student := setup(t)
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	open := &entities.Assignment{CourseID: course.ID, Title: "Open", DueDate: now.Add(time.Hour)}
	closed := &entities.Assignment{CourseID: course.ID, Title: "Closed", DueDate: now.Add(-time.Hour)}
	require.NoError(t, repo.CreateAssignment(open))
	require.NoError(t, repo.CreateAssignment(closed))

	submission, err := repo.Submit(student.ID, open.ID, "https://files.example.com/a.pdf")
	require.NoError(t, err)
	assert.Nil(t, submission.Grade)

	_, err = repo.Submit(student.ID, open.ID, "https://files.example.com/b.pdf")
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	_, err = repo.Submit(student.ID, closed.ID, "https://files.example.com/c.pdf")
	assert.ErrorIs(t, err, ErrDeadlinePassed)

	outsider := &entities.User{Email: "o@example.com", Role: entities.UserRoleStudent}
	require.NoError(t, db.Create(outsider).Error)
	_, err = repo.Submit(outsider.ID, open.ID, "https://files.example.com/d.pdf")
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestGrade(t *testing.T) {
	repo, _, course, student := setup(t)
	a := &entities.Assignment{CourseID: course.ID, Title: "HW", DueDate: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateAssignment(a))
	submission, err := repo.Submit(student.ID, a.ID, "https://files.example.com/a.pdf")
	require.NoError(t, err)

	graded, err := repo.Grade(submission.ID, "A+", "Great work")
	require.NoError(t, err)
	require.NotNil(t, graded.Grade)
	assert.Equal(t, "A+", *graded.Grade)
	assert.NotNil(t, graded.GradedAt)

	mine, err := repo.ListSubmissions(SubmissionFilter{StudentID: &student.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "HW", mine[0].Assignment.Title)

	_, err = repo.Grade(9999, "B", "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
