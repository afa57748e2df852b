package courses

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/database"
	"github.com/mrlokans/lms/internal/database/dberr"
	"github.com/mrlokans/lms/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "courses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db.DB), db.DB
}

func createUser(t *testing.T, db *gorm.DB, email string) *entities.User {
	t.Helper()
	user := &entities.User{Email: email, Role: entities.UserRoleStudent, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createCourse(t *testing.T, repo *Repository, title string) *entities.Course {
	t.Helper()
	course := &entities.Course{Title: title, SpecialTag: entities.SpecialTagNone}
	require.NoError(t, repo.CreateCourse(course))
	return course
}

func TestRepository_ListCategories_CourseCount(t *testing.T) {
	repo, _ := setupTestDB(t)

	programming := &entities.Category{Name: "Programming", IsActive: true}
	design := &entities.Category{Name: "Design", IsActive: false}
	require.NoError(t, repo.CreateCategory(programming))
	require.NoError(t, repo.CreateCategory(design))

	for _, title := range []string{"Go", "Rust", "Old"} {
		c := &entities.Course{Title: title, CategoryID: &programming.ID}
		require.NoError(t, repo.CreateCourse(c))
		if title == "Old" {
			_, err := repo.SetArchived(c.ID, true)
			require.NoError(t, err)
		}
	}

	all, err := repo.ListCategories(false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Design", all[0].Name)
	assert.Equal(t, int64(0), all[0].CourseCount)
	assert.Equal(t, int64(2), all[1].CourseCount)

	active, err := repo.ListCategories(true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, repo.DeleteCategory(programming.ID))
	list, _, err := repo.ListCourses(CourseFilter{IncludeArchived: true})
	require.NoError(t, err)
	for _, c := range list {
		assert.Nil(t, c.CategoryID)
	}
}

func TestRepository_ListCourses_Filters(t *testing.T) {
	repo, _ := setupTestDB(t)
	yes := true

	require.NoError(t, repo.CreateCourse(&entities.Course{Title: "Intro to Go", IsTrending: true}))
	require.NoError(t, repo.CreateCourse(&entities.Course{Title: "Advanced Go", IsNew: true, SpecialTag: entities.SpecialTagBestSeller}))
	require.NoError(t, repo.CreateCourse(&entities.Course{Title: "Python Basics"}))

	list, total, err := repo.ListCourses(CourseFilter{Search: "go"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	list, _, err = repo.ListCourses(CourseFilter{IsTrending: &yes})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Intro to Go", list[0].Title)

	list, _, err = repo.ListCourses(CourseFilter{SpecialTag: entities.SpecialTagBestSeller})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Advanced Go", list[0].Title)
}

func TestRepository_CreateCourse_DiscountAndChildren(t *testing.T) {
	repo, _ := setupTestDB(t)
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	price := 100.0
	pct := 20
	end := fixed.Add(72 * time.Hour)
	course := &entities.Course{
		Title:                "Priced",
		OriginalPrice:        &price,
		DiscountedPercentage: &pct,
		DiscountEndDate:      &end,
		LearningPoints:       []entities.LearningPoint{{Text: "Goroutines"}},
		Sections:             []entities.CourseSection{{Title: "Basics"}, {Title: "Concurrency"}},
	}
	require.NoError(t, repo.CreateCourse(course))

	loaded, err := repo.GetCourse(course.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.DiscountedPrice)
	assert.Equal(t, 80.0, *loaded.DiscountedPrice)
	assert.True(t, loaded.IsDiscountActive)
	assert.Equal(t, "3 days left", loaded.DiscountDaysLeftText)
	assert.Len(t, loaded.LearningPoints, 1)
	assert.Len(t, loaded.Sections, 2)

	loaded.Title = "Priced v2"
	loaded.LearningPoints = []entities.LearningPoint{{Text: "Channels"}, {Text: "Select"}}
	loaded.Sections = nil
	require.NoError(t, repo.UpdateCourse(loaded, true))

	reloaded, err := repo.GetCourse(course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Priced v2", reloaded.Title)
	assert.Len(t, reloaded.LearningPoints, 2)
	assert.Empty(t, reloaded.Sections)
}

func TestRepository_Reviews_RecomputeRating(t *testing.T) {
	repo, db := setupTestDB(t)
	course := createCourse(t, repo, "Rated")
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	first := &entities.Review{UserID: alice.ID, CourseID: course.ID, Rating: 5}
	require.NoError(t, repo.CreateReview(first))
	require.NoError(t, repo.CreateReview(&entities.Review{UserID: bob.ID, CourseID: course.ID, Rating: 2}))

	err := repo.CreateReview(&entities.Review{UserID: alice.ID, CourseID: course.ID, Rating: 1})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	loaded, err := repo.GetCourse(course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, loaded.AverageRating)
	assert.Equal(t, 2, loaded.ReviewCount)

	_, err = repo.UpdateReview(first.ID, bob.ID, 1, "")
	assert.ErrorIs(t, err, ErrNotReviewOwner)

	updated, err := repo.UpdateReview(first.ID, alice.ID, 3, "ok")
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Rating)

	require.NoError(t, repo.DeleteReview(first.ID, alice.ID))
	loaded, err = repo.GetCourse(course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, loaded.AverageRating)
	assert.Equal(t, 1, loaded.ReviewCount)
}

func TestRepository_Enroll(t *testing.T) {
	repo, db := setupTestDB(t)
	course := createCourse(t, repo, "Enrollable")
	user := createUser(t, db, "student@example.com")

	enrollment, err := repo.Enroll(user.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrollment.IsActive)

	_, err = repo.Enroll(user.ID, course.ID)
	assert.True(t, dberr.IsDuplicate(err))

	enrolled, err := repo.IsEnrolled(user.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	_, err = repo.SetEnrollmentActive(enrollment.ID, false)
	require.NoError(t, err)
	enrolled, err = repo.IsEnrolled(user.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)

	again, err := repo.EnsureEnrolled(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.ID, again.ID)
	assert.True(t, again.IsActive)

	archived := createCourse(t, repo, "Archived")
	_, err = repo.SetArchived(archived.ID, true)
	require.NoError(t, err)
	_, err = repo.Enroll(user.ID, archived.ID)
	assert.ErrorIs(t, err, ErrCourseArchived)

	_, err = repo.Enroll(user.ID, 9999)
	assert.True(t, dberr.IsNotFound(err))
}

func TestRepository_UpdateEnrollmentProgress(t *testing.T) {
	repo, db := setupTestDB(t)
	course := createCourse(t, repo, "Progress")
	other := createCourse(t, repo, "Other")
	user := createUser(t, db, "student@example.com")
	enrollment, err := repo.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	video := &entities.Video{CourseID: course.ID, Title: "v1", Duration: 60}
	foreign := &entities.Video{CourseID: other.ID, Title: "v2", Duration: 60}
	require.NoError(t, db.Create(video).Error)
	require.NoError(t, db.Create(foreign).Error)

	updated, err := repo.UpdateEnrollmentProgress(enrollment.ID, 150, &video.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.ProgressPercent)
	require.NotNil(t, updated.LastWatchedVideoID)
	assert.Equal(t, video.ID, *updated.LastWatchedVideoID)

	_, err = repo.UpdateEnrollmentProgress(enrollment.ID, 10, &foreign.ID)
	assert.ErrorIs(t, err, ErrVideoNotInCourse)
}

func TestRepository_DeleteCourse(t *testing.T) {
	repo, db := setupTestDB(t)
	course := createCourse(t, repo, "Doomed")
	user := createUser(t, db, "student@example.com")
	_, err := repo.Enroll(user.ID, course.ID)
	require.NoError(t, err)
	require.NoError(t, repo.CreateReview(&entities.Review{UserID: user.ID, CourseID: course.ID, Rating: 4}))

	batch := &entities.Batch{BatchName: "B1", CourseID: course.ID}
	require.NoError(t, db.Create(batch).Error)
	assert.ErrorIs(t, repo.DeleteCourse(course.ID), ErrCourseHasBatches)

	require.NoError(t, db.Delete(batch).Error)
	require.NoError(t, repo.DeleteCourse(course.ID))

	_, err = repo.GetCourse(course.ID)
	assert.True(t, dberr.IsNotFound(err))
	enrollments, err := repo.ListEnrollments(EnrollmentFilter{UserID: &user.ID})
	require.NoError(t, err)
	assert.Empty(t, enrollments)
}
