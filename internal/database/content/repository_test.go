package content

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

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, *entities.Course) {
	t.Helper()
	d, err := database.NewDatabase(filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	course := &entities.Course{Title: "Go"}
	require.NoError(t, d.DB.Create(course).Error)
	return NewRepository(d.DB), d.DB, course
}

func TestRepository_Syllabi_OrderAndUniqueness(t *testing.T) {
	repo, _, course := setupTestDB(t)

	require.NoError(t, repo.CreateSyllabus(&entities.Syllabus{CourseID: course.ID, Title: "Second", Order: 2}))
	first := &entities.Syllabus{CourseID: course.ID, Title: "First", Order: 1}
	require.NoError(t, repo.CreateSyllabus(first))

	err := repo.CreateSyllabus(&entities.Syllabus{CourseID: course.ID, Title: "First"})
	assert.True(t, dberr.IsDuplicate(err))

	require.NoError(t, repo.CreateVideo(&entities.Video{CourseID: course.ID, SyllabusID: &first.ID, Title: "b", Order: 2, Duration: 10}))
	require.NoError(t, repo.CreateVideo(&entities.Video{CourseID: course.ID, SyllabusID: &first.ID, Title: "a", Order: 1, Duration: 10}))

	list, err := repo.ListSyllabi(&course.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First", list[0].Title)
	require.Len(t, list[0].Videos, 2)
	assert.Equal(t, "a", list[0].Videos[0].Title)
	assert.Empty(t, list[1].Videos)
}

func TestRepository_CreateVideo_SyllabusMustMatchCourse(t *testing.T) {
	repo, db, course := setupTestDB(t)
	other := &entities.Course{Title: "Rust"}
	require.NoError(t, db.Create(other).Error)
	syllabus := &entities.Syllabus{CourseID: other.ID, Title: "Ownership"}
	require.NoError(t, repo.CreateSyllabus(syllabus))

	err := repo.CreateVideo(&entities.Video{CourseID: course.ID, SyllabusID: &syllabus.ID, Title: "x", Duration: 5})
	assert.ErrorIs(t, err, ErrSyllabusCourseMismatch)
}

func TestRepository_Navigation(t *testing.T) {
	repo, _, course := setupTestDB(t)
	var ids []uint
	for i, title := range []string{"one", "two", "three"} {
		v := &entities.Video{CourseID: course.ID, Title: title, Order: i, Duration: 60}
		require.NoError(t, repo.CreateVideo(v))
		ids = append(ids, v.ID)
	}

	nav, err := repo.Navigation(ids[1])
	require.NoError(t, err)
	assert.Equal(t, "one", nav.Previous.Title)
	assert.Equal(t, "two", nav.Current.Title)
	assert.Equal(t, "three", nav.Next.Title)

	nav, err = repo.Navigation(ids[0])
	require.NoError(t, err)
	assert.Nil(t, nav.Previous)
	assert.Equal(t, "two", nav.Next.Title)

	nav = NavigationAround(nil, 42)
	assert.Nil(t, nav.Current)
}

func TestRepository_DeleteSyllabus_DetachesVideos(t *testing.T) {
	repo, _, course := setupTestDB(t)
	syllabus := &entities.Syllabus{CourseID: course.ID, Title: "Basics"}
	require.NoError(t, repo.CreateSyllabus(syllabus))
	video := &entities.Video{CourseID: course.ID, SyllabusID: &syllabus.ID, Title: "intro", Duration: 30}
	require.NoError(t, repo.CreateVideo(video))

	require.NoError(t, repo.DeleteSyllabus(syllabus.ID))

	reloaded, err := repo.GetVideo(video.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.SyllabusID)
	assert.ErrorIs(t, repo.DeleteSyllabus(syllabus.ID), gorm.ErrRecordNotFound)
}

func TestRepository_DeleteVideo_ReturnsCourse(t *testing.T) {
	repo, db, course := setupTestDB(t)
	student := &entities.User{Email: "s@example.com", Role: entities.UserRoleStudent}
	require.NoError(t, db.Create(student).Error)
	video := &entities.Video{CourseID: course.ID, Title: "intro", Duration: 30}
	require.NoError(t, repo.CreateVideo(video))
	require.NoError(t, db.Create(&entities.VideoProgress{StudentID: student.ID, VideoID: video.ID, WatchedSeconds: 10}).Error)

	courseID, err := repo.DeleteVideo(video.ID)
	require.NoError(t, err)
	assert.Equal(t, course.ID, courseID)

	_, err = repo.DeleteVideo(video.ID)
	assert.True(t, dberr.IsNotFound(err))
}

func TestRepository_ListFiltersWithEmptyScope(t *testing.T) {
	repo, db, course := setupTestDB(t)
	require.NoError(t, repo.CreateVideo(&entities.Video{CourseID: course.ID, Title: "v", Duration: 1}))
	batch := &entities.Batch{BatchName: "B", CourseID: course.ID}
	require.NoError(t, db.Create(batch).Error)
	start := time.Now().Add(time.Hour)
	require.NoError(t, repo.CreateLiveSession(&entities.LiveSession{
		BatchID: batch.ID, Title: "Kickoff", StartTime: start, EndTime: start.Add(time.Hour),
	}))

	videos, err := repo.ListVideos(VideoFilter{CourseIDs: []uint{}})
	require.NoError(t, err)
	assert.Empty(t, videos)

	videos, err = repo.ListVideos(VideoFilter{CourseIDs: []uint{course.ID}})
	require.NoError(t, err)
	assert.Len(t, videos, 1)

	sessions, err := repo.ListLiveSessions(LiveSessionFilter{BatchIDs: []uint{}})
	require.NoError(t, err)
	assert.Empty(t, sessions)

	sessions, err = repo.ListLiveSessions(LiveSessionFilter{BatchID: &batch.ID})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}
