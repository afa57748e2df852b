package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/lms/internal/database"
	"github.com/mrlokans/lms/internal/entities"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := database.NewDatabase(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return NewRepository(d.DB)
}

func TestRepository_LogEvent(t *testing.T) {
	repo := setupTestRepo(t)

	event := &entities.AuditEvent{
		UserID:      1,
		EventType:   entities.AuditEventEnrollment,
		Action:      "enroll",
		Description: "Enrolled in Go Basics",
		Status:      entities.AuditStatusSuccess,
	}
	require.NoError(t, repo.LogEvent(event))
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())

	found, err := repo.GetEvent(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "enroll", found.Action)

	_, err = repo.GetEvent(999)
	assert.Error(t, err)
}

func TestRepository_List(t *testing.T) {
	repo := setupTestRepo(t)

	batchID := uint(7)
	for i := 0; i < 12; i++ {
		require.NoError(t, repo.LogEvent(&entities.AuditEvent{
			UserID:    1,
			EventType: entities.AuditEventGrade,
			Action:    "grade_submission",
			Status:    entities.AuditStatusSuccess,
			CreatedAt: time.Now().Add(time.Duration(-i) * time.Hour),
		}))
	}
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{
		UserID:     2,
		EventType:  entities.AuditEventBatch,
		Action:     "batch_archive",
		EntityType: "batch",
		EntityID:   &batchID,
		Status:     entities.AuditStatusSuccess,
	}))

	t.Run("all events", func(t *testing.T) {
		events, total, err := repo.List(Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(13), total)
		assert.Len(t, events, 13)
	})

	t.Run("pagination", func(t *testing.T) {
		page1, total, err := repo.List(Filter{UserID: 1, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(12), total)
		require.Len(t, page1, 5)

		page2, _, err := repo.List(Filter{UserID: 1, Limit: 5, Offset: 5})
		require.NoError(t, err)
		require.Len(t, page2, 5)
		assert.NotEqual(t, page1[0].ID, page2[0].ID)
		assert.False(t, page1[4].CreatedAt.Before(page2[0].CreatedAt))
	})

	t.Run("by type and entity", func(t *testing.T) {
		events, total, err := repo.List(Filter{EventType: entities.AuditEventBatch, EntityType: "batch", EntityID: &batchID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "batch_archive", events[0].Action)
	})

	t.Run("since", func(t *testing.T) {
		since := time.Now().Add(-90 * time.Minute)
		_, total, err := repo.List(Filter{UserID: 1, Since: &since})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	repo := setupTestRepo(t)
	now := time.Now()

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{Action: "old", CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{Action: "new", CreatedAt: now.Add(-time.Hour)}))

	deleted, err := repo.DeleteOlderThan(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, _, err := repo.List(Filter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].Action)
}
