package announcements

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/database"
	"github.com/mrlokans/lms/internal/entities"
)

func TestRepository_CRUD(t *testing.T) {
	d, err := database.NewDatabase(filepath.Join(t.TempDir(), "announcements.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	repo := NewRepository(d.DB)

	batchID := uint(3)
	require.NoError(t, repo.Create(&entities.Announcement{Title: "Welcome", Message: "Hello all", SenderID: 1}))
	scoped := &entities.Announcement{Title: "Batch", Message: "Class moved", SenderID: 1, BatchID: &batchID}
	require.NoError(t, repo.Create(scoped))

	all, err := repo.List(Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Batch", all[0].Title)

	forBatch, err := repo.List(Filter{BatchID: &batchID})
	require.NoError(t, err)
	assert.Len(t, forBatch, 1)

	scoped.Message = "Class moved to 6pm"
	require.NoError(t, repo.Update(scoped))
	loaded, err := repo.Get(scoped.ID)
	require.NoError(t, err)
	assert.Equal(t, "Class moved to 6pm", loaded.Message)

	require.NoError(t, repo.Delete(scoped.ID))
	assert.ErrorIs(t, repo.Delete(scoped.ID), gorm.ErrRecordNotFound)
}
