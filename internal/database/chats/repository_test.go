package chats

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/lms/internal/database"
	"github.com/mrlokans/lms/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	d, err := database.NewDatabase(filepath.Join(t.TempDir(), "chats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return NewRepository(d.DB)
}

func TestConversation(t *testing.T) {
	repo := setupTestDB(t)
	const batch, student, tutor, other = 1, 10, 20, 30

	for _, m := range []entities.ChatMessage{
		{BatchID: batch, SenderID: student, ReceiverID: tutor, Message: "hi"},
		{BatchID: batch, SenderID: tutor, ReceiverID: student, Message: "hello"},
		{BatchID: batch, SenderID: other, ReceiverID: tutor, Message: "question"},
		{BatchID: 2, SenderID: student, ReceiverID: tutor, Message: "elsewhere"},
	} {
		msg := m
		require.NoError(t, repo.Send(&msg))
	}

	mine, err := repo.Conversation(batch, student, nil)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "hi", mine[0].Message)

	tutorID := uint(tutor)
	withTutor, err := repo.Conversation(batch, other, &tutorID)
	require.NoError(t, err)
	require.Len(t, withTutor, 1)
	assert.Equal(t, "question", withTutor[0].Message)

	all, err := repo.BatchMessages(batch)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMarkRead(t *testing.T) {
	repo := setupTestDB(t)
	msg := &entities.ChatMessage{BatchID: 1, SenderID: 10, ReceiverID: 20, Message: "ping"}
	require.NoError(t, repo.Send(msg))

	count, err := repo.UnreadCount(20, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.MarkRead(msg.ID, 10)
	assert.ErrorIs(t, err, ErrNotReceiver)

	read, err := repo.MarkRead(msg.ID, 20)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	count, err = repo.UnreadCount(20, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}
