package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/batches"
	"github.com/mrlokans/lms/internal/database/chats"
	"github.com/mrlokans/lms/internal/entities"
)

// ChatsController handles direct messages between students and staff of a batch.
type ChatsController struct {
	repo    *chats.Repository
	batches *batches.Repository
	access  *Access
}

func NewChatsController(repo *chats.Repository, batchRepo *batches.Repository, access *Access) *ChatsController {
	return &ChatsController{repo: repo, batches: batchRepo, access: access}
}

type chatRequest struct {
	ReceiverID uint   `json:"receiver_id" validate:"required"`
	Message    string `json:"message" validate:"required,max=5000"`
}

// ListMessages handles GET /api/batches/:id/chats?with_user=
// Admins without with_user get the whole batch history.
func (cc *ChatsController) ListMessages(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	withUser, ok := optionalQueryID(c, "with_user")
	if !ok {
		return
	}
	if !cc.access.requireInBatch(c, batchID) {
		return
	}

	var (
		list []entities.ChatMessage
		err  error
	)
	if auth.IsAdmin(c) && withUser == nil {
		list, err = cc.repo.BatchMessages(batchID)
	} else {
		list, err = cc.repo.Conversation(batchID, GetUserID(c), withUser)
	}
	if err != nil {
		respondInternalError(c, err, "list chat messages")
		return
	}
	c.JSON(http.StatusOK, list)
}

// SendMessage handles POST /api/batches/:id/chats. Students write to the
// batch staff, staff write to the batch students.
func (cc *ChatsController) SendMessage(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req chatRequest
	if !bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondBadRequest(c, msgEmptyMessage)
		return
	}
	if !cc.access.requireInBatch(c, batchID) {
		return
	}
	if !cc.validReceiver(c, batchID, req.ReceiverID) {
		return
	}

	msg := &entities.ChatMessage{
		BatchID:    batchID,
		SenderID:   GetUserID(c),
		ReceiverID: req.ReceiverID,
		Message:    req.Message,
	}
	if err := cc.repo.Send(msg); err != nil {
		respondDomainError(c, err, "chat message")
		return
	}
	respondCreated(c, msg)
}

func (cc *ChatsController) validReceiver(c *gin.Context, batchID, receiverID uint) bool {
	var (
		valid   bool
		err     error
		message string
	)
	switch {
	case auth.IsStudent(c):
		valid, err = cc.batches.IsStaff(batchID, receiverID)
		message = "Receiver must be a valid tutor in this batch"
	case auth.IsStaff(c):
		valid, err = cc.batches.IsStudent(batchID, receiverID)
		message = "Receiver must be a valid student in this batch"
	default:
		valid, err = cc.batches.IsParticipant(batchID, receiverID)
		message = "Receiver must be a participant of this batch"
	}
	if err != nil {
		respondInternalError(c, err, "chat receiver")
		return false
	}
	if !valid || receiverID == GetUserID(c) {
		respondBadRequest(c, message)
		return false
	}
	return true
}

// MarkRead handles POST /api/chats/:id/read (receiver only)
func (cc *ChatsController) MarkRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	msg, err := cc.repo.MarkRead(id, GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "chat message")
		return
	}
	c.JSON(http.StatusOK, msg)
}

// UnreadCount handles GET /api/chats/unread-count?batch_id=
func (cc *ChatsController) UnreadCount(c *gin.Context) {
	batchID, ok := optionalQueryID(c, "batch_id")
	if !ok {
		return
	}
	count, err := cc.repo.UnreadCount(GetUserID(c), batchID)
	if err != nil {
		respondInternalError(c, err, "unread chat count")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}
