package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/database/batches"
	"github.com/mrlokans/lms/internal/database/notifications"
	"github.com/mrlokans/lms/internal/database/users"
	"github.com/mrlokans/lms/internal/tasks"
)

// NotificationsController serves the caller's notifications and fans out
// broadcasts through the task dispatcher.
type NotificationsController struct {
	repo       *notifications.Repository
	users      *users.Repository
	batches    *batches.Repository
	access     *Access
	dispatcher *tasks.Dispatcher
}

func NewNotificationsController(
	repo *notifications.Repository,
	userRepo *users.Repository,
	batchRepo *batches.Repository,
	access *Access,
	dispatcher *tasks.Dispatcher,
) *NotificationsController {
	return &NotificationsController{
		repo:       repo,
		users:      userRepo,
		batches:    batchRepo,
		access:     access,
		dispatcher: dispatcher,
	}
}

// ListNotifications handles GET /api/notifications?unread_only=&limit=&offset=
func (nc *NotificationsController) ListNotifications(c *gin.Context) {
	limit, offset := pagination(c, 50, 200)
	unreadOnly := optionalQueryBool(c, "unread_only")

	list, total, err := nc.repo.List(GetUserID(c), unreadOnly != nil && *unreadOnly, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list notifications")
		return
	}
	respondPage(c, list, total, limit, offset)
}

// UnreadCount handles GET /api/notifications/unread-count
func (nc *NotificationsController) UnreadCount(c *gin.Context) {
	count, err := nc.repo.UnreadCount(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "unread notification count")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead handles POST /api/notifications/:id/read
func (nc *NotificationsController) MarkRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	notification, err := nc.repo.MarkRead(id, GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "notification")
		return
	}
	c.JSON(http.StatusOK, notification)
}

// MarkAllRead handles POST /api/notifications/read-all
func (nc *NotificationsController) MarkAllRead(c *gin.Context) {
	updated, err := nc.repo.MarkAllRead(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// GetPreference handles GET /api/notifications/preferences
func (nc *NotificationsController) GetPreference(c *gin.Context) {
	pref, err := nc.repo.GetPreference(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "notification preference")
		return
	}
	c.JSON(http.StatusOK, pref)
}

type preferenceRequest struct {
	ReceiveEmail bool `json:"receive_email"`
}

// UpdatePreference handles PUT /api/notifications/preferences
func (nc *NotificationsController) UpdatePreference(c *gin.Context) {
	var req preferenceRequest
	if !bind(c, &req) {
		return
	}
	pref, err := nc.repo.UpdatePreference(GetUserID(c), req.ReceiveEmail)
	if err != nil {
		respondInternalError(c, err, "notification preference")
		return
	}
	c.JSON(http.StatusOK, pref)
}

type broadcastRequest struct {
	Message string `json:"message"`
}

// Broadcast handles POST /api/notifications/broadcast (admin only). Every
// active user receives the message.
func (nc *NotificationsController) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if !bind(c, &req) {
		return
	}
	ids, err := nc.users.ListActiveUserIDs("")
	if err != nil {
		respondInternalError(c, err, "list active users")
		return
	}
	nc.fanOut(c, ids, req.Message, "broadcast")
}

// SendToBatch handles POST /api/batches/:id/notifications (staff of the batch
// and admins). Unsuspended students of the batch receive the message.
func (nc *NotificationsController) SendToBatch(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req broadcastRequest
	if !bind(c, &req) {
		return
	}
	if !nc.access.requireInBatch(c, batchID) {
		return
	}
	ids, err := nc.batches.ListStudentIDs(batchID, false)
	if err != nil {
		respondInternalError(c, err, "list batch students")
		return
	}
	nc.fanOut(c, ids, req.Message, "batch")
}

func (nc *NotificationsController) fanOut(c *gin.Context, ids []uint, message, source string) {
	taskID, err := nc.dispatcher.NotifyUsers(c.Request.Context(), ids, message, source)
	if err != nil {
		respondDomainError(c, err, "notification")
		return
	}
	if nc.dispatcher.Async() && taskID != "" {
		respondAccepted(c, "Notifications queued", gin.H{"task_id": taskID, "recipients": len(ids)})
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Notifications sent", Data: gin.H{"recipients": len(ids)}})
}
