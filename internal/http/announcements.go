package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/lms/internal/database/announcements"
	"github.com/mrlokans/lms/internal/database/batches"
	"github.com/mrlokans/lms/internal/entities"
	"github.com/mrlokans/lms/internal/tasks"
)

// AnnouncementsController publishes announcements. Batch announcements are
// pushed to the batch students as notifications.
type AnnouncementsController struct {
	repo       *announcements.Repository
	batches    *batches.Repository
	access     *Access
	dispatcher *tasks.Dispatcher
}

func NewAnnouncementsController(
	repo *announcements.Repository,
	batchRepo *batches.Repository,
	access *Access,
	dispatcher *tasks.Dispatcher,
) *AnnouncementsController {
	return &AnnouncementsController{repo: repo, batches: batchRepo, access: access, dispatcher: dispatcher}
}

type announcementRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Message  string `json:"message" validate:"required"`
	BatchID  *uint  `json:"batch_id"`
	CourseID *uint  `json:"course_id"`
}

// ListAnnouncements handles GET /api/announcements?batch_id=&course_id=
func (ac *AnnouncementsController) ListAnnouncements(c *gin.Context) {
	batchID, ok := optionalQueryID(c, "batch_id")
	if !ok {
		return
	}
	courseID, ok := optionalQueryID(c, "course_id")
	if !ok {
		return
	}
	list, err := ac.repo.List(announcements.Filter{BatchID: batchID, CourseID: courseID})
	if err != nil {
		respondInternalError(c, err, "list announcements")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetAnnouncement handles GET /api/announcements/:id
func (ac *AnnouncementsController) GetAnnouncement(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	a, err := ac.repo.Get(id)
	if err != nil {
		respondDomainError(c, err, "announcement")
		return
	}
	c.JSON(http.StatusOK, a)
}

// CreateAnnouncement handles POST /api/announcements
func (ac *AnnouncementsController) CreateAnnouncement(c *gin.Context) {
	if !ac.access.requireStaffAccess(c, announcementManagement) {
		return
	}
	var req announcementRequest
	if !bind(c, &req) {
		return
	}
	a := &entities.Announcement{
		Title:    strings.TrimSpace(req.Title),
		Message:  req.Message,
		SenderID: GetUserID(c),
		BatchID:  req.BatchID,
		CourseID: req.CourseID,
	}
	if err := ac.repo.Create(a); err != nil {
		respondDomainError(c, err, "announcement")
		return
	}
	if a.BatchID != nil {
		ac.notifyBatch(c, *a.BatchID, a.Title)
	}
	respondCreated(c, a)
}

// notifyBatch queues a notification for the batch students. Failures are
// logged; the announcement itself is already stored.
func (ac *AnnouncementsController) notifyBatch(c *gin.Context, batchID uint, title string) {
	ids, err := ac.batches.ListStudentIDs(batchID, false)
	if err == nil {
		_, err = ac.dispatcher.NotifyUsers(c.Request.Context(), ids, "New announcement: "+title, "announcement")
	}
	if err != nil {
		log.Error().Err(err).Uint("batch_id", batchID).Msg("Failed to notify batch about announcement")
	}
}

// UpdateAnnouncement handles PUT /api/announcements/:id
func (ac *AnnouncementsController) UpdateAnnouncement(c *gin.Context) {
	if !ac.access.requireStaffAccess(c, announcementManagement) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req announcementRequest
	if !bind(c, &req) {
		return
	}
	a, err := ac.repo.Get(id)
	if err != nil {
		respondDomainError(c, err, "announcement")
		return
	}
	a.Title = strings.TrimSpace(req.Title)
	a.Message = req.Message
	a.BatchID = req.BatchID
	a.CourseID = req.CourseID
	if err := ac.repo.Update(a); err != nil {
		respondDomainError(c, err, "announcement")
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteAnnouncement handles DELETE /api/announcements/:id
func (ac *AnnouncementsController) DeleteAnnouncement(c *gin.Context) {
	if !ac.access.requireStaffAccess(c, announcementManagement) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ac.repo.Delete(id); err != nil {
		respondDomainError(c, err, "announcement")
		return
	}
	respondNoContent(c)
}
