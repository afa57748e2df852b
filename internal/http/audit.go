package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/audit"
	auditrepo "github.com/mrlokans/lms/internal/database/audit"
	"github.com/mrlokans/lms/internal/entities"
)

// AuditController exposes the audit trail to admins.
type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{auditService: auditService}
}

// GetAuditEvents returns paginated audit events.
// GET /api/admin/audit?type=&user_id=&entity_type=&since=&limit=&offset=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit, offset := pagination(c, 25, 100)
	filter := auditrepo.Filter{
		EventType:  entities.AuditEventType(c.Query("type")),
		EntityType: c.Query("entity_type"),
		Limit:      limit,
		Offset:     offset,
	}

	userID, ok := optionalQueryID(c, "user_id")
	if !ok {
		return
	}
	if userID != nil {
		filter.UserID = *userID
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondBadRequest(c, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = &since
	}

	events, total, err := ac.auditService.List(filter)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}
	respondPage(c, events, total, limit, offset)
}

// GetAuditEvent handles GET /api/admin/audit/:id
func (ac *AuditController) GetAuditEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	event, err := ac.auditService.Get(id)
	if err != nil {
		respondDomainError(c, err, "audit event")
		return
	}
	c.JSON(http.StatusOK, event)
}

// ListEventTypes handles GET /api/admin/audit/types
func (ac *AuditController) ListEventTypes(c *gin.Context) {
	c.JSON(http.StatusOK, getEventTypes())
}

func getEventTypes() []EventTypeOption {
	return []EventTypeOption{
		{Value: "", Label: "All Events"},
		{Value: string(entities.AuditEventAuth), Label: "Authentication"},
		{Value: string(entities.AuditEventEnrollment), Label: "Enrollment"},
		{Value: string(entities.AuditEventGrade), Label: "Grading"},
		{Value: string(entities.AuditEventBatch), Label: "Batch"},
		{Value: string(entities.AuditEventDelete), Label: "Delete"},
		{Value: string(entities.AuditEventSettings), Label: "Settings"},
		{Value: string(entities.AuditEventMaintenance), Label: "Maintenance"},
	}
}

type EventTypeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
