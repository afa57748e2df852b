package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/assignments"
	"github.com/mrlokans/lms/internal/database/batches"
	"github.com/mrlokans/lms/internal/database/chats"
	"github.com/mrlokans/lms/internal/database/content"
	"github.com/mrlokans/lms/internal/database/courses"
	"github.com/mrlokans/lms/internal/database/dberr"
	"github.com/mrlokans/lms/internal/database/notifications"
	"github.com/mrlokans/lms/internal/database/profiles"
	"github.com/mrlokans/lms/internal/database/progress"
	"github.com/mrlokans/lms/internal/database/quizzes"
	"github.com/mrlokans/lms/internal/database/users"
	"github.com/mrlokans/lms/internal/logger"
	"github.com/mrlokans/lms/internal/settingsstore"
	"github.com/mrlokans/lms/internal/tasks"
	"github.com/mrlokans/lms/internal/validation"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeValidation = "validation_error"
	codeNotFound   = "not_found"
	codeForbidden  = "permission_denied"
	codeConflict   = "conflict"
)

const (
	msgForbidden   = "You do not have permission to perform this action."
	msgNotEnrolled = "You are not enrolled in this course."
	msgNotInBatch  = "You are not part of this batch."

	msgEmptyMessage = "Message cannot be empty."
)

// GetUserID extracts the authenticated user's ID from the Gin context.
func GetUserID(c *gin.Context) uint {
	return auth.GetUserID(c)
}

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // field errors
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: codeNotFound})
}

// respondForbidden sends a 403. An empty message uses the generic permission text.
func respondForbidden(c *gin.Context, message string) {
	if message == "" {
		message = msgForbidden
	}
	c.JSON(http.StatusForbidden, ErrorResponse{Error: message, Code: codeForbidden})
}

func respondConflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, ErrorResponse{Error: message, Code: codeConflict})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Error().Err(err).
		Str("request_id", logger.RequestID(c)).
		Str("context", context).
		Msg("internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondValidationError renders a binding or validation failure.
func respondValidationError(c *gin.Context, err error) {
	if fields := validation.FieldErrorsOf(err); fields != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    codeValidation,
			Details: fields,
		})
		return
	}
	respondBadRequest(c, "invalid request body")
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// clientMessages holds the text shown to clients for domain errors whose
// error string is meant for logs.
var clientMessages = []struct {
	err error
	msg string
}{
	{progress.ErrNotEnrolled, "Not enrolled in this course."},
	{quizzes.ErrNotEnrolled, msgNotEnrolled},
	{assignments.ErrNotEnrolled, msgNotEnrolled},
	{courses.ErrAlreadyReviewed, "You have already reviewed this course"},
	{courses.ErrNotReviewOwner, "You can only update your own reviews"},
	{batches.ErrActiveMembers, "Cannot archive: Active students or staff are still assigned to this batch."},
	{batches.ErrStudentSuspended, "Cannot modify a suspended student"},
	{assignments.ErrDeadlinePassed, "Submission deadline has passed"},
	{assignments.ErrAlreadySubmitted, "You have already submitted this assignment"},
	{notifications.ErrEmptyMessage, msgEmptyMessage},
	{tasks.ErrEmptyMessage, msgEmptyMessage},
}

func clientMessage(err error) string {
	for _, m := range clientMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}

// respondDomainError maps repository and service errors to HTTP statuses.
// resource names the entity for not-found messages.
func respondDomainError(c *gin.Context, err error, resource string) {
	switch {
	case dberr.IsNotFound(err):
		respondNotFound(c, resource)

	case errors.Is(err, courses.ErrAlreadyReviewed),
		errors.Is(err, assignments.ErrAlreadySubmitted),
		errors.Is(err, batches.ErrAlreadyInBatch):
		respondConflict(c, clientMessage(err))
	case dberr.IsDuplicate(err):
		respondConflict(c, resource+" already exists")
	case dberr.IsForeignKey(err):
		respondBadRequest(c, "referenced record does not exist")

	case errors.Is(err, courses.ErrNotReviewOwner),
		errors.Is(err, progress.ErrNotEnrolled),
		errors.Is(err, quizzes.ErrNotEnrolled),
		errors.Is(err, assignments.ErrNotEnrolled),
		errors.Is(err, chats.ErrNotReceiver):
		respondForbidden(c, clientMessage(err))

	case errors.Is(err, courses.ErrCourseArchived),
		errors.Is(err, courses.ErrCourseHasBatches),
		errors.Is(err, courses.ErrVideoNotInCourse),
		errors.Is(err, batches.ErrActiveMembers),
		errors.Is(err, batches.ErrStudentSuspended),
		errors.Is(err, batches.ErrNotStudent),
		errors.Is(err, batches.ErrNotStaff),
		errors.Is(err, batches.ErrStudentNotInBatch),
		errors.Is(err, batches.ErrStaffNotAssigned),
		errors.Is(err, content.ErrSyllabusCourseMismatch),
		errors.Is(err, quizzes.ErrQuizInactive),
		errors.Is(err, quizzes.ErrUnknownQuestion),
		errors.Is(err, quizzes.ErrUnknownOption),
		errors.Is(err, quizzes.ErrDuplicateAnswer),
		errors.Is(err, assignments.ErrDeadlinePassed),
		errors.Is(err, profiles.ErrInvalidPeriod),
		errors.Is(err, users.ErrInvalidStatus),
		errors.Is(err, notifications.ErrEmptyMessage),
		errors.Is(err, tasks.ErrEmptyMessage),
		errors.Is(err, settingsstore.ErrInvalidSchedule),
		errors.Is(err, settingsstore.ErrInvalidRetention):
		respondBadRequest(c, clientMessage(err))

	default:
		respondInternalError(c, err, resource)
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// respondPage wraps one page of results.
func respondPage(c *gin.Context, data any, total int64, limit, offset int) {
	resp := PaginatedResponse{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	}
	if limit > 0 {
		resp.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, resp)
}

// bind decodes and validates the JSON body, responding with 400 on failure.
func bind(c *gin.Context, payload any) bool {
	if err := validation.BindAndValidate(c, payload); err != nil {
		respondValidationError(c, err)
		return false
	}
	return true
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseQueryID extracts and validates an unsigned integer ID from query parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseQueryID(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		respondBadRequest(c, paramName+" is required")
		return 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// optionalQueryID parses an optional ID filter. A missing parameter yields
// nil, true; a malformed one responds with 400.
func optionalQueryID(c *gin.Context, paramName string) (*uint, bool) {
	if c.Query(paramName) == "" {
		return nil, true
	}
	id, ok := parseQueryID(c, paramName)
	if !ok {
		return nil, false
	}
	return &id, true
}

// optionalQueryBool parses "true"/"false" style flags; anything else is nil.
func optionalQueryBool(c *gin.Context, paramName string) *bool {
	v, err := strconv.ParseBool(c.Query(paramName))
	if err != nil {
		return nil
	}
	return &v
}

// pagination reads limit/offset with defaults and bounds.
func pagination(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
