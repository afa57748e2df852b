package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/audit"
	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/batches"
	"github.com/mrlokans/lms/internal/database/content"
	"github.com/mrlokans/lms/internal/database/courses"
	"github.com/mrlokans/lms/internal/database/dberr"
	"github.com/mrlokans/lms/internal/database/progress"
	"github.com/mrlokans/lms/internal/entities"
)

// EnrollmentsController manages enrollments and the enrolled course overview.
type EnrollmentsController struct {
	courses  *courses.Repository
	content  *content.Repository
	progress *progress.Repository
	batches  *batches.Repository
	access   *Access
	cipher   *SessionCipher
	audit    *audit.Service
}

func NewEnrollmentsController(
	courseRepo *courses.Repository,
	contentRepo *content.Repository,
	progressRepo *progress.Repository,
	batchRepo *batches.Repository,
	access *Access,
	cipher *SessionCipher,
	auditService *audit.Service,
) *EnrollmentsController {
	return &EnrollmentsController{
		courses:  courseRepo,
		content:  contentRepo,
		progress: progressRepo,
		batches:  batchRepo,
		access:   access,
		cipher:   cipher,
		audit:    auditService,
	}
}

type enrollRequest struct {
	CourseID uint  `json:"course_id" validate:"required"`
	UserID   *uint `json:"user_id"`
}

// Enroll handles POST /api/enrollments. Students enroll themselves; staff and
// admins may pass user_id to enroll someone else.
func (ec *EnrollmentsController) Enroll(c *gin.Context) {
	var req enrollRequest
	if !bind(c, &req) {
		return
	}
	userID := GetUserID(c)
	if req.UserID != nil && *req.UserID != userID {
		if !auth.IsStaffOrAdmin(c) {
			respondForbidden(c, "")
			return
		}
		userID = *req.UserID
	}

	enrollment, err := ec.courses.Enroll(userID, req.CourseID)
	if err != nil {
		if dberr.IsDuplicate(err) {
			respondConflict(c, "Already enrolled in this course.")
			return
		}
		respondDomainError(c, err, "course")
		return
	}
	ec.audit.LogEnrollment(GetUserID(c), "enroll", enrollment.ID, userID, req.CourseID)
	respondCreated(c, enrollment)
}

// ListEnrollments handles GET /api/enrollments?course_id=&user_id=
// Students always get their own; staff and admins may filter freely.
func (ec *EnrollmentsController) ListEnrollments(c *gin.Context) {
	courseID, ok := optionalQueryID(c, "course_id")
	if !ok {
		return
	}
	filter := courses.EnrollmentFilter{CourseID: courseID}
	if auth.IsStaffOrAdmin(c) {
		userID, ok := optionalQueryID(c, "user_id")
		if !ok {
			return
		}
		filter.UserID = userID
	} else {
		self := GetUserID(c)
		filter.UserID = &self
	}

	list, err := ec.courses.ListEnrollments(filter)
	if err != nil {
		respondInternalError(c, err, "list enrollments")
		return
	}
	c.JSON(http.StatusOK, list)
}

// loadOwned loads the enrollment if the caller owns it or is staff.
func (ec *EnrollmentsController) loadOwned(c *gin.Context) (*entities.Enrollment, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	enrollment, err := ec.courses.GetEnrollment(id)
	if err != nil {
		respondDomainError(c, err, "enrollment")
		return nil, false
	}
	if enrollment.UserID != GetUserID(c) && !auth.IsStaffOrAdmin(c) {
		respondForbidden(c, "")
		return nil, false
	}
	return enrollment, true
}

// GetEnrollment handles GET /api/enrollments/:id
func (ec *EnrollmentsController) GetEnrollment(c *gin.Context) {
	enrollment, ok := ec.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

// Deactivate handles POST /api/enrollments/:id/deactivate
func (ec *EnrollmentsController) Deactivate(c *gin.Context) {
	enrollment, ok := ec.loadOwned(c)
	if !ok {
		return
	}
	updated, err := ec.courses.SetEnrollmentActive(enrollment.ID, false)
	if err != nil {
		respondDomainError(c, err, "enrollment")
		return
	}
	ec.audit.LogEnrollment(GetUserID(c), "unenroll", enrollment.ID, enrollment.UserID, enrollment.CourseID)
	c.JSON(http.StatusOK, updated)
}

type enrollmentProgressRequest struct {
	ProgressPercent    int   `json:"progress_percent"`
	LastWatchedVideoID *uint `json:"last_watched_video_id"`
}

// UpdateProgress handles PATCH /api/enrollments/:id/progress. The percentage
// is clamped to 0..100 and the video must belong to the enrollment's course.
func (ec *EnrollmentsController) UpdateProgress(c *gin.Context) {
	enrollment, ok := ec.loadOwned(c)
	if !ok {
		return
	}
	var req enrollmentProgressRequest
	if !bind(c, &req) {
		return
	}
	updated, err := ec.courses.UpdateEnrollmentProgress(enrollment.ID, req.ProgressPercent, req.LastWatchedVideoID)
	if err != nil {
		respondDomainError(c, err, "video")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// CourseOverview is the enrolled view of a course.
type CourseOverview struct {
	Course       *entities.Course       `json:"course"`
	Videos       []entities.Video       `json:"videos"`
	Syllabi      []entities.Syllabus    `json:"syllabus"`
	CurrentVideo *entities.Video        `json:"current_video"`
	NextVideo    *entities.Video        `json:"next_video"`
	LiveSessions []entities.LiveSession `json:"live_sessions"`
}

// Overview handles GET /api/courses/:id/overview
func (ec *EnrollmentsController) Overview(c *gin.Context) {
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	course, err := ec.courses.GetCourse(courseID)
	if err != nil {
		respondDomainError(c, err, "course")
		return
	}
	allowed, err := ec.access.CanViewCourse(c, courseID)
	if err != nil {
		respondInternalError(c, err, "course access")
		return
	}
	if !allowed {
		respondForbidden(c, msgNotEnrolled)
		return
	}

	overview := CourseOverview{Course: course}
	if overview.Videos, err = ec.content.CourseVideos(courseID); err != nil {
		respondInternalError(c, err, "course videos")
		return
	}
	if overview.Syllabi, err = ec.content.ListSyllabi(&courseID, true); err != nil {
		respondInternalError(c, err, "course syllabi")
		return
	}

	pos, err := ec.progress.Position(GetUserID(c), courseID)
	if err != nil {
		respondInternalError(c, err, "course position")
		return
	}
	overview.CurrentVideo = pos.Current
	overview.NextVideo = pos.Resume

	batchIDs, err := ec.courseBatchIDs(c, courseID)
	if err != nil {
		respondInternalError(c, err, "course batches")
		return
	}
	sessions, err := ec.content.ListLiveSessions(content.LiveSessionFilter{BatchIDs: batchIDs})
	if err != nil {
		respondInternalError(c, err, "live sessions")
		return
	}
	overview.LiveSessions = ec.cipher.OpenAll(sessions)

	c.JSON(http.StatusOK, overview)
}

// courseBatchIDs returns the caller's batches of the course.
func (ec *EnrollmentsController) courseBatchIDs(c *gin.Context, courseID uint) ([]uint, error) {
	if auth.IsStudent(c) {
		return ec.batches.BatchIDsForStudent(GetUserID(c), &courseID)
	}
	list, err := ec.batches.ListBatches(batches.Filter{CourseID: &courseID}, viewer(c))
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ID)
	}
	return ids, nil
}
