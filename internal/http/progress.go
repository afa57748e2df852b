package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/database/progress"
	"github.com/mrlokans/lms/internal/tasks"
)

// ProgressController records watched videos and reports completion.
type ProgressController struct {
	repo       *progress.Repository
	access     *Access
	dispatcher *tasks.Dispatcher
}

func NewProgressController(repo *progress.Repository, access *Access, dispatcher *tasks.Dispatcher) *ProgressController {
	return &ProgressController{repo: repo, access: access, dispatcher: dispatcher}
}

type videoProgressRequest struct {
	WatchedSeconds int `json:"watched_seconds" validate:"gte=0"`
}

// UpdateVideo handles POST /api/progress/videos/:id
func (pc *ProgressController) UpdateVideo(c *gin.Context) {
	videoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req videoProgressRequest
	if !bind(c, &req) {
		return
	}
	result, err := pc.repo.UpdateVideoProgress(GetUserID(c), videoID, req.WatchedSeconds)
	if err != nil {
		respondDomainError(c, err, "video")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSyllabus handles GET /api/progress/syllabi/:id?user_id=
func (pc *ProgressController) GetSyllabus(c *gin.Context) {
	syllabusID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := ownerOrStaff(c)
	if !ok {
		return
	}
	breakdown, err := pc.repo.SyllabusProgress(userID, syllabusID)
	if err != nil {
		respondDomainError(c, err, "syllabus")
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

type markSyllabusRequest struct {
	IsCompleted bool `json:"is_completed"`
}

// MarkSyllabus handles POST /api/progress/syllabi/:id. Callers mark their own
// progress only.
func (pc *ProgressController) MarkSyllabus(c *gin.Context) {
	syllabusID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req markSyllabusRequest
	if !bind(c, &req) {
		return
	}
	breakdown, err := pc.repo.MarkSyllabus(GetUserID(c), syllabusID, req.IsCompleted)
	if err != nil {
		respondDomainError(c, err, "syllabus")
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// GetCourse handles GET /api/progress/courses/:id?user_id=
func (pc *ProgressController) GetCourse(c *gin.Context) {
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := ownerOrStaff(c)
	if !ok {
		return
	}
	if err := pc.repo.RequireEnrollment(userID, courseID); err != nil {
		respondDomainError(c, err, "enrollment")
		return
	}
	report, err := pc.repo.CourseProgress(userID, courseID)
	if err != nil {
		respondDomainError(c, err, "course")
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetPosition handles GET /api/progress/courses/:id/position
func (pc *ProgressController) GetPosition(c *gin.Context) {
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)
	if err := pc.repo.RequireEnrollment(userID, courseID); err != nil {
		respondDomainError(c, err, "enrollment")
		return
	}
	pos, err := pc.repo.Position(userID, courseID)
	if err != nil {
		respondInternalError(c, err, "course position")
		return
	}
	c.JSON(http.StatusOK, pos)
}

// GetBatch handles GET /api/progress/batches/:id (staff and admins)
func (pc *ProgressController) GetBatch(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !pc.access.requireInBatch(c, batchID) {
		return
	}
	report, err := pc.repo.BatchProgress(batchID)
	if err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	c.JSON(http.StatusOK, report)
}

// RecomputeCourse handles POST /api/progress/courses/:id/recompute (staff and admins)
func (pc *ProgressController) RecomputeCourse(c *gin.Context) {
	courseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	taskID, err := pc.dispatcher.RecomputeCourseProgress(c.Request.Context(), courseID)
	if err != nil {
		respondInternalError(c, err, "recompute course progress")
		return
	}
	respondAccepted(c, "Progress recompute scheduled", gin.H{"task_id": taskID, "async": pc.dispatcher.Async()})
}
