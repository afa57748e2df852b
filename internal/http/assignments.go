package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/audit"
	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/assignments"
	"github.com/mrlokans/lms/internal/entities"
)

// AssignmentsController manages assignments, submissions and grading.
type AssignmentsController struct {
	repo   *assignments.Repository
	access *Access
	audit  *audit.Service
}

func NewAssignmentsController(repo *assignments.Repository, access *Access, auditService *audit.Service) *AssignmentsController {
	return &AssignmentsController{repo: repo, access: access, audit: auditService}
}

type assignmentRequest struct {
	CourseID    uint      `json:"course_id" validate:"required"`
	SyllabusID  *uint     `json:"syllabus_id"`
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

func (r *assignmentRequest) apply(a *entities.Assignment) {
	a.CourseID = r.CourseID
	a.SyllabusID = r.SyllabusID
	a.Title = strings.TrimSpace(r.Title)
	a.Description = r.Description
	a.DueDate = r.DueDate
}

// ListAssignments handles GET /api/assignments?course_id=&syllabus_id=
// Students only see assignments of courses they are enrolled in.
func (ac *AssignmentsController) ListAssignments(c *gin.Context) {
	courseID, ok := optionalQueryID(c, "course_id")
	if !ok {
		return
	}
	syllabusID, ok := optionalQueryID(c, "syllabus_id")
	if !ok {
		return
	}
	filter := assignments.Filter{CourseID: courseID, SyllabusID: syllabusID}
	if !auth.IsStaffOrAdmin(c) {
		ids, err := ac.access.EnrolledCourseIDs(c)
		if err != nil {
			respondInternalError(c, err, "enrolled courses")
			return
		}
		filter.CourseIDs = ids
	}

	list, err := ac.repo.ListAssignments(filter)
	if err != nil {
		respondInternalError(c, err, "list assignments")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetAssignment handles GET /api/assignments/:id
func (ac *AssignmentsController) GetAssignment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	assignment, err := ac.repo.GetAssignment(id)
	if err != nil {
		respondDomainError(c, err, "assignment")
		return
	}
	allowed, err := ac.access.CanViewCourse(c, assignment.CourseID)
	if err != nil {
		respondInternalError(c, err, "course access")
		return
	}
	if !allowed {
		respondForbidden(c, msgNotEnrolled)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// CreateAssignment handles POST /api/assignments
func (ac *AssignmentsController) CreateAssignment(c *gin.Context) {
	var req assignmentRequest
	if !bind(c, &req) {
		return
	}
	creator := GetUserID(c)
	assignment := &entities.Assignment{CreatedByID: &creator}
	req.apply(assignment)
	if err := ac.repo.CreateAssignment(assignment); err != nil {
		respondDomainError(c, err, "course")
		return
	}
	respondCreated(c, assignment)
}

// UpdateAssignment handles PUT /api/assignments/:id
func (ac *AssignmentsController) UpdateAssignment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req assignmentRequest
	if !bind(c, &req) {
		return
	}
	assignment, err := ac.repo.GetAssignment(id)
	if err != nil {
		respondDomainError(c, err, "assignment")
		return
	}
	req.apply(assignment)
	if err := ac.repo.UpdateAssignment(assignment); err != nil {
		respondDomainError(c, err, "assignment")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// DeleteAssignment handles DELETE /api/assignments/:id
func (ac *AssignmentsController) DeleteAssignment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	assignment, err := ac.repo.GetAssignment(id)
	if err != nil {
		respondDomainError(c, err, "assignment")
		return
	}
	if err := ac.repo.DeleteAssignment(id); err != nil {
		respondDomainError(c, err, "assignment")
		return
	}
	ac.audit.LogDelete(GetUserID(c), "assignment", id, assignment.Title)
	respondNoContent(c)
}

// --- Submissions ---

type submitRequest struct {
	FileURL string `json:"file_url" validate:"required,url,max=500"`
}

type gradeRequest struct {
	Grade    string `json:"grade" validate:"required,max=10"`
	Feedback string `json:"feedback"`
}

// Submit handles POST /api/assignments/:id/submissions (students)
func (ac *AssignmentsController) Submit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req submitRequest
	if !bind(c, &req) {
		return
	}
	submission, err := ac.repo.Submit(GetUserID(c), id, req.FileURL)
	if err != nil {
		respondDomainError(c, err, "assignment")
		return
	}
	respondCreated(c, submission)
}

// ListSubmissions handles GET /api/assignments/:id/submissions (staff and admins)
func (ac *AssignmentsController) ListSubmissions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	list, err := ac.repo.ListSubmissions(assignments.SubmissionFilter{AssignmentID: &id})
	if err != nil {
		respondInternalError(c, err, "list submissions")
		return
	}
	c.JSON(http.StatusOK, list)
}

// MySubmissions handles GET /api/submissions/mine
func (ac *AssignmentsController) MySubmissions(c *gin.Context) {
	self := GetUserID(c)
	list, err := ac.repo.ListSubmissions(assignments.SubmissionFilter{StudentID: &self})
	if err != nil {
		respondInternalError(c, err, "list submissions")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetSubmission handles GET /api/submissions/:id (owner, staff and admins)
func (ac *AssignmentsController) GetSubmission(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	submission, err := ac.repo.GetSubmission(id)
	if err != nil {
		respondDomainError(c, err, "submission")
		return
	}
	if submission.StudentID != GetUserID(c) && !auth.IsStaffOrAdmin(c) {
		respondForbidden(c, "")
		return
	}
	c.JSON(http.StatusOK, submission)
}

// GradeSubmission handles POST /api/submissions/:id/grade (staff and admins)
func (ac *AssignmentsController) GradeSubmission(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req gradeRequest
	if !bind(c, &req) {
		return
	}
	grade := strings.TrimSpace(req.Grade)
	submission, err := ac.repo.Grade(id, grade, req.Feedback)
	if err != nil {
		respondDomainError(c, err, "submission")
		return
	}
	ac.audit.LogGrade(GetUserID(c), id, grade)
	c.JSON(http.StatusOK, submission)
}
