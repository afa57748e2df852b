package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/audit"
	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/batches"
	"github.com/mrlokans/lms/internal/entities"
)

// BatchesController manages batches, their students and assigned staff.
type BatchesController struct {
	repo   *batches.Repository
	access *Access
	audit  *audit.Service
}

func NewBatchesController(repo *batches.Repository, access *Access, auditService *audit.Service) *BatchesController {
	return &BatchesController{repo: repo, access: access, audit: auditService}
}

type batchRequest struct {
	BatchName           string     `json:"batch_name" validate:"required,max=255"`
	CourseID            uint       `json:"course_id" validate:"required"`
	StartDate           *time.Time `json:"start_date"`
	EndDate             *time.Time `json:"end_date"`
	ManagerID           *uint      `json:"manager_id"`
	AssistantManagerID  *uint      `json:"assistant_manager_id"`
	CourseCoordinatorID *uint      `json:"course_coordinator_id"`
	SupportContactID    *uint      `json:"support_contact_id"`
}

func (r *batchRequest) apply(b *entities.Batch) {
	b.BatchName = strings.TrimSpace(r.BatchName)
	b.CourseID = r.CourseID
	b.StartDate = r.StartDate
	b.EndDate = r.EndDate
	b.ManagerID = r.ManagerID
	b.AssistantManagerID = r.AssistantManagerID
	b.CourseCoordinatorID = r.CourseCoordinatorID
	b.SupportContactID = r.SupportContactID
}

func (r *batchRequest) validDates() bool {
	return r.StartDate == nil || r.EndDate == nil || !r.EndDate.Before(*r.StartDate)
}

// ListBatches handles GET /api/batches?course_id=
func (bc *BatchesController) ListBatches(c *gin.Context) {
	bc.list(c, false)
}

// ListArchived handles GET /api/batches/archived?course_id=
func (bc *BatchesController) ListArchived(c *gin.Context) {
	bc.list(c, true)
}

func (bc *BatchesController) list(c *gin.Context, archived bool) {
	courseID, ok := optionalQueryID(c, "course_id")
	if !ok {
		return
	}
	list, err := bc.repo.ListBatches(batches.Filter{Archived: archived, CourseID: courseID}, viewer(c))
	if err != nil {
		respondInternalError(c, err, "list batches")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetBatch handles GET /api/batches/:id (participants and admins)
func (bc *BatchesController) GetBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !bc.access.requireInBatch(c, id) {
		return
	}
	batch, err := bc.repo.GetBatch(id)
	if err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// CreateBatch handles POST /api/batches
func (bc *BatchesController) CreateBatch(c *gin.Context) {
	if !bc.access.requireStaffAccess(c, batchManagement) {
		return
	}
	var req batchRequest
	if !bind(c, &req) {
		return
	}
	if !req.validDates() {
		respondBadRequest(c, "end_date must not be before start_date")
		return
	}
	batch := &entities.Batch{}
	req.apply(batch)
	if err := bc.repo.CreateBatch(batch); err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	respondCreated(c, batch)
}

// UpdateBatch handles PUT /api/batches/:id
func (bc *BatchesController) UpdateBatch(c *gin.Context) {
	if !bc.access.requireStaffAccess(c, batchManagement) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req batchRequest
	if !bind(c, &req) {
		return
	}
	if !req.validDates() {
		respondBadRequest(c, "end_date must not be before start_date")
		return
	}
	batch, err := bc.repo.GetBatch(id)
	if err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	req.apply(batch)
	batch.Course = nil
	if err := bc.repo.UpdateBatch(batch); err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// DeleteBatch handles DELETE /api/batches/:id (admin only)
func (bc *BatchesController) DeleteBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := bc.repo.GetBatch(id)
	if err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	if err := bc.repo.DeleteBatch(id); err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	bc.audit.LogDelete(GetUserID(c), "batch", id, batch.BatchName)
	respondNoContent(c)
}

// ArchiveBatch handles POST /api/batches/:id/archive
func (bc *BatchesController) ArchiveBatch(c *gin.Context) {
	if !bc.access.requireStaffAccess(c, batchManagement) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := bc.repo.Archive(id)
	if err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	bc.audit.LogBatch(GetUserID(c), id, "archive", "Archived batch "+batch.BatchName)
	c.JSON(http.StatusOK, batch)
}

// UnarchiveBatch handles POST /api/batches/:id/unarchive
func (bc *BatchesController) UnarchiveBatch(c *gin.Context) {
	if !bc.access.requireStaffAccess(c, batchManagement) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := bc.repo.Unarchive(id)
	if err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	bc.audit.LogBatch(GetUserID(c), id, "unarchive", "Unarchived batch "+batch.BatchName)
	c.JSON(http.StatusOK, batch)
}

// --- Students ---

type addStudentRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
}

type moveStudentRequest struct {
	TargetBatchID uint `json:"target_batch_id" validate:"required"`
}

// ListStudents handles GET /api/batches/:id/students
func (bc *BatchesController) ListStudents(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !bc.access.requireInBatch(c, id) {
		return
	}
	list, err := bc.repo.ListStudents(id)
	if err != nil {
		respondInternalError(c, err, "list batch students")
		return
	}
	c.JSON(http.StatusOK, list)
}

// AddStudent handles POST /api/batches/:id/students. The student is enrolled
// in the batch course when not already.
func (bc *BatchesController) AddStudent(c *gin.Context) {
	if !bc.access.requireStaffAccess(c, batchManagement) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req addStudentRequest
	if !bind(c, &req) {
		return
	}
	membership, err := bc.repo.AddStudent(id, req.StudentID)
	if err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	respondCreated(c, membership)
}

// MoveStudent handles PUT /api/batches/:id/students/:student_id
func (bc *BatchesController) MoveStudent(c *gin.Context) {
	if !bc.access.requireStaffAccess(c, batchManagement) {
		return
	}
	id, studentID, ok := batchMemberParams(c)
	if !ok {
		return
	}
	var req moveStudentRequest
	if !bind(c, &req) {
		return
	}
	moved, err := bc.repo.MoveStudent(id, studentID, req.TargetBatchID)
	if err != nil {
		respondDomainError(c, err, "batch student")
		return
	}
	c.JSON(http.StatusOK, moved)
}

// RemoveStudent handles DELETE /api/batches/:id/students/:student_id
func (bc *BatchesController) RemoveStudent(c *gin.Context) {
	if !bc.access.requireStaffAccess(c, batchManagement) {
		return
	}
	id, studentID, ok := batchMemberParams(c)
	if !ok {
		return
	}
	if err := bc.repo.RemoveStudent(id, studentID); err != nil {
		respondDomainError(c, err, "batch student")
		return
	}
	respondNoContent(c)
}

// SuspendStudent handles POST /api/batches/:id/students/:student_id/suspend
func (bc *BatchesController) SuspendStudent(c *gin.Context) {
	bc.setSuspended(c, true)
}

// UnsuspendStudent handles POST /api/batches/:id/students/:student_id/unsuspend
func (bc *BatchesController) UnsuspendStudent(c *gin.Context) {
	bc.setSuspended(c, false)
}

func (bc *BatchesController) setSuspended(c *gin.Context, suspended bool) {
	id, studentID, ok := batchMemberParams(c)
	if !ok {
		return
	}
	if !auth.IsAdmin(c) && !bc.access.requireInBatch(c, id) {
		return
	}
	membership, err := bc.repo.SetSuspended(id, studentID, suspended)
	if err != nil {
		respondDomainError(c, err, "batch student")
		return
	}

	action, message := "suspend", "Student has been suspended."
	if !suspended {
		action, message = "unsuspend", "Student has been unsuspended."
	}
	bc.audit.LogBatch(GetUserID(c), id, action, message)
	c.JSON(http.StatusOK, SuccessResponse{Message: message, Data: membership})
}

// ListSuspended handles GET /api/batches/suspended
func (bc *BatchesController) ListSuspended(c *gin.Context) {
	list, err := bc.repo.ListSuspended(viewer(c))
	if err != nil {
		respondInternalError(c, err, "list suspended students")
		return
	}
	c.JSON(http.StatusOK, list)
}

func batchMemberParams(c *gin.Context) (batchID, studentID uint, ok bool) {
	if batchID, ok = parseIDParam(c, "id"); !ok {
		return 0, 0, false
	}
	if studentID, ok = parseIDParam(c, "student_id"); !ok {
		return 0, 0, false
	}
	return batchID, studentID, true
}

// --- Staff ---

type staffIDsRequest struct {
	StaffIDs []uint `json:"staff_ids" validate:"required,min=1,dive,required"`
}

// ListStaff handles GET /api/batches/:id/staff
func (bc *BatchesController) ListStaff(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !bc.access.requireInBatch(c, id) {
		return
	}
	list, err := bc.repo.ListStaff(id)
	if err != nil {
		respondInternalError(c, err, "list batch staff")
		return
	}
	c.JSON(http.StatusOK, list)
}

// AssignStaff handles POST /api/batches/:id/staff
func (bc *BatchesController) AssignStaff(c *gin.Context) {
	if !bc.access.requireStaffAccess(c, batchManagement) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req staffIDsRequest
	if !bind(c, &req) {
		return
	}
	list, err := bc.repo.AssignStaff(id, req.StaffIDs)
	if err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	c.JSON(http.StatusOK, list)
}

// RemoveStaff handles DELETE /api/batches/:id/staff
func (bc *BatchesController) RemoveStaff(c *gin.Context) {
	if !bc.access.requireStaffAccess(c, batchManagement) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req staffIDsRequest
	if !bind(c, &req) {
		return
	}
	if err := bc.repo.RemoveStaff(id, req.StaffIDs); err != nil {
		respondDomainError(c, err, "batch")
		return
	}
	respondSuccess(c, "Staff removed from batch.")
}
