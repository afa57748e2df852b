package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/audit"
	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/dberr"
	"github.com/mrlokans/lms/internal/database/users"
	"github.com/mrlokans/lms/internal/entities"
)

const dateLayout = "2006-01-02"

// AccountsController serves the caller's account settings, name verification
// and the admin user management endpoints.
type AccountsController struct {
	users       *users.Repository
	authService *auth.Service
	audit       *audit.Service
}

func NewAccountsController(repo *users.Repository, authService *auth.Service, auditService *audit.Service) *AccountsController {
	return &AccountsController{users: repo, authService: authService, audit: auditService}
}

type accountSettingsRequest struct {
	FullName     *string `json:"full_name" validate:"omitempty,max=255"`
	TimeZone     *string `json:"time_zone" validate:"omitempty,max=64"`
	Language     *string `json:"language" validate:"omitempty,max=16"`
	PhoneNumber  *string `json:"phone_number" validate:"omitempty,max=32"`
	DateOfBirth  *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,url"`
	Email        *string `json:"email"`
}

// GetSettings handles GET /api/account/settings
func (ac *AccountsController) GetSettings(c *gin.Context) {
	user, err := ac.users.GetUserByID(GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateSettings handles PATCH /api/account/settings. Email is read-only.
func (ac *AccountsController) UpdateSettings(c *gin.Context) {
	var req accountSettingsRequest
	if !bind(c, &req) {
		return
	}
	if req.Email != nil {
		respondBadRequest(c, "email cannot be changed")
		return
	}

	updates := map[string]any{}
	if req.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.TimeZone != nil {
		updates["time_zone"] = *req.TimeZone
	}
	if req.Language != nil {
		updates["language"] = *req.Language
	}
	if req.PhoneNumber != nil {
		// An empty phone clears it; NULLs do not collide on the unique index.
		if phone := strings.TrimSpace(*req.PhoneNumber); phone == "" {
			updates["phone_number"] = nil
		} else {
			updates["phone_number"] = phone
		}
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth == "" {
			updates["date_of_birth"] = nil
		} else {
			dob, _ := time.Parse(dateLayout, *req.DateOfBirth)
			updates["date_of_birth"] = dob
		}
	}
	if req.ProfileImage != nil {
		updates["profile_image"] = *req.ProfileImage
	}
	if len(updates) == 0 {
		ac.GetSettings(c)
		return
	}

	user, err := ac.users.UpdateUser(GetUserID(c), updates)
	if err != nil {
		if dberr.IsDuplicate(err) {
			respondConflict(c, "phone number is already in use")
			return
		}
		respondDomainError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

type nameVerificationRequest struct {
	LegalName string `json:"legal_name" validate:"required,max=255"`
}

// SubmitNameVerification handles POST /api/account/name-verification
func (ac *AccountsController) SubmitNameVerification(c *gin.Context) {
	var req nameVerificationRequest
	if !bind(c, &req) {
		return
	}
	nv, err := ac.users.SubmitNameVerification(GetUserID(c), strings.TrimSpace(req.LegalName))
	if err != nil {
		respondDomainError(c, err, "name verification")
		return
	}
	respondCreated(c, nv)
}

// GetNameVerification handles GET /api/account/name-verification
func (ac *AccountsController) GetNameVerification(c *gin.Context) {
	nv, err := ac.users.GetNameVerificationForUser(GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "name verification")
		return
	}
	c.JSON(http.StatusOK, nv)
}

// --- Admin ---

// ListUsers handles GET /api/admin/users?role=&search=&limit=&offset=
func (ac *AccountsController) ListUsers(c *gin.Context) {
	role := entities.UserRole(c.Query("role"))
	if role != "" && !role.Valid() {
		respondBadRequest(c, "invalid role")
		return
	}
	limit, offset := pagination(c, 50, 200)
	list, total, err := ac.users.ListUsers(users.ListFilter{
		Role:   role,
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}
	respondPage(c, list, total, limit, offset)
}

type createUserRequest struct {
	Email    string            `json:"email" validate:"required,email"`
	FullName string            `json:"full_name" validate:"max=255"`
	Password string            `json:"password" validate:"required,min=8"`
	Role     entities.UserRole `json:"role" validate:"required,oneof=student staff admin"`
}

// CreateUser handles POST /api/admin/users. The account is active and verified.
func (ac *AccountsController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bind(c, &req) {
		return
	}
	user, err := ac.authService.CreateUser(req.Email, req.FullName, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			respondConflict(c, auth.AuthErrorMessage(err))
			return
		}
		if status := auth.AuthErrorStatus(err); status != http.StatusInternalServerError {
			respondError(c, status, auth.AuthErrorMessage(err))
			return
		}
		respondInternalError(c, err, "create user")
		return
	}
	ac.audit.LogSettings(GetUserID(c), "user_create", fmt.Sprintf("Created %s account %s", user.Role, user.Email))
	respondCreated(c, user)
}

// GetUser handles GET /api/admin/users/:id
func (ac *AccountsController) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := ac.users.GetUserByID(id)
	if err != nil {
		respondDomainError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

type roleRequest struct {
	Role entities.UserRole `json:"role" validate:"required,oneof=student staff admin"`
}

// SetRole handles PATCH /api/admin/users/:id/role
func (ac *AccountsController) SetRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if !bind(c, &req) {
		return
	}
	if id == GetUserID(c) && req.Role != entities.UserRoleAdmin {
		respondBadRequest(c, "You cannot remove your own admin role")
		return
	}
	user, err := ac.users.SetRole(id, req.Role)
	if err != nil {
		respondDomainError(c, err, "user")
		return
	}
	ac.audit.LogSettings(GetUserID(c), "user_role_change", fmt.Sprintf("Set role of %s to %s", user.Email, user.Role))
	c.JSON(http.StatusOK, user)
}

// Activate handles POST /api/admin/users/:id/activate
func (ac *AccountsController) Activate(c *gin.Context) {
	ac.setActive(c, true)
}

// Deactivate handles POST /api/admin/users/:id/deactivate
func (ac *AccountsController) Deactivate(c *gin.Context) {
	ac.setActive(c, false)
}

func (ac *AccountsController) setActive(c *gin.Context, active bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if id == GetUserID(c) && !active {
		respondBadRequest(c, "You cannot deactivate your own account")
		return
	}
	user, err := ac.users.SetActive(id, active)
	if err != nil {
		respondDomainError(c, err, "user")
		return
	}
	if !active {
		// Drop the API token so the deactivated user loses bearer access at once.
		if err := ac.authService.RevokeToken(id); err != nil {
			respondInternalError(c, err, "revoke token")
			return
		}
	}
	action := "user_deactivate"
	if active {
		action = "user_activate"
	}
	ac.audit.LogSettings(GetUserID(c), action, user.Email)
	c.JSON(http.StatusOK, user)
}

type staffProfileRequest struct {
	HasCourseManagementAccess       bool `json:"has_course_management_access"`
	HasBatchManagementAccess        bool `json:"has_batch_management_access"`
	HasContentManagementAccess      bool `json:"has_content_management_access"`
	HasAnnouncementManagementAccess bool `json:"has_announcement_management_access"`
}

// UpsertStaffProfile handles PUT /api/admin/users/:id/staff-profile
func (ac *AccountsController) UpsertStaffProfile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req staffProfileRequest
	if !bind(c, &req) {
		return
	}
	user, err := ac.users.GetUserByID(id)
	if err != nil {
		respondDomainError(c, err, "user")
		return
	}
	if user.Role != entities.UserRoleStaff {
		respondBadRequest(c, "Staff profiles can only be attached to staff users")
		return
	}

	profile := &entities.StaffProfile{
		UserID:                          id,
		HasCourseManagementAccess:       req.HasCourseManagementAccess,
		HasBatchManagementAccess:        req.HasBatchManagementAccess,
		HasContentManagementAccess:      req.HasContentManagementAccess,
		HasAnnouncementManagementAccess: req.HasAnnouncementManagementAccess,
	}
	if err := ac.users.UpsertStaffProfile(profile); err != nil {
		respondInternalError(c, err, "upsert staff profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListNameVerifications handles GET /api/admin/name-verifications?status=
func (ac *AccountsController) ListNameVerifications(c *gin.Context) {
	list, err := ac.users.ListNameVerifications(entities.VerificationStatus(c.Query("status")))
	if err != nil {
		respondInternalError(c, err, "list name verifications")
		return
	}
	c.JSON(http.StatusOK, list)
}

type reviewVerificationRequest struct {
	Status entities.VerificationStatus `json:"status" validate:"required,oneof=approved rejected"`
}

// ReviewNameVerification handles POST /api/admin/name-verifications/:id/review
func (ac *AccountsController) ReviewNameVerification(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reviewVerificationRequest
	if !bind(c, &req) {
		return
	}
	nv, err := ac.users.ReviewNameVerification(id, req.Status)
	if err != nil {
		respondDomainError(c, err, "name verification")
		return
	}
	c.JSON(http.StatusOK, nv)
}
