package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/profiles"
	"github.com/mrlokans/lms/internal/entities"
)

// ProfileController manages the caller's career profile. Staff and admins may
// read anyone's entries through ?user_id=; only owners and admins edit them.
type ProfileController struct {
	repo *profiles.Repository
}

func NewProfileController(repo *profiles.Repository) *ProfileController {
	return &ProfileController{repo: repo}
}

// canEdit reports whether the caller may modify an entry owned by ownerID.
func canEdit(c *gin.Context, ownerID uint) bool {
	if ownerID == GetUserID(c) || auth.IsAdmin(c) {
		return true
	}
	respondForbidden(c, "")
	return false
}

// editTarget resolves ?user_id= for writes: the caller, or anyone for admins.
func editTarget(c *gin.Context) (uint, bool) {
	requested, ok := optionalQueryID(c, "user_id")
	if !ok {
		return 0, false
	}
	if requested == nil {
		return GetUserID(c), true
	}
	if !canEdit(c, *requested) {
		return 0, false
	}
	return *requested, true
}

// --- Contact info ---

type contactInfoRequest struct {
	GithubURL    string `json:"github_url" validate:"omitempty,url,max=500"`
	LinkedinURL  string `json:"linkedin_url" validate:"omitempty,url,max=500"`
	PortfolioURL string `json:"portfolio_url" validate:"omitempty,url,max=500"`
}

// GetContactInfo handles GET /api/profile/contact-info?user_id=
func (pc *ProfileController) GetContactInfo(c *gin.Context) {
	userID, ok := ownerOrStaff(c)
	if !ok {
		return
	}
	ci, err := pc.repo.GetContactInfo(userID)
	if err != nil {
		respondInternalError(c, err, "contact info")
		return
	}
	c.JSON(http.StatusOK, ci)
}

// UpdateContactInfo handles PUT /api/profile/contact-info?user_id=
func (pc *ProfileController) UpdateContactInfo(c *gin.Context) {
	userID, ok := editTarget(c)
	if !ok {
		return
	}
	var req contactInfoRequest
	if !bind(c, &req) {
		return
	}
	ci := &entities.ContactInfo{
		UserID:       userID,
		GithubURL:    req.GithubURL,
		LinkedinURL:  req.LinkedinURL,
		PortfolioURL: req.PortfolioURL,
	}
	if err := pc.repo.UpsertContactInfo(ci); err != nil {
		respondDomainError(c, err, "contact info")
		return
	}
	c.JSON(http.StatusOK, ci)
}

// --- Work experience ---

type workExperienceRequest struct {
	Company     string `json:"company" validate:"required,max=255"`
	Title       string `json:"title" validate:"required,max=255"`
	StartYear   int    `json:"start_year" validate:"required,gte=1900,lte=2100"`
	EndYear     *int   `json:"end_year" validate:"omitempty,gte=1900,lte=2100"`
	IsCurrent   bool   `json:"is_current"`
	Description string `json:"description"`
}

func (r *workExperienceRequest) apply(w *entities.WorkExperience) {
	w.Company = strings.TrimSpace(r.Company)
	w.Title = strings.TrimSpace(r.Title)
	w.StartYear = r.StartYear
	w.EndYear = r.EndYear
	w.IsCurrent = r.IsCurrent
	w.Description = r.Description
}

// ListWorkExperience handles GET /api/profile/work-experience?user_id=
func (pc *ProfileController) ListWorkExperience(c *gin.Context) {
	userID, ok := ownerOrStaff(c)
	if !ok {
		return
	}
	list, err := pc.repo.ListWorkExperience(userID)
	if err != nil {
		respondInternalError(c, err, "list work experience")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateWorkExperience handles POST /api/profile/work-experience
func (pc *ProfileController) CreateWorkExperience(c *gin.Context) {
	var req workExperienceRequest
	if !bind(c, &req) {
		return
	}
	w := &entities.WorkExperience{UserID: GetUserID(c)}
	req.apply(w)
	if err := pc.repo.SaveWorkExperience(w); err != nil {
		respondDomainError(c, err, "work experience")
		return
	}
	respondCreated(c, w)
}

// UpdateWorkExperience handles PUT /api/profile/work-experience/:id
func (pc *ProfileController) UpdateWorkExperience(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req workExperienceRequest
	if !bind(c, &req) {
		return
	}
	w, err := pc.repo.GetWorkExperience(id)
	if err != nil {
		respondDomainError(c, err, "work experience")
		return
	}
	if !canEdit(c, w.UserID) {
		return
	}
	req.apply(w)
	if err := pc.repo.SaveWorkExperience(w); err != nil {
		respondDomainError(c, err, "work experience")
		return
	}
	c.JSON(http.StatusOK, w)
}

// DeleteWorkExperience handles DELETE /api/profile/work-experience/:id
func (pc *ProfileController) DeleteWorkExperience(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	w, err := pc.repo.GetWorkExperience(id)
	if err != nil {
		respondDomainError(c, err, "work experience")
		return
	}
	if !canEdit(c, w.UserID) {
		return
	}
	if err := pc.repo.DeleteWorkExperience(id); err != nil {
		respondDomainError(c, err, "work experience")
		return
	}
	respondNoContent(c)
}

// --- Education ---

type educationRequest struct {
	Institution  string `json:"institution" validate:"required,max=255"`
	Degree       string `json:"degree" validate:"max=255"`
	FieldOfStudy string `json:"field_of_study" validate:"max=255"`
	StartYear    int    `json:"start_year" validate:"required,gte=1900,lte=2100"`
	EndYear      *int   `json:"end_year" validate:"omitempty,gte=1900,lte=2100"`
	IsCurrent    bool   `json:"is_current"`
}

func (r *educationRequest) apply(e *entities.Education) {
	e.Institution = strings.TrimSpace(r.Institution)
	e.Degree = r.Degree
	e.FieldOfStudy = r.FieldOfStudy
	e.StartYear = r.StartYear
	e.EndYear = r.EndYear
	e.IsCurrent = r.IsCurrent
}

// ListEducation handles GET /api/profile/education?user_id=
func (pc *ProfileController) ListEducation(c *gin.Context) {
	userID, ok := ownerOrStaff(c)
	if !ok {
		return
	}
	list, err := pc.repo.ListEducation(userID)
	if err != nil {
		respondInternalError(c, err, "list education")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateEducation handles POST /api/profile/education
func (pc *ProfileController) CreateEducation(c *gin.Context) {
	var req educationRequest
	if !bind(c, &req) {
		return
	}
	e := &entities.Education{UserID: GetUserID(c)}
	req.apply(e)
	if err := pc.repo.SaveEducation(e); err != nil {
		respondDomainError(c, err, "education")
		return
	}
	respondCreated(c, e)
}

// UpdateEducation handles PUT /api/profile/education/:id
func (pc *ProfileController) UpdateEducation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req educationRequest
	if !bind(c, &req) {
		return
	}
	e, err := pc.repo.GetEducation(id)
	if err != nil {
		respondDomainError(c, err, "education")
		return
	}
	if !canEdit(c, e.UserID) {
		return
	}
	req.apply(e)
	if err := pc.repo.SaveEducation(e); err != nil {
		respondDomainError(c, err, "education")
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteEducation handles DELETE /api/profile/education/:id
func (pc *ProfileController) DeleteEducation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	e, err := pc.repo.GetEducation(id)
	if err != nil {
		respondDomainError(c, err, "education")
		return
	}
	if !canEdit(c, e.UserID) {
		return
	}
	if err := pc.repo.DeleteEducation(id); err != nil {
		respondDomainError(c, err, "education")
		return
	}
	respondNoContent(c)
}

// --- Badges ---

type badgeRequest struct {
	UserID      uint   `json:"user_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

// ListBadges handles GET /api/profile/badges?user_id=
func (pc *ProfileController) ListBadges(c *gin.Context) {
	userID, ok := ownerOrStaff(c)
	if !ok {
		return
	}
	list, err := pc.repo.ListBadges(userID)
	if err != nil {
		respondInternalError(c, err, "list badges")
		return
	}
	c.JSON(http.StatusOK, list)
}

// AwardBadge handles POST /api/profile/badges (staff and admins)
func (pc *ProfileController) AwardBadge(c *gin.Context) {
	var req badgeRequest
	if !bind(c, &req) {
		return
	}
	awarder := GetUserID(c)
	b := &entities.Badge{
		UserID:      req.UserID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		AwardedByID: &awarder,
	}
	if err := pc.repo.AwardBadge(b); err != nil {
		respondDomainError(c, err, "user")
		return
	}
	respondCreated(c, b)
}

// DeleteBadge handles DELETE /api/profile/badges/:id (staff and admins)
func (pc *ProfileController) DeleteBadge(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := pc.repo.DeleteBadge(id); err != nil {
		respondDomainError(c, err, "badge")
		return
	}
	respondNoContent(c)
}

// --- Work preference ---

type workPreferenceRequest struct {
	DesiredRole      string                    `json:"desired_role" validate:"max=255"`
	Industry         string                    `json:"industry" validate:"max=255"`
	RemotePreference entities.RemotePreference `json:"remote_preference" validate:"omitempty,oneof=remote hybrid onsite any"`
}

// GetWorkPreference handles GET /api/profile/work-preference?user_id=
func (pc *ProfileController) GetWorkPreference(c *gin.Context) {
	userID, ok := ownerOrStaff(c)
	if !ok {
		return
	}
	wp, err := pc.repo.GetWorkPreference(userID)
	if err != nil {
		respondDomainError(c, err, "work preference")
		return
	}
	c.JSON(http.StatusOK, wp)
}

// UpsertWorkPreference handles PUT /api/profile/work-preference. It answers
// 201 when the preference is created and 200 when it is updated.
func (pc *ProfileController) UpsertWorkPreference(c *gin.Context) {
	userID, ok := editTarget(c)
	if !ok {
		return
	}
	var req workPreferenceRequest
	if !bind(c, &req) {
		return
	}
	wp := &entities.WorkPreference{
		UserID:           userID,
		DesiredRole:      req.DesiredRole,
		Industry:         req.Industry,
		RemotePreference: req.RemotePreference,
	}
	created, err := pc.repo.UpsertWorkPreference(wp)
	if err != nil {
		respondDomainError(c, err, "work preference")
		return
	}
	if created {
		respondCreated(c, wp)
		return
	}
	c.JSON(http.StatusOK, wp)
}

// --- Additional info and links ---

type additionalInfoRequest struct {
	ResumeURL string `json:"resume_url" validate:"omitempty,url,max=500"`
	About     string `json:"about"`
}

// GetAdditionalInfo handles GET /api/profile/additional-info?user_id=
func (pc *ProfileController) GetAdditionalInfo(c *gin.Context) {
	userID, ok := ownerOrStaff(c)
	if !ok {
		return
	}
	ai, err := pc.repo.GetAdditionalInfo(userID)
	if err != nil {
		respondInternalError(c, err, "additional info")
		return
	}
	c.JSON(http.StatusOK, ai)
}

// UpdateAdditionalInfo handles PUT /api/profile/additional-info
func (pc *ProfileController) UpdateAdditionalInfo(c *gin.Context) {
	userID, ok := editTarget(c)
	if !ok {
		return
	}
	var req additionalInfoRequest
	if !bind(c, &req) {
		return
	}
	ai := &entities.AdditionalInfo{UserID: userID, ResumeURL: req.ResumeURL, About: req.About}
	if err := pc.repo.UpsertAdditionalInfo(ai); err != nil {
		respondDomainError(c, err, "additional info")
		return
	}
	c.JSON(http.StatusOK, ai)
}

type linkRequest struct {
	Platform string `json:"platform" validate:"required,max=100"`
	URL      string `json:"url" validate:"required,url,max=500"`
}

// ListLinks handles GET /api/profile/links?user_id=
func (pc *ProfileController) ListLinks(c *gin.Context) {
	userID, ok := ownerOrStaff(c)
	if !ok {
		return
	}
	list, err := pc.repo.ListLinks(userID)
	if err != nil {
		respondInternalError(c, err, "list links")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateLink handles POST /api/profile/links
func (pc *ProfileController) CreateLink(c *gin.Context) {
	var req linkRequest
	if !bind(c, &req) {
		return
	}
	l := &entities.AdditionalLink{UserID: GetUserID(c), Platform: strings.TrimSpace(req.Platform), URL: req.URL}
	if err := pc.repo.SaveLink(l); err != nil {
		respondDomainError(c, err, "link")
		return
	}
	respondCreated(c, l)
}

// UpdateLink handles PUT /api/profile/links/:id
func (pc *ProfileController) UpdateLink(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req linkRequest
	if !bind(c, &req) {
		return
	}
	l, err := pc.repo.GetLink(id)
	if err != nil {
		respondDomainError(c, err, "link")
		return
	}
	if !canEdit(c, l.UserID) {
		return
	}
	l.Platform = strings.TrimSpace(req.Platform)
	l.URL = req.URL
	if err := pc.repo.SaveLink(l); err != nil {
		respondDomainError(c, err, "link")
		return
	}
	c.JSON(http.StatusOK, l)
}

// DeleteLink handles DELETE /api/profile/links/:id
func (pc *ProfileController) DeleteLink(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	l, err := pc.repo.GetLink(id)
	if err != nil {
		respondDomainError(c, err, "link")
		return
	}
	if !canEdit(c, l.UserID) {
		return
	}
	if err := pc.repo.DeleteLink(id); err != nil {
		respondDomainError(c, err, "link")
		return
	}
	respondNoContent(c)
}

// Summary handles GET /api/profile/summary?user_id=
func (pc *ProfileController) Summary(c *gin.Context) {
	userID, ok := ownerOrStaff(c)
	if !ok {
		return
	}
	summary, err := pc.repo.Summary(userID)
	if err != nil {
		respondDomainError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, summary)
}
