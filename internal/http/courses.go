package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/audit"
	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/courses"
	"github.com/mrlokans/lms/internal/entities"
)

// CoursesController serves the course catalogue and course reviews.
type CoursesController struct {
	repo  *courses.Repository
	audit *audit.Service
}

func NewCoursesController(repo *courses.Repository, auditService *audit.Service) *CoursesController {
	return &CoursesController{repo: repo, audit: auditService}
}

type courseRequest struct {
	CategoryID           *uint               `json:"category_id"`
	AuthorID             *uint               `json:"author_id"`
	Title                string              `json:"title" validate:"required,max=255"`
	ShortDescription     string              `json:"short_description" validate:"max=500"`
	LongDescription      string              `json:"long_description"`
	HasCertificate       bool                `json:"has_certificate"`
	HasLifetimeAccess    bool                `json:"has_lifetime_access"`
	IsLive               bool                `json:"is_live"`
	Duration             string              `json:"duration" validate:"max=64"`
	OriginalPrice        *float64            `json:"original_price" validate:"omitempty,gte=0"`
	DiscountedPrice      *float64            `json:"discounted_price" validate:"omitempty,gte=0"`
	DiscountedPercentage *int                `json:"discounted_percentage" validate:"omitempty,gte=0,lte=100"`
	DiscountEndDate      *time.Time          `json:"discount_end_date"`
	IsTrending           bool                `json:"is_trending"`
	IsNew                bool                `json:"is_new"`
	SpecialTag           entities.SpecialTag `json:"special_tag" validate:"omitempty,oneof=top_author editors_choice best_seller none"`

	// Nil keeps the stored children on update; an empty list clears them.
	LearningPoints []textItem    `json:"learning_points" validate:"omitempty,dive"`
	Inclusions     []textItem    `json:"inclusions" validate:"omitempty,dive"`
	Sections       []sectionItem `json:"sections" validate:"omitempty,dive"`
}

type textItem struct {
	Text string `json:"text" validate:"required,max=500"`
}

type sectionItem struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
}

func (r *courseRequest) apply(course *entities.Course) {
	course.CategoryID = r.CategoryID
	course.AuthorID = r.AuthorID
	course.Title = strings.TrimSpace(r.Title)
	course.ShortDescription = r.ShortDescription
	course.LongDescription = r.LongDescription
	course.HasCertificate = r.HasCertificate
	course.HasLifetimeAccess = r.HasLifetimeAccess
	course.IsLive = r.IsLive
	course.Duration = r.Duration
	course.OriginalPrice = r.OriginalPrice
	course.DiscountedPrice = r.DiscountedPrice
	course.DiscountedPercentage = r.DiscountedPercentage
	course.DiscountEndDate = r.DiscountEndDate
	course.IsTrending = r.IsTrending
	course.IsNew = r.IsNew
	course.SpecialTag = r.SpecialTag
	if course.SpecialTag == "" {
		course.SpecialTag = entities.SpecialTagNone
	}

	course.LearningPoints = nil
	for _, lp := range r.LearningPoints {
		course.LearningPoints = append(course.LearningPoints, entities.LearningPoint{Text: lp.Text})
	}
	course.Inclusions = nil
	for _, in := range r.Inclusions {
		course.Inclusions = append(course.Inclusions, entities.CourseInclusion{Text: in.Text})
	}
	course.Sections = nil
	for _, s := range r.Sections {
		course.Sections = append(course.Sections, entities.CourseSection{Title: s.Title, Description: s.Description})
	}
}

func (r *courseRequest) hasChildren() bool {
	return r.LearningPoints != nil || r.Inclusions != nil || r.Sections != nil
}

// ListCourses handles GET /api/courses
// Query: category_id, is_trending, is_new, special_tag, search,
// include_archived (staff only), limit, offset.
func (cc *CoursesController) ListCourses(c *gin.Context) {
	categoryID, ok := optionalQueryID(c, "category_id")
	if !ok {
		return
	}
	limit, offset := pagination(c, 20, 100)
	includeArchived := optionalQueryBool(c, "include_archived")

	list, total, err := cc.repo.ListCourses(courses.CourseFilter{
		CategoryID:      categoryID,
		IsTrending:      optionalQueryBool(c, "is_trending"),
		IsNew:           optionalQueryBool(c, "is_new"),
		SpecialTag:      entities.SpecialTag(c.Query("special_tag")),
		Search:          strings.TrimSpace(c.Query("search")),
		IncludeArchived: includeArchived != nil && *includeArchived && auth.IsStaffOrAdmin(c),
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		respondInternalError(c, err, "list courses")
		return
	}
	respondPage(c, list, total, limit, offset)
}

// GetCourse handles GET /api/courses/:id
func (cc *CoursesController) GetCourse(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	course, err := cc.repo.GetCourse(id)
	if err != nil {
		respondDomainError(c, err, "course")
		return
	}
	if course.IsArchived && !auth.IsStaffOrAdmin(c) {
		respondNotFound(c, "course")
		return
	}
	c.JSON(http.StatusOK, course)
}

// CreateCourse handles POST /api/courses
func (cc *CoursesController) CreateCourse(c *gin.Context) {
	var req courseRequest
	if !bind(c, &req) {
		return
	}
	course := &entities.Course{}
	req.apply(course)
	creator := GetUserID(c)
	course.CreatedByID = &creator

	if err := cc.repo.CreateCourse(course); err != nil {
		respondDomainError(c, err, "course")
		return
	}
	respondCreated(c, course)
}

// UpdateCourse handles PUT /api/courses/:id
func (cc *CoursesController) UpdateCourse(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req courseRequest
	if !bind(c, &req) {
		return
	}
	course, err := cc.repo.GetCourse(id)
	if err != nil {
		respondDomainError(c, err, "course")
		return
	}
	req.apply(course)

	if err := cc.repo.UpdateCourse(course, req.hasChildren()); err != nil {
		respondDomainError(c, err, "course")
		return
	}
	updated, err := cc.repo.GetCourse(id)
	if err != nil {
		respondDomainError(c, err, "course")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteCourse handles DELETE /api/courses/:id (admin only)
func (cc *CoursesController) DeleteCourse(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	course, err := cc.repo.GetCourse(id)
	if err != nil {
		respondDomainError(c, err, "course")
		return
	}
	if err := cc.repo.DeleteCourse(id); err != nil {
		respondDomainError(c, err, "course")
		return
	}
	cc.audit.LogDelete(GetUserID(c), "course", id, course.Title)
	respondNoContent(c)
}

// ArchiveCourse handles POST /api/courses/:id/archive
func (cc *CoursesController) ArchiveCourse(c *gin.Context) {
	cc.setArchived(c, true)
}

// UnarchiveCourse handles POST /api/courses/:id/unarchive
func (cc *CoursesController) UnarchiveCourse(c *gin.Context) {
	cc.setArchived(c, false)
}

func (cc *CoursesController) setArchived(c *gin.Context, archived bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	course, err := cc.repo.SetArchived(id, archived)
	if err != nil {
		respondDomainError(c, err, "course")
		return
	}
	c.JSON(http.StatusOK, course)
}

// --- Reviews ---

type reviewRequest struct {
	CourseID uint   `json:"course_id" validate:"required"`
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment  string `json:"comment"`
}

type reviewUpdateRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment"`
}

// ListReviews handles GET /api/reviews?course_id=
func (cc *CoursesController) ListReviews(c *gin.Context) {
	courseID, ok := optionalQueryID(c, "course_id")
	if !ok {
		return
	}
	list, err := cc.repo.ListReviews(courseID)
	if err != nil {
		respondInternalError(c, err, "list reviews")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetReview handles GET /api/reviews/:id
func (cc *CoursesController) GetReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	review, err := cc.repo.GetReview(id)
	if err != nil {
		respondDomainError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, review)
}

// CreateReview handles POST /api/reviews. One review per user and course.
func (cc *CoursesController) CreateReview(c *gin.Context) {
	var req reviewRequest
	if !bind(c, &req) {
		return
	}
	review := &entities.Review{
		UserID:   GetUserID(c),
		CourseID: req.CourseID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	}
	if err := cc.repo.CreateReview(review); err != nil {
		respondDomainError(c, err, "course")
		return
	}
	respondCreated(c, review)
}

// UpdateReview handles PUT /api/reviews/:id (owner only)
func (cc *CoursesController) UpdateReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reviewUpdateRequest
	if !bind(c, &req) {
		return
	}
	review, err := cc.repo.UpdateReview(id, GetUserID(c), req.Rating, req.Comment)
	if err != nil {
		respondDomainError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, review)
}

// DeleteReview handles DELETE /api/reviews/:id (owner only)
func (cc *CoursesController) DeleteReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.repo.DeleteReview(id, GetUserID(c)); err != nil {
		respondDomainError(c, err, "review")
		return
	}
	respondNoContent(c)
}
