package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lms/internal/auth"
	"github.com/mrlokans/lms/internal/database/courses"
	"github.com/mrlokans/lms/internal/entities"
)

// CatalogController serves categories, authors and FAQs. Reads of
// categories and FAQs are public; writes are limited to staff and admins by
// the router.
type CatalogController struct {
	repo *courses.Repository
}

func NewCatalogController(repo *courses.Repository) *CatalogController {
	return &CatalogController{repo: repo}
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// ListCategories handles GET /api/categories. Staff also see inactive ones.
func (cc *CatalogController) ListCategories(c *gin.Context) {
	list, err := cc.repo.ListCategories(!auth.IsStaffOrAdmin(c))
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetCategory handles GET /api/categories/:id
func (cc *CatalogController) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, err := cc.repo.GetCategory(id)
	if err != nil {
		respondDomainError(c, err, "category")
		return
	}
	if !category.IsActive && !auth.IsStaffOrAdmin(c) {
		respondNotFound(c, "category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory handles POST /api/categories
func (cc *CatalogController) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bind(c, &req) {
		return
	}
	category := &entities.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := cc.repo.CreateCategory(category); err != nil {
		respondDomainError(c, err, "category")
		return
	}
	respondCreated(c, category)
}

// UpdateCategory handles PUT /api/categories/:id
func (cc *CatalogController) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if !bind(c, &req) {
		return
	}
	category, err := cc.repo.GetCategory(id)
	if err != nil {
		respondDomainError(c, err, "category")
		return
	}
	category.Name = strings.TrimSpace(req.Name)
	category.Description = req.Description
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := cc.repo.UpdateCategory(category); err != nil {
		respondDomainError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/categories/:id
func (cc *CatalogController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.repo.DeleteCategory(id); err != nil {
		respondDomainError(c, err, "category")
		return
	}
	respondNoContent(c)
}

type authorRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Bio          string `json:"bio"`
	Organization string `json:"organization" validate:"max=255"`
}

// ListAuthors handles GET /api/authors
func (cc *CatalogController) ListAuthors(c *gin.Context) {
	list, err := cc.repo.ListAuthors()
	if err != nil {
		respondInternalError(c, err, "list authors")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetAuthor handles GET /api/authors/:id
func (cc *CatalogController) GetAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	author, err := cc.repo.GetAuthor(id)
	if err != nil {
		respondDomainError(c, err, "author")
		return
	}
	c.JSON(http.StatusOK, author)
}

// CreateAuthor handles POST /api/authors
func (cc *CatalogController) CreateAuthor(c *gin.Context) {
	var req authorRequest
	if !bind(c, &req) {
		return
	}
	author := &entities.Author{Name: strings.TrimSpace(req.Name), Bio: req.Bio, Organization: req.Organization}
	if err := cc.repo.CreateAuthor(author); err != nil {
		respondDomainError(c, err, "author")
		return
	}
	respondCreated(c, author)
}

// UpdateAuthor handles PUT /api/authors/:id
func (cc *CatalogController) UpdateAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req authorRequest
	if !bind(c, &req) {
		return
	}
	author, err := cc.repo.GetAuthor(id)
	if err != nil {
		respondDomainError(c, err, "author")
		return
	}
	author.Name = strings.TrimSpace(req.Name)
	author.Bio = req.Bio
	author.Organization = req.Organization
	if err := cc.repo.UpdateAuthor(author); err != nil {
		respondDomainError(c, err, "author")
		return
	}
	c.JSON(http.StatusOK, author)
}

// DeleteAuthor handles DELETE /api/authors/:id
func (cc *CatalogController) DeleteAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.repo.DeleteAuthor(id); err != nil {
		respondDomainError(c, err, "author")
		return
	}
	respondNoContent(c)
}

type faqRequest struct {
	Question string `json:"question" validate:"required,max=500"`
	Answer   string `json:"answer" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

// ListFAQs handles GET /api/faqs. Anonymous callers and students get the
// active entries only.
func (cc *CatalogController) ListFAQs(c *gin.Context) {
	list, err := cc.repo.ListFAQs(!auth.IsStaffOrAdmin(c))
	if err != nil {
		respondInternalError(c, err, "list faqs")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateFAQ handles POST /api/faqs
func (cc *CatalogController) CreateFAQ(c *gin.Context) {
	var req faqRequest
	if !bind(c, &req) {
		return
	}
	faq := &entities.FAQ{Question: req.Question, Answer: req.Answer, IsActive: req.IsActive == nil || *req.IsActive}
	if err := cc.repo.CreateFAQ(faq); err != nil {
		respondDomainError(c, err, "faq")
		return
	}
	respondCreated(c, faq)
}

// UpdateFAQ handles PUT /api/faqs/:id
func (cc *CatalogController) UpdateFAQ(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req faqRequest
	if !bind(c, &req) {
		return
	}
	faq, err := cc.repo.GetFAQ(id)
	if err != nil {
		respondDomainError(c, err, "faq")
		return
	}
	faq.Question = req.Question
	faq.Answer = req.Answer
	if req.IsActive != nil {
		faq.IsActive = *req.IsActive
	}
	if err := cc.repo.UpdateFAQ(faq); err != nil {
		respondDomainError(c, err, "faq")
		return
	}
	c.JSON(http.StatusOK, faq)
}

// DeleteFAQ handles DELETE /api/faqs/:id
func (cc *CatalogController) DeleteFAQ(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.repo.DeleteFAQ(id); err != nil {
		respondDomainError(c, err, "faq")
		return
	}
	respondNoContent(c)
}
