package entities

import (
	"fmt"
	"math"
	"time"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `json:"is_active"`
	CourseCount int64     `gorm:"-" json:"course_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

type Author struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Bio          string    `gorm:"type:text" json:"bio"`
	Organization string    `gorm:"size:255" json:"organization"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Author) TableName() string {
	return "authors"
}

type SpecialTag string

const (
	SpecialTagNone          SpecialTag = "none"
	SpecialTagTopAuthor     SpecialTag = "top_author"
	SpecialTagEditorsChoice SpecialTag = "editors_choice"
	SpecialTagBestSeller    SpecialTag = "best_seller"
)

type Course struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	CategoryID           *uint      `gorm:"index" json:"category_id"`
	Category             *Category  `json:"category,omitempty"`
	AuthorID             *uint      `gorm:"index" json:"author_id"`
	Author               *Author    `json:"author,omitempty"`
	Title                string     `gorm:"size:255;not null" json:"title"`
	ShortDescription     string     `gorm:"size:500" json:"short_description"`
	LongDescription      string     `gorm:"type:text" json:"long_description"`
	AssignmentCount      int        `gorm:"default:0" json:"assignment_count"`
	HasCertificate       bool       `json:"has_certificate"`
	HasLifetimeAccess    bool       `json:"has_lifetime_access"`
	IsLive               bool       `json:"is_live"`
	Duration             string     `gorm:"size:64" json:"duration"`
	OriginalPrice        *float64   `json:"original_price"`
	DiscountedPrice      *float64   `json:"discounted_price"`
	DiscountedPercentage *int       `json:"discounted_percentage"`
	DiscountEndDate      *time.Time `json:"discount_end_date"`
	AverageRating        float64    `gorm:"default:0" json:"average_rating"`
	ReviewCount          int        `gorm:"default:0" json:"review_count"`
	IsArchived           bool       `gorm:"default:false;index" json:"is_archived"`
	IsTrending           bool       `json:"is_trending"`
	IsNew                bool       `json:"is_new"`
	SpecialTag           SpecialTag `gorm:"size:32;default:none" json:"special_tag"`
	CreatedByID          *uint      `json:"created_by_id"`

	LearningPoints []LearningPoint   `gorm:"constraint:OnDelete:CASCADE" json:"learning_points,omitempty"`
	Inclusions     []CourseInclusion `gorm:"constraint:OnDelete:CASCADE" json:"inclusions,omitempty"`
	Sections       []CourseSection   `gorm:"constraint:OnDelete:CASCADE" json:"sections,omitempty"`

	IsDiscountActive     bool   `gorm:"-" json:"is_discount_active"`
	DiscountDaysLeftText string `gorm:"-" json:"discount_days_left_text,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

// ApplyDiscount derives the discounted price from the original price and
// percentage when both are set.
func (c *Course) ApplyDiscount() {
	if c.OriginalPrice == nil || c.DiscountedPercentage == nil || *c.DiscountedPercentage == 0 {
		return
	}
	price := *c.OriginalPrice * (1 - float64(*c.DiscountedPercentage)/100)
	price = math.Round(price*100) / 100
	c.DiscountedPrice = &price
}

// DiscountActive reports whether the discount window is still open at now.
func (c *Course) DiscountActive(now time.Time) bool {
	return c.DiscountEndDate != nil && now.Before(*c.DiscountEndDate)
}

// DiscountDaysLeft renders the remaining discount window in calendar days.
func (c *Course) DiscountDaysLeft(now time.Time) string {
	if c.DiscountEndDate == nil {
		return ""
	}
	if !c.DiscountActive(now) {
		return "Offer Expired"
	}
	end := c.DiscountEndDate.In(now.Location())
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(endDay.Sub(today).Hours() / 24)
	switch {
	case days <= 0:
		return "Ends today"
	case days == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}

// Decorate fills the computed discount fields for serialization.
func (c *Course) Decorate(now time.Time) {
	c.IsDiscountActive = c.DiscountActive(now)
	c.DiscountDaysLeftText = c.DiscountDaysLeft(now)
}

type LearningPoint struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	CourseID uint   `gorm:"index;not null" json:"course_id"`
	Text     string `gorm:"size:500;not null" json:"text"`
}

func (LearningPoint) TableName() string {
	return "course_learning_points"
}

type CourseInclusion struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	CourseID uint   `gorm:"index;not null" json:"course_id"`
	Text     string `gorm:"size:500;not null" json:"text"`
}

func (CourseInclusion) TableName() string {
	return "course_inclusions"
}

type CourseSection struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CourseID    uint   `gorm:"index;not null" json:"course_id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
}

func (CourseSection) TableName() string {
	return "course_sections"
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_user_course;not null" json:"user_id"`
	User      *User     `json:"user,omitempty"`
	CourseID  uint      `gorm:"uniqueIndex:idx_review_user_course;index;not null" json:"course_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

type FAQ struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Question  string    `gorm:"size:500;not null" json:"question"`
	Answer    string    `gorm:"type:text" json:"answer"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (FAQ) TableName() string {
	return "faqs"
}

type Enrollment struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"user_id"`
	CourseID           uint      `gorm:"uniqueIndex:idx_enrollment_user_course;index;not null" json:"course_id"`
	Course             *Course   `json:"course,omitempty"`
	IsActive           bool      `json:"is_active"`
	ProgressPercent    int       `gorm:"default:0" json:"progress_percent"`
	LastWatchedVideoID *uint     `json:"last_watched_video_id"`
	EnrolledAt         time.Time `gorm:"autoCreateTime" json:"enrolled_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
