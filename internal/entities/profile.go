package entities

import "time"

type ContactInfo struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	GithubURL    string    `gorm:"size:500" json:"github_url"`
	LinkedinURL  string    `gorm:"size:500" json:"linkedin_url"`
	PortfolioURL string    `gorm:"size:500" json:"portfolio_url"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (ContactInfo) TableName() string {
	return "contact_infos"
}

type WorkExperience struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Company     string    `gorm:"size:255;not null" json:"company"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	StartYear   int       `gorm:"not null" json:"start_year"`
	EndYear     *int      `json:"end_year"`
	IsCurrent   bool      `json:"is_current"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (WorkExperience) TableName() string {
	return "work_experiences"
}

func (w *WorkExperience) Period() (int, *int, bool) {
	return w.StartYear, w.EndYear, w.IsCurrent
}

type Education struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	Institution  string    `gorm:"size:255;not null" json:"institution"`
	Degree       string    `gorm:"size:255" json:"degree"`
	FieldOfStudy string    `gorm:"size:255" json:"field_of_study"`
	StartYear    int       `gorm:"not null" json:"start_year"`
	EndYear      *int      `json:"end_year"`
	IsCurrent    bool      `json:"is_current"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Education) TableName() string {
	return "educations"
}

func (e *Education) Period() (int, *int, bool) {
	return e.StartYear, e.EndYear, e.IsCurrent
}

type Badge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	AwardedByID *uint     `json:"awarded_by_id"`
	AwardedAt   time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}

func (Badge) TableName() string {
	return "badges"
}

type RemotePreference string

const (
	RemotePreferenceRemote RemotePreference = "remote"
	RemotePreferenceHybrid RemotePreference = "hybrid"
	RemotePreferenceOnsite RemotePreference = "onsite"
	RemotePreferenceAny    RemotePreference = "any"
)

type WorkPreference struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"uniqueIndex;not null" json:"user_id"`
	DesiredRole      string           `gorm:"size:255" json:"desired_role"`
	Industry         string           `gorm:"size:255" json:"industry"`
	RemotePreference RemotePreference `gorm:"size:16;default:any" json:"remote_preference"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (WorkPreference) TableName() string {
	return "work_preferences"
}

type AdditionalInfo struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	ResumeURL string    `gorm:"size:500" json:"resume_url"`
	About     string    `gorm:"type:text" json:"about"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AdditionalInfo) TableName() string {
	return "additional_infos"
}

type AdditionalLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Platform  string    `gorm:"size:100;not null" json:"platform"`
	URL       string    `gorm:"size:500;not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func (AdditionalLink) TableName() string {
	return "additional_links"
}
