package entities

import "time"

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleStaff   UserRole = "staff"
	UserRoleAdmin   UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleStudent, UserRoleStaff, UserRoleAdmin:
		return true
	}
	return false
}

// IsStaffOrAdmin reports whether r may manage content.
func (r UserRole) IsStaffOrAdmin() bool {
	return r == UserRoleStaff || r == UserRoleAdmin
}

type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Email           string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FullName        string     `gorm:"size:255" json:"full_name"`
	PhoneNumber     *string    `gorm:"uniqueIndex;size:32" json:"phone_number"`
	TimeZone        string     `gorm:"size:64" json:"time_zone"`
	Language        string     `gorm:"size:16;default:en" json:"language"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	ProfileImage    string     `gorm:"size:500" json:"profile_image"`
	Role            UserRole   `gorm:"size:20;default:student;index" json:"role"`
	IsEmailVerified bool       `gorm:"default:false" json:"is_email_verified"`
	IsActive        bool       `gorm:"default:false" json:"is_active"`

	PasswordHash     string     `gorm:"size:255" json:"-"`
	TokenHash        string     `gorm:"index;size:64" json:"-"`
	TokenCreatedAt   *time.Time `json:"-"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	StaffProfile *StaffProfile `gorm:"foreignKey:UserID" json:"staff_profile,omitempty"`

	CreatedAt time.Time `json:"date_joined"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// StaffProfile holds the fine-grained management flags of a staff member.
type StaffProfile struct {
	ID                              uint      `gorm:"primaryKey" json:"id"`
	UserID                          uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	HasCourseManagementAccess       bool      `json:"has_course_management_access"`
	HasBatchManagementAccess        bool      `json:"has_batch_management_access"`
	HasContentManagementAccess      bool      `json:"has_content_management_access"`
	HasAnnouncementManagementAccess bool      `json:"has_announcement_management_access"`
	CreatedAt                       time.Time `json:"created_at"`
	UpdatedAt                       time.Time `json:"updated_at"`
}

func (StaffProfile) TableName() string {
	return "staff_profiles"
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// NameVerification records a user's request to have a legal name confirmed.
type NameVerification struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	UserID      uint               `gorm:"uniqueIndex;not null" json:"user_id"`
	LegalName   string             `gorm:"size:255;not null" json:"legal_name"`
	Status      VerificationStatus `gorm:"size:20;default:pending" json:"status"`
	SubmittedAt time.Time          `gorm:"autoCreateTime" json:"submitted_at"`
	VerifiedAt  *time.Time         `json:"verified_at"`
}

func (NameVerification) TableName() string {
	return "name_verifications"
}

type TokenPurpose string

const (
	TokenPurposeVerifyEmail   TokenPurpose = "verify_email"
	TokenPurposePasswordReset TokenPurpose = "password_reset"
)

// UserToken is a single-use token. Only the SHA-256 hash is stored.
type UserToken struct {
	ID        uint         `gorm:"primaryKey"`
	UserID    uint         `gorm:"index;not null"`
	Purpose   TokenPurpose `gorm:"size:32;index"`
	TokenHash string       `gorm:"uniqueIndex;size:64"`
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (UserToken) TableName() string {
	return "user_tokens"
}
