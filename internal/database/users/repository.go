// Package users provides database operations for accounts, staff access flags
// and name verification.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByEmail("student@example.com")
package users

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

var ErrInvalidStatus = errors.New("status must be approved or rejected")

// ListFilter narrows ListUsers.
type ListFilter struct {
	Role   entities.UserRole
	Search string
	Limit  int
	Offset int
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetUserByID retrieves a user by ID with the staff profile preloaded.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("StaffProfile").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (r *Repository) GetUserByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns a page of users and the total matching count.
func (r *Repository) ListUsers(f ListFilter) ([]entities.User, int64, error) {
	query := r.db.Model(&entities.User{})
	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	var users []entities.User
	err := query.Order("id").Limit(f.Limit).Offset(f.Offset).Find(&users).Error
	return users, total, err
}

// ListActiveUserIDs returns the ids of all active users, optionally restricted to a role.
func (r *Repository) ListActiveUserIDs(role entities.UserRole) ([]uint, error) {
	var ids []uint
	query := r.db.Model(&entities.User{}).Where("is_active = ?", true)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	err := query.Order("id").Pluck("id", &ids).Error
	return ids, err
}

// UpdateUser applies a partial update to a user.
func (r *Repository) UpdateUser(id uint, updates map[string]any) (*entities.User, error) {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetUserByID(id); err != nil {
			return nil, err
		}
	}
	return r.GetUserByID(id)
}

// SetRole changes a user's role.
func (r *Repository) SetRole(id uint, role entities.UserRole) (*entities.User, error) {
	return r.UpdateUser(id, map[string]any{"role": role})
}

// SetActive activates or deactivates an account.
func (r *Repository) SetActive(id uint, active bool) (*entities.User, error) {
	return r.UpdateUser(id, map[string]any{"is_active": active})
}

// GetStaffProfile returns the staff profile of a user.
func (r *Repository) GetStaffProfile(userID uint) (*entities.StaffProfile, error) {
	var profile entities.StaffProfile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertStaffProfile creates or replaces the access flags of a staff member.
func (r *Repository) UpsertStaffProfile(profile *entities.StaffProfile) error {
	existing, err := r.GetStaffProfile(profile.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(profile).Error
	}
	if err != nil {
		return err
	}
	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt
	return r.db.Save(profile).Error
}

// SubmitNameVerification records (or resubmits) a legal name for review.
func (r *Repository) SubmitNameVerification(userID uint, legalName string) (*entities.NameVerification, error) {
	var nv entities.NameVerification
	err := r.db.Where("user_id = ?", userID).First(&nv).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		nv = entities.NameVerification{UserID: userID, LegalName: legalName, Status: entities.VerificationPending}
		if err := r.db.Create(&nv).Error; err != nil {
			return nil, err
		}
		return &nv, nil
	case err != nil:
		return nil, err
	}

	nv.LegalName = legalName
	nv.Status = entities.VerificationPending
	nv.SubmittedAt = time.Now()
	nv.VerifiedAt = nil
	if err := r.db.Save(&nv).Error; err != nil {
		return nil, err
	}
	return &nv, nil
}

// GetNameVerification returns a verification request by ID.
func (r *Repository) GetNameVerification(id uint) (*entities.NameVerification, error) {
	var nv entities.NameVerification
	if err := r.db.First(&nv, id).Error; err != nil {
		return nil, err
	}
	return &nv, nil
}

// GetNameVerificationForUser returns the verification request of a user.
func (r *Repository) GetNameVerificationForUser(userID uint) (*entities.NameVerification, error) {
	var nv entities.NameVerification
	if err := r.db.Where("user_id = ?", userID).First(&nv).Error; err != nil {
		return nil, err
	}
	return &nv, nil
}

// ListNameVerifications lists requests, optionally by status.
func (r *Repository) ListNameVerifications(status entities.VerificationStatus) ([]entities.NameVerification, error) {
	var list []entities.NameVerification
	query := r.db.Order("submitted_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&list).Error
	return list, err
}

// ReviewNameVerification approves or rejects a pending request.
func (r *Repository) ReviewNameVerification(id uint, status entities.VerificationStatus) (*entities.NameVerification, error) {
	if status != entities.VerificationApproved && status != entities.VerificationRejected {
		return nil, ErrInvalidStatus
	}
	nv, err := r.GetNameVerification(id)
	if err != nil {
		return nil, err
	}
	nv.Status = status
	nv.VerifiedAt = nil
	if status == entities.VerificationApproved {
		now := time.Now()
		nv.VerifiedAt = &now
	}
	if err := r.db.Save(nv).Error; err != nil {
		return nil, err
	}
	return nv, nil
}
