// Package profiles provides database operations for the learner profile:
// contact details, work history, education, badges, preferences and links,
// plus the profile completion summary.
//
// # Usage
//
//	repo := profiles.NewRepository(db)
//	summary, err := repo.Summary(userID)
package profiles

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

// PeriodError reports an invalid start/end/current combination.
type PeriodError struct {
	Message string
}

func (e *PeriodError) Error() string { return e.Message }

// ErrInvalidPeriod matches every *PeriodError with errors.Is.
var ErrInvalidPeriod = errors.New("invalid period")

func (e *PeriodError) Is(target error) bool { return target == ErrInvalidPeriod }

// ValidatePeriod checks the year range of a history entry. kind names the
// entry in messages, e.g. "work experience".
func ValidatePeriod(kind string, start int, end *int, current bool) error {
	switch {
	case current && end != nil:
		return &PeriodError{fmt.Sprintf("End year must be empty if %s is marked as current.", kind)}
	case !current && end == nil:
		return &PeriodError{fmt.Sprintf("End year is required if %s is not current.", kind)}
	case end != nil && *end < start:
		return &PeriodError{"End year cannot be before start year."}
	}
	return nil
}

type periodic interface {
	Period() (start int, end *int, current bool)
}

func checkPeriod(kind string, p periodic) error {
	start, end, current := p.Period()
	return ValidatePeriod(kind, start, end, current)
}

// Summary is the basic profile with completion score and finished courses.
type Summary struct {
	ID                uint     `json:"id"`
	Email             string   `json:"email"`
	FullName          string   `json:"full_name"`
	PhoneNumber       *string  `json:"phone_number"`
	ProfileImage      string   `json:"profile_image"`
	ProfileCompletion int      `json:"profile_completion"`
	Courses           []string `json:"courses"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Contact info

// GetContactInfo returns the user's contact info, or an empty record when
// none has been saved.
func (r *Repository) GetContactInfo(userID uint) (*entities.ContactInfo, error) {
	var ci entities.ContactInfo
	err := r.db.Where("user_id = ?", userID).First(&ci).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entities.ContactInfo{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

func (r *Repository) UpsertContactInfo(ci *entities.ContactInfo) error {
	existing, err := r.GetContactInfo(ci.UserID)
	if err != nil {
		return err
	}
	ci.ID = existing.ID
	return r.db.Save(ci).Error
}

// Work experience

func (r *Repository) ListWorkExperience(userID uint) ([]entities.WorkExperience, error) {
	var list []entities.WorkExperience
	err := r.db.Where("user_id = ?", userID).Order("is_current DESC, start_year DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *Repository) GetWorkExperience(id uint) (*entities.WorkExperience, error) {
	var w entities.WorkExperience
	if err := r.db.First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// SaveWorkExperience validates the period and that the user has at most one
// current position, then creates or updates the entry.
func (r *Repository) SaveWorkExperience(w *entities.WorkExperience) error {
	if err := checkPeriod("work experience", w); err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if w.IsCurrent {
			if err := ensureSingleCurrent(tx, &entities.WorkExperience{}, w.UserID, w.ID, "work experience"); err != nil {
				return err
			}
		}
		return tx.Save(w).Error
	})
}

func (r *Repository) DeleteWorkExperience(id uint) error {
	return deleteByID(r.db, &entities.WorkExperience{}, id)
}

// Education

func (r *Repository) ListEducation(userID uint) ([]entities.Education, error) {
	var list []entities.Education
	err := r.db.Where("user_id = ?", userID).Order("is_current DESC, start_year DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *Repository) GetEducation(id uint) (*entities.Education, error) {
	var e entities.Education
	if err := r.db.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) SaveEducation(e *entities.Education) error {
	if err := checkPeriod("education", e); err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if e.IsCurrent {
			if err := ensureSingleCurrent(tx, &entities.Education{}, e.UserID, e.ID, "education"); err != nil {
				return err
			}
		}
		return tx.Save(e).Error
	})
}

func (r *Repository) DeleteEducation(id uint) error {
	return deleteByID(r.db, &entities.Education{}, id)
}

func ensureSingleCurrent(tx *gorm.DB, model any, userID, selfID uint, kind string) error {
	var count int64
	err := tx.Model(model).
		Where("user_id = ? AND is_current = ? AND id <> ?", userID, true, selfID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return &PeriodError{fmt.Sprintf("User already has a current %s.", kind)}
	}
	return nil
}

// Badges

func (r *Repository) ListBadges(userID uint) ([]entities.Badge, error) {
	var list []entities.Badge
	err := r.db.Where("user_id = ?", userID).Order("awarded_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *Repository) AwardBadge(b *entities.Badge) error {
	if err := r.db.Select("id").First(&entities.User{}, b.UserID).Error; err != nil {
		return err
	}
	return r.db.Create(b).Error
}

func (r *Repository) DeleteBadge(id uint) error {
	return deleteByID(r.db, &entities.Badge{}, id)
}

// Work preference

func (r *Repository) GetWorkPreference(userID uint) (*entities.WorkPreference, error) {
	var wp entities.WorkPreference
	if err := r.db.Where("user_id = ?", userID).First(&wp).Error; err != nil {
		return nil, err
	}
	return &wp, nil
}

// UpsertWorkPreference stores the preference and reports whether it was created.
func (r *Repository) UpsertWorkPreference(wp *entities.WorkPreference) (bool, error) {
	if wp.RemotePreference == "" {
		wp.RemotePreference = entities.RemotePreferenceAny
	}
	existing, err := r.GetWorkPreference(wp.UserID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return true, r.db.Create(wp).Error
	case err != nil:
		return false, err
	}
	wp.ID = existing.ID
	return false, r.db.Save(wp).Error
}

// Additional info

func (r *Repository) GetAdditionalInfo(userID uint) (*entities.AdditionalInfo, error) {
	var ai entities.AdditionalInfo
	err := r.db.Where("user_id = ?", userID).First(&ai).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entities.AdditionalInfo{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ai, nil
}

func (r *Repository) UpsertAdditionalInfo(ai *entities.AdditionalInfo) error {
	existing, err := r.GetAdditionalInfo(ai.UserID)
	if err != nil {
		return err
	}
	ai.ID = existing.ID
	return r.db.Save(ai).Error
}

// Additional links

func (r *Repository) ListLinks(userID uint) ([]entities.AdditionalLink, error) {
	var list []entities.AdditionalLink
	err := r.db.Where("user_id = ?", userID).Order("id").Find(&list).Error
	return list, err
}

func (r *Repository) GetLink(id uint) (*entities.AdditionalLink, error) {
	var l entities.AdditionalLink
	if err := r.db.First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) SaveLink(l *entities.AdditionalLink) error {
	return r.db.Save(l).Error
}

func (r *Repository) DeleteLink(id uint) error {
	return deleteByID(r.db, &entities.AdditionalLink{}, id)
}

// Summary

// Summary computes the profile completion score:
//
//	40  full name, phone, image, time zone, language and birth date all set
//	10  github or linkedin url
//	15  any work experience
//	15  any education
//	 5  any enrollment
//	 5  any badge
//	 5  desired role or industry
//	 5  resume url or any additional link
func (r *Repository) Summary(userID uint) (*Summary, error) {
	var user entities.User
	if err := r.db.First(&user, userID).Error; err != nil {
		return nil, err
	}

	score := 0
	if user.FullName != "" && user.PhoneNumber != nil && *user.PhoneNumber != "" && user.ProfileImage != "" &&
		user.TimeZone != "" && user.Language != "" && user.DateOfBirth != nil {
		score += 40
	}

	exists := func(model any, where string, args ...any) (bool, error) {
		var count int64
		err := r.db.Model(model).Where(where, args...).Count(&count).Error
		return count > 0, err
	}
	checks := []struct {
		points int
		model  any
		where  string
	}{
		{10, &entities.ContactInfo{}, "user_id = ? AND (github_url <> '' OR linkedin_url <> '')"},
		{15, &entities.WorkExperience{}, "user_id = ?"},
		{15, &entities.Education{}, "user_id = ?"},
		{5, &entities.Enrollment{}, "user_id = ?"},
		{5, &entities.Badge{}, "user_id = ?"},
		{5, &entities.WorkPreference{}, "user_id = ? AND (desired_role <> '' OR industry <> '')"},
	}
	for _, c := range checks {
		ok, err := exists(c.model, c.where, userID)
		if err != nil {
			return nil, err
		}
		if ok {
			score += c.points
		}
	}

	resume, err := exists(&entities.AdditionalInfo{}, "user_id = ? AND resume_url <> ''", userID)
	if err != nil {
		return nil, err
	}
	links, err := exists(&entities.AdditionalLink{}, "user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	if resume || links {
		score += 5
	}

	var titles []string
	err = r.db.Model(&entities.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.user_id = ? AND enrollments.is_active = ? AND enrollments.progress_percent = ?", userID, true, 100).
		Order("courses.title").
		Pluck("courses.title", &titles).Error
	if err != nil {
		return nil, err
	}
	if titles == nil {
		titles = []string{}
	}

	return &Summary{
		ID:                user.ID,
		Email:             user.Email,
		FullName:          user.FullName,
		PhoneNumber:       user.PhoneNumber,
		ProfileImage:      user.ProfileImage,
		ProfileCompletion: score,
		Courses:           titles,
	}, nil
}

func deleteByID(db *gorm.DB, model any, id uint) error {
	result := db.Delete(model, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
