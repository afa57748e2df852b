// Package announcements stores platform, course and batch announcements.
package announcements

import (
	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

// Filter narrows List.
type Filter struct {
	BatchID  *uint
	CourseID *uint
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns announcements newest first.
func (r *Repository) List(f Filter) ([]entities.Announcement, error) {
	query := r.db.Order("created_at DESC, id DESC")
	if f.BatchID != nil {
		query = query.Where("batch_id = ?", *f.BatchID)
	}
	if f.CourseID != nil {
		query = query.Where("course_id = ?", *f.CourseID)
	}
	var list []entities.Announcement
	err := query.Find(&list).Error
	return list, err
}

func (r *Repository) Get(id uint) (*entities.Announcement, error) {
	var a entities.Announcement
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) Create(a *entities.Announcement) error {
	return r.db.Create(a).Error
}

func (r *Repository) Update(a *entities.Announcement) error {
	return r.db.Save(a).Error
}

func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Announcement{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
