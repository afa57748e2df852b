// Package notifications provides database operations for in-app
// notifications and per-user notification preferences.
//
// # Usage
//
//	repo := notifications.NewRepository(db)
//	created, err := repo.CreateForUsers([]uint{1, 2, 3}, "Batch starts tomorrow")
//	purged, err := repo.DeleteReadBefore(time.Now().AddDate(0, 0, -90))
package notifications

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

var ErrEmptyMessage = errors.New("empty notification message")

const insertBatchSize = 200

// Repository handles notification persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns a user's notifications newest first.
func (r *Repository) List(userID uint, unreadOnly bool, limit, offset int) ([]entities.Notification, int64, error) {
	query := r.db.Model(&entities.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 50
	}
	var list []entities.Notification
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// MarkRead marks one of the user's notifications as read. Notifications of
// other users are reported as not found.
func (r *Repository) MarkRead(id, userID uint) (*entities.Notification, error) {
	var n entities.Notification
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return nil, err
	}
	if !n.IsRead {
		if err := r.db.Model(&n).Update("is_read", true).Error; err != nil {
			return nil, err
		}
		n.IsRead = true
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of the user as read.
func (r *Repository) MarkAllRead(userID uint) (int64, error) {
	result := r.db.Model(&entities.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *Repository) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// CreateForUsers stores the same message for every user.
func (r *Repository) CreateForUsers(userIDs []uint, message string) (int, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return 0, ErrEmptyMessage
	}
	if len(userIDs) == 0 {
		return 0, nil
	}
	rows := make([]entities.Notification, len(userIDs))
	for i, id := range userIDs {
		rows[i] = entities.Notification{UserID: id, Message: message}
	}
	if err := r.db.CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}

// DeleteReadBefore purges read notifications created before cutoff.
func (r *Repository) DeleteReadBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("is_read = ? AND created_at < ?", true, cutoff).Delete(&entities.Notification{})
	return result.RowsAffected, result.Error
}

// GetPreference returns the user's preference, creating the default
// (receive_email on) when none exists.
func (r *Repository) GetPreference(userID uint) (*entities.NotificationPreference, error) {
	var pref entities.NotificationPreference
	err := r.db.Where("user_id = ?", userID).First(&pref).Error
	if err == nil {
		return &pref, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	pref = entities.NotificationPreference{UserID: userID, ReceiveEmail: true}
	if err := r.db.Create(&pref).Error; err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *Repository) UpdatePreference(userID uint, receiveEmail bool) (*entities.NotificationPreference, error) {
	pref, err := r.GetPreference(userID)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(pref).Update("receive_email", receiveEmail).Error; err != nil {
		return nil, err
	}
	pref.ReceiveEmail = receiveEmail
	return pref, nil
}

// EmailRecipients returns the active users among userIDs who accept email.
// Users without a stored preference accept it.
func (r *Repository) EmailRecipients(userIDs []uint) ([]entities.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var users []entities.User
	err := r.db.Model(&entities.User{}).
		Select("users.*").
		Joins("LEFT JOIN notification_preferences np ON np.user_id = users.id").
		Where("users.id IN ? AND users.is_active = ?", userIDs, true).
		Where("np.id IS NULL OR np.receive_email = ?", true).
		Order("users.id").
		Find(&users).Error
	return users, err
}
