// Package chats stores direct messages exchanged between students and staff
// inside a batch.
package chats

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/lms/internal/entities"
)

var ErrNotReceiver = errors.New("only the receiver can mark a message as read")

// Repository handles chat message persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Send(msg *entities.ChatMessage) error {
	return r.db.Create(msg).Error
}

// Conversation returns the messages of a batch the user sent or received,
// oldest first. With withUser set only the exchange with that user is returned.
func (r *Repository) Conversation(batchID, userID uint, withUser *uint) ([]entities.ChatMessage, error) {
	query := r.db.Where("batch_id = ?", batchID)
	if withUser != nil {
		query = query.Where(
			"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, *withUser, *withUser, userID,
		)
	} else {
		query = query.Where("sender_id = ? OR receiver_id = ?", userID, userID)
	}
	var list []entities.ChatMessage
	err := query.Order("timestamp, id").Find(&list).Error
	return list, err
}

// BatchMessages returns every message of a batch, oldest first.
func (r *Repository) BatchMessages(batchID uint) ([]entities.ChatMessage, error) {
	var list []entities.ChatMessage
	err := r.db.Where("batch_id = ?", batchID).Order("timestamp, id").Find(&list).Error
	return list, err
}

func (r *Repository) Get(id uint) (*entities.ChatMessage, error) {
	var msg entities.ChatMessage
	if err := r.db.First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkRead flags a message as read on behalf of its receiver.
func (r *Repository) MarkRead(id, receiverID uint) (*entities.ChatMessage, error) {
	msg, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if msg.ReceiverID != receiverID {
		return nil, ErrNotReceiver
	}
	if msg.IsRead {
		return msg, nil
	}
	if err := r.db.Model(msg).Update("is_read", true).Error; err != nil {
		return nil, err
	}
	msg.IsRead = true
	return msg, nil
}

// UnreadCount counts unread messages addressed to the user, optionally in one batch.
func (r *Repository) UnreadCount(userID uint, batchID *uint) (int64, error) {
	query := r.db.Model(&entities.ChatMessage{}).Where("receiver_id = ? AND is_read = ?", userID, false)
	if batchID != nil {
		query = query.Where("batch_id = ?", *batchID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
