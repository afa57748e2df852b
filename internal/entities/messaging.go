package entities

import "time"

type ChatMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BatchID    uint      `gorm:"index;not null" json:"batch_id"`
	SenderID   uint      `gorm:"index;not null" json:"sender_id"`
	ReceiverID uint      `gorm:"index;not null" json:"receiver_id"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Timestamp  time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

type NotificationPreference struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	ReceiveEmail bool      `json:"receive_email"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (NotificationPreference) TableName() string {
	return "notification_preferences"
}

type Announcement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	SenderID  uint      `gorm:"index;not null" json:"sender_id"`
	BatchID   *uint     `gorm:"index" json:"batch_id"`
	CourseID  *uint     `gorm:"index" json:"course_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Announcement) TableName() string {
	return "announcements"
}
