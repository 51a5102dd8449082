package models

import "time"

type Message struct {
	MessageID      string     `json:"message_id" gorm:"primaryKey;type:varchar(36)"`
	ConversationID string     `json:"conversation_id" gorm:"type:varchar(80);index"`
	SenderID       string     `json:"sender_id" gorm:"type:varchar(36);index"`
	ReceiverID     string     `json:"receiver_id" gorm:"type:varchar(36);index"`
	Content        string     `json:"content,omitempty"`
	Media          string     `json:"media,omitempty"`      // 媒体文件路径
	MediaType      string     `json:"media_type,omitempty"` // image, video...
	IsRead         bool       `json:"is_read" gorm:"default:false;index"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
