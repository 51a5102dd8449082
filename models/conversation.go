package models

import "time"

// Conversation 私聊会话，participant_a 和 participant_b 按字典序排列，
// 排序后的 "<a>_<b>" 作为主键，保证同一对用户只有一个会话
type Conversation struct {
	ConversationID string     `gorm:"primaryKey;type:varchar(80)" json:"conversation_id"`
	ParticipantA   string     `gorm:"type:varchar(36);index" json:"participant_a"`
	ParticipantB   string     `gorm:"type:varchar(36);index" json:"participant_b"`
	LastMessageID  string     `gorm:"type:varchar(36)" json:"last_message_id"`
	LastMessageAt  *time.Time `json:"last_message_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	// 关联用户A和用户B
	ParticipantAUser User `gorm:"foreignKey:ParticipantA;references:ID" json:"-"`
	ParticipantBUser User `gorm:"foreignKey:ParticipantB;references:ID" json:"-"`
}

// ConversationSummary 会话列表项，未读数在查询时实时计算
type ConversationSummary struct {
	ConversationID string              `json:"conversation_id"`
	Participant    ParticipantInfo     `json:"participant"`
	LastMessage    string              `json:"last_message"`
	LastMessageAt  *time.Time          `json:"last_message_at"`
	UnreadCount    int64               `json:"unread_count"`
}

// ParticipantInfo 会话对方的用户信息
type ParticipantInfo struct {
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	AvatarURL string     `json:"avatar"`
	LastLogin *time.Time `json:"last_login"`
}
