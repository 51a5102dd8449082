package models

import "time"

// NotificationType 通知类型
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationMessage NotificationType = "message"
	NotificationStory   NotificationType = "story"
	NotificationMention NotificationType = "mention"
	NotificationPost    NotificationType = "post"
)

// RelatedKind 通知关联对象的类型
type RelatedKind string

const (
	RelatedKindPost    RelatedKind = "post"
	RelatedKindComment RelatedKind = "comment"
	RelatedKindStory   RelatedKind = "story"
	RelatedKindUser    RelatedKind = "user"
)

// RelatedRef 通知指向的对象，按类型显式区分，取代动态引用
type RelatedRef struct {
	Kind RelatedKind
	ID   string
}

func RelatedPost(id string) *RelatedRef    { return &RelatedRef{Kind: RelatedKindPost, ID: id} }
func RelatedComment(id string) *RelatedRef { return &RelatedRef{Kind: RelatedKindComment, ID: id} }
func RelatedStory(id string) *RelatedRef   { return &RelatedRef{Kind: RelatedKindStory, ID: id} }
func RelatedUser(id string) *RelatedRef    { return &RelatedRef{Kind: RelatedKindUser, ID: id} }

// Notification 通知记录
type Notification struct {
	NotificationID string           `json:"notification_id" gorm:"primaryKey;type:varchar(36)"`
	RecipientID    string           `json:"recipient_id" gorm:"type:varchar(36);index"`
	SenderID       string           `json:"sender_id" gorm:"type:varchar(36)"`
	Type           NotificationType `json:"type" gorm:"type:varchar(16);index"`
	Content        string           `json:"content"`
	RelatedID      string           `json:"related_id,omitempty" gorm:"type:varchar(36)"`
	RelatedType    RelatedKind      `json:"related_type,omitempty" gorm:"type:varchar(16)"`
	IsRead         bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt      time.Time        `json:"created_at"`
}
