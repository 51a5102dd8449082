package services

import (
	"errors"
	"regexp"
	"time"

	"social-sphere/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// NotificationService 通知的落库与尽力推送。
// Create 先持久化再按在线状态推送，两步的任何失败都只记日志，
// 绝不向触发方传播：点赞/评论等主操作的成败与通知管道无关。
type NotificationService struct {
	db       *gorm.DB
	emitter  Emitter
	presence *PresenceRegistry
}

func NewNotificationService(db *gorm.DB, emitter Emitter, presence *PresenceRegistry) *NotificationService {
	return &NotificationService{
		db:       db,
		emitter:  emitter,
		presence: presence,
	}
}

// Create 创建通知并尽力推送。recipientID == senderID 时不产生通知。
func (s *NotificationService) Create(recipientID, senderID string, notificationType models.NotificationType, content string, related *models.RelatedRef) {
	if recipientID == senderID {
		return
	}

	notification := models.Notification{
		NotificationID: uuid.New().String(),
		RecipientID:    recipientID,
		SenderID:       senderID,
		Type:           notificationType,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if related != nil {
		notification.RelatedID = related.ID
		notification.RelatedType = related.Kind
	}

	// 先落库，推送失败也不会丢记录
	if err := s.db.Create(&notification).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"recipient_id": recipientID,
			"type":         notificationType,
		}).Error("Failed to persist notification")
		return
	}

	s.push(&notification)
}

// push 接收方在线就定向推送，不在线直接放弃
func (s *NotificationService) push(notification *models.Notification) {
	connID, ok := s.presence.Lookup(notification.RecipientID)
	if !ok {
		return
	}
	s.emitter.EmitToConnection(connID, EventReceiveNotification, notification)
}

// NotifyLike 点赞通知
func (s *NotificationService) NotifyLike(postOwnerID, likerID, postID string) {
	s.Create(postOwnerID, likerID, models.NotificationLike, "liked your post", models.RelatedPost(postID))
}

// NotifyComment 评论通知，并解析评论文本中的 @提及
func (s *NotificationService) NotifyComment(postOwnerID, authorID, commentID, text string) {
	s.Create(postOwnerID, authorID, models.NotificationComment, "commented on your post: "+truncate(text, 80), models.RelatedComment(commentID))
	s.NotifyMentions(authorID, text, models.RelatedComment(commentID))
}

// NotifyFollow 关注通知
func (s *NotificationService) NotifyFollow(targetID, followerID string) {
	s.Create(targetID, followerID, models.NotificationFollow, "started following you", models.RelatedUser(followerID))
}

// NotifyMessage 新私信通知
func (s *NotificationService) NotifyMessage(recipientID, senderID, preview string) {
	s.Create(recipientID, senderID, models.NotificationMessage, "sent you a message: "+truncate(preview, 80), models.RelatedUser(senderID))
}

// NotifyStory 新故事通知
func (s *NotificationService) NotifyStory(recipientID, authorID, storyID string) {
	s.Create(recipientID, authorID, models.NotificationStory, "added a new story", models.RelatedStory(storyID))
}

// NotifyPost 新帖子通知，并解析配文中的 @提及
func (s *NotificationService) NotifyPost(recipientID, authorID, postID, caption string) {
	s.Create(recipientID, authorID, models.NotificationPost, "published a new post", models.RelatedPost(postID))
	s.NotifyMentions(authorID, caption, models.RelatedPost(postID))
}

// NotifyMentions 扫描文本中的 @username，按用户名精确匹配现有用户，
// 每个命中的用户（作者本人除外）各产生一条 mention 通知。
// 这些通知独立于同一动作已产生的 comment/post 通知。
func (s *NotificationService) NotifyMentions(authorID, text string, related *models.RelatedRef) {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return
	}

	seen := make(map[string]bool, len(matches))
	for _, match := range matches {
		username := match[1]
		if seen[username] {
			continue
		}
		seen[username] = true

		var user models.User
		if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
			continue // 未注册的 @token 不算提及
		}
		s.Create(user.ID, authorID, models.NotificationMention, "mentioned you", related)
	}
}

// List 按接收方列出通知，可按已读状态过滤，limit/skip 分页
func (s *NotificationService) List(recipientID string, isRead *bool, limit, skip int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}

	query := s.db.Where("recipient_id = ?", recipientID)
	if isRead != nil {
		query = query.Where("is_read = ?", *isRead)
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC").Limit(limit).Offset(skip).Find(&notifications).Error
	return notifications, err
}

// UnreadCount 未读通知数
func (s *NotificationService) UnreadCount(recipientID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkRead 标记单条通知已读，只有接收方可以操作
func (s *NotificationService) MarkRead(recipientID, notificationID string) error {
	notification, err := s.ownedNotification(recipientID, notificationID)
	if err != nil {
		return err
	}
	return s.db.Model(notification).Update("is_read", true).Error
}

// MarkAllRead 标记接收方的所有通知已读
func (s *NotificationService) MarkAllRead(recipientID string) error {
	return s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}

// Delete 删除单条通知，只有接收方可以操作
func (s *NotificationService) Delete(recipientID, notificationID string) error {
	notification, err := s.ownedNotification(recipientID, notificationID)
	if err != nil {
		return err
	}
	return s.db.Delete(notification).Error
}

// ClearAll 清空接收方的所有通知
func (s *NotificationService) ClearAll(recipientID string) error {
	return s.db.Where("recipient_id = ?", recipientID).Delete(&models.Notification{}).Error
}

func (s *NotificationService) ownedNotification(recipientID, notificationID string) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.Where("notification_id = ?", notificationID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	if notification.RecipientID != recipientID {
		return nil, ErrNotRecipient
	}
	return &notification, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
