package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"social-sphere/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MessageService 私聊消息与会话管理
type MessageService struct {
	db            *gorm.DB
	emitter       Emitter
	presence      *PresenceRegistry
	notifications *NotificationService
}

func NewMessageService(db *gorm.DB, emitter Emitter, presence *PresenceRegistry, notifications *NotificationService) *MessageService {
	return &MessageService{
		db:            db,
		emitter:       emitter,
		presence:      presence,
		notifications: notifications,
	}
}

// ConversationKey 生成会话主键，两个用户ID排序后拼接，
// 保证同一对用户无论谁先发起都落在同一个会话上
func ConversationKey(userID1, userID2 string) string {
	ids := []string{userID1, userID2}
	sort.Strings(ids)
	return fmt.Sprintf("%s_%s", ids[0], ids[1])
}

// SendMessage 发送私聊消息：校验接收方、找到或创建会话、落库、
// 定向推送给双方在线连接，最后尽力创建一条 message 通知
func (s *MessageService) SendMessage(senderID, receiverID, content, media, mediaType string) (*models.Message, error) {
	if content == "" && media == "" {
		return nil, ErrEmptyMessage
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}

	var receiver models.User
	if err := s.db.Where("id = ?", receiverID).First(&receiver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, err
	}

	conversation, err := s.getOrCreateConversation(senderID, receiverID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	message := models.Message{
		MessageID:      uuid.New().String(),
		ConversationID: conversation.ConversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		Media:          media,
		MediaType:      mediaType,
		CreatedAt:      now,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, err
	}

	// 更新会话的最后一条消息
	if err := s.db.Model(&models.Conversation{}).
		Where("conversation_id = ?", conversation.ConversationID).
		Updates(map[string]interface{}{
			"last_message_id": message.MessageID,
			"last_message_at": now,
		}).Error; err != nil {
		logrus.WithError(err).Warn("Failed to update last message on conversation")
	}

	// 只推送给发送方和接收方的在线连接，不广播
	payload := ReceiveMessagePayload{
		ConversationID: conversation.ConversationID,
		Message:        message,
	}
	for _, userID := range []string{senderID, receiverID} {
		if connID, ok := s.presence.Lookup(userID); ok {
			s.emitter.EmitToConnection(connID, EventReceiveMessage, payload)
		}
	}

	s.notifications.NotifyMessage(receiverID, senderID, content)

	return &message, nil
}

// getOrCreateConversation 按规范化的会话键查找或创建会话。
// 主键即唯一约束：并发的首次互发各自创建时，输掉的一方会撞主键冲突，
// 此时重新查询并复用赢家创建的会话。
func (s *MessageService) getOrCreateConversation(userID1, userID2 string) (*models.Conversation, error) {
	key := ConversationKey(userID1, userID2)

	var conversation models.Conversation
	err := s.db.Where("conversation_id = ?", key).First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ids := []string{userID1, userID2}
	sort.Strings(ids)
	conversation = models.Conversation{
		ConversationID: key,
		ParticipantA:   ids[0],
		ParticipantB:   ids[1],
	}
	if createErr := s.db.Create(&conversation).Error; createErr != nil {
		var existing models.Conversation
		if fetchErr := s.db.Where("conversation_id = ?", key).First(&existing).Error; fetchErr == nil {
			return &existing, nil
		}
		return nil, createErr
	}
	return &conversation, nil
}

// GetMessages 返回两人之间的完整消息记录（按时间升序）。
// 副作用：把对方发给自己的未读消息全部标记为已读（read-on-fetch）。
func (s *MessageService) GetMessages(selfID, otherID string) ([]models.Message, error) {
	key := ConversationKey(selfID, otherID)

	now := time.Now()
	if err := s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", key, selfID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		return nil, err
	}

	var messages []models.Message
	if err := s.db.
		Where("conversation_id = ?", key).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// GetConversations 列出自己参与的所有会话，按最后一条消息时间倒序。
// 未读数在查询时实时统计，不走反规范化的计数器。
func (s *MessageService) GetConversations(selfID string) ([]models.ConversationSummary, error) {
	var conversations []models.Conversation
	err := s.db.
		Preload("ParticipantAUser").
		Preload("ParticipantBUser").
		Where("participant_a = ? OR participant_b = ?", selfID, selfID).
		Order("last_message_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		other := conversation.ParticipantAUser
		if conversation.ParticipantA == selfID {
			other = conversation.ParticipantBUser
		}

		var unread int64
		if err := s.db.Model(&models.Message{}).
			Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversation.ConversationID, selfID, false).
			Count(&unread).Error; err != nil {
			return nil, err
		}

		var lastMessage string
		if conversation.LastMessageID != "" {
			var message models.Message
			if err := s.db.Where("message_id = ?", conversation.LastMessageID).First(&message).Error; err == nil {
				lastMessage = message.Content
			}
		}

		summaries = append(summaries, models.ConversationSummary{
			ConversationID: conversation.ConversationID,
			Participant: models.ParticipantInfo{
				UserID:    other.ID,
				Username:  other.Username,
				AvatarURL: other.AvatarURL,
				LastLogin: other.LastLogin,
			},
			LastMessage:   lastMessage,
			LastMessageAt: conversation.LastMessageAt,
			UnreadCount:   unread,
		})
	}
	return summaries, nil
}

// UnreadCount 所有会话的未读消息总数
func (s *MessageService) UnreadCount(selfID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", selfID, false).
		Count(&count).Error
	return count, err
}

// UnreadByConversation 按会话统计未读消息数
func (s *MessageService) UnreadByConversation(selfID string) (map[string]int64, error) {
	var rows []struct {
		ConversationID string
		Count          int64
	}
	err := s.db.Model(&models.Message{}).
		Select("conversation_id, COUNT(*) as count").
		Where("receiver_id = ? AND is_read = ?", selfID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ConversationID] = row.Count
	}
	return counts, nil
}

// DeleteMessage 删除消息，只有发送方可以删
func (s *MessageService) DeleteMessage(selfID, messageID string) error {
	var message models.Message
	if err := s.db.Where("message_id = ?", messageID).First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	if message.SenderID != selfID {
		return ErrNotMessageSender
	}
	return s.db.Delete(&message).Error
}
