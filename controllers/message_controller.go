package controllers

import (
	"net/http"
	"path/filepath"
	"strings"

	"social-sphere/config"
	"social-sphere/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SendMessage 发送私聊消息，multipart 表单：receiver_id 必填，content 和 media 至少一个
func SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	receiverID := c.PostForm("receiver_id")
	if receiverID == "" {
		utils.RespondError(c, http.StatusBadRequest, "receiver_id is required")
		return
	}
	content := c.PostForm("content")

	var mediaPath, mediaType string
	if file, err := c.FormFile("media"); err == nil {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		filename := uuid.New().String() + ext
		dir := config.Getenv("UPLOAD_DIR", "./uploads")
		if err := c.SaveUploadedFile(file, filepath.Join(dir, filename)); err != nil {
			logrus.WithError(err).Error("Failed to save uploaded media")
			utils.RespondError(c, http.StatusInternalServerError, "Failed to save media")
			return
		}
		mediaPath = "/uploads/" + filename
		mediaType = detectMediaType(ext)
	}

	message, err := messageService.SendMessage(user.ID, receiverID, content, mediaPath, mediaType)
	if err != nil {
		respondServiceError(c, err, "Failed to send message")
		return
	}
	utils.RespondSuccess(c, message, nil)
}

// GetMessages 获取和某个用户的完整消息记录，未读的会被标记为已读
func GetMessages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	otherID := c.Param("user_id")
	messages, err := messageService.GetMessages(user.ID, otherID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch messages")
		return
	}
	utils.RespondSuccess(c, messages, nil)
}

// GetConversations 获取自己的会话列表，带实时未读数
func GetConversations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	conversations, err := messageService.GetConversations(user.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch conversations")
		return
	}
	utils.RespondSuccess(c, conversations, nil)
}

// GetUnreadMessageCount 未读消息总数
func GetUnreadMessageCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := messageService.UnreadCount(user.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to count unread messages")
		return
	}
	utils.RespondSuccess(c, gin.H{"count": count}, nil)
}

// GetUnreadByConversation 按会话统计未读消息数
func GetUnreadByConversation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	counts, err := messageService.UnreadByConversation(user.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to count unread messages")
		return
	}
	utils.RespondSuccess(c, counts, nil)
}

// DeleteMessage 删除自己发送的消息
func DeleteMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := messageService.DeleteMessage(user.ID, c.Param("message_id")); err != nil {
		respondServiceError(c, err, "Failed to delete message")
		return
	}
	utils.RespondSuccess(c, gin.H{"deleted": true}, nil)
}

func detectMediaType(ext string) string {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return "image"
	case ".mp4", ".mov", ".webm":
		return "video"
	default:
		return "file"
	}
}
