package controllers

import (
	"errors"
	"net/http"

	"social-sphere/models"
	"social-sphere/services"
	"social-sphere/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	wsManager           *services.WSManager
	presenceRegistry    *services.PresenceRegistry
	messageService      *services.MessageService
	notificationService *services.NotificationService
)

// Setup 注入各服务实例，main 启动时调用一次
func Setup(ws *services.WSManager, presence *services.PresenceRegistry, messages *services.MessageService, notifications *services.NotificationService) {
	wsManager = ws
	presenceRegistry = presence
	messageService = messages
	notificationService = notifications
}

// currentUser 从上下文中获取认证中间件放入的用户
func currentUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		utils.RespondError(c, http.StatusNotFound, "User not found")
		return nil, false
	}
	userInfo, ok := user.(*models.User)
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, "Invalid user data")
		return nil, false
	}
	return userInfo, true
}

// respondServiceError 把业务错误映射为 HTTP 状态码
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrSelfMessage):
		utils.RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrReceiverNotFound),
		errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		utils.RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotMessageSender),
		errors.Is(err, services.ErrNotRecipient):
		utils.RespondError(c, http.StatusForbidden, err.Error())
	default:
		logrus.WithError(err).Error(fallback)
		utils.RespondError(c, http.StatusInternalServerError, fallback)
	}
}
