package controllers

import (
	"net/http"
	"strconv"

	"social-sphere/utils"

	"github.com/gin-gonic/gin"
)

// GetNotifications 通知列表，?read=true|false 过滤已读状态，limit/skip 分页
func GetNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var isRead *bool
	if raw := c.Query("read"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, "read must be true or false")
			return
		}
		isRead = &value
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))

	notifications, err := notificationService.List(user.ID, isRead, limit, skip)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch notifications")
		return
	}
	utils.RespondSuccess(c, notifications, gin.H{"limit": limit, "skip": skip})
}

// GetUnreadNotificationCount 未读通知数
func GetUnreadNotificationCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := notificationService.UnreadCount(user.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to count unread notifications")
		return
	}
	utils.RespondSuccess(c, gin.H{"count": count}, nil)
}

// MarkNotificationRead 标记单条通知已读
func MarkNotificationRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := notificationService.MarkRead(user.ID, c.Param("notification_id")); err != nil {
		respondServiceError(c, err, "Failed to mark notification as read")
		return
	}
	utils.RespondSuccess(c, gin.H{"read": true}, nil)
}

// MarkAllNotificationsRead 标记全部通知已读
func MarkAllNotificationsRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := notificationService.MarkAllRead(user.ID); err != nil {
		respondServiceError(c, err, "Failed to mark notifications as read")
		return
	}
	utils.RespondSuccess(c, gin.H{"read": true}, nil)
}

// DeleteNotification 删除单条通知
func DeleteNotification(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := notificationService.Delete(user.ID, c.Param("notification_id")); err != nil {
		respondServiceError(c, err, "Failed to delete notification")
		return
	}
	utils.RespondSuccess(c, gin.H{"deleted": true}, nil)
}

// ClearNotifications 清空自己的所有通知
func ClearNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := notificationService.ClearAll(user.ID); err != nil {
		respondServiceError(c, err, "Failed to clear notifications")
		return
	}
	utils.RespondSuccess(c, gin.H{"deleted": true}, nil)
}
