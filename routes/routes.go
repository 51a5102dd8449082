package routes

import (
	"social-sphere/config"
	"social-sphere/controllers"
	"social-sphere/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes() *gin.Engine {

	r := gin.Default()
	// 配置跨域中间件
	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}

	r.Use(cors.New(corsConfig))
	r.GET("/ws", controllers.WSController)
	r.Static("/uploads", config.Getenv("UPLOAD_DIR", "./uploads"))

	protected := r.Group("/api")

	protected.POST("/register", controllers.Register) // 绑定注册接口
	protected.POST("/login", controllers.Login)       // 绑定登录接口

	{
		protected.Use(middlewares.TokenAuthMiddleware())
		protected.GET("/userinfo", controllers.GetUserInfo)

		// 私聊消息
		protected.POST("/messages", controllers.SendMessage)
		protected.GET("/messages/unread/count", controllers.GetUnreadMessageCount)
		protected.GET("/messages/unread/conversations", controllers.GetUnreadByConversation)
		protected.GET("/messages/:user_id", controllers.GetMessages)
		protected.DELETE("/messages/:message_id", controllers.DeleteMessage)
		protected.GET("/conversations", controllers.GetConversations)

		// 通知
		protected.GET("/notifications", controllers.GetNotifications)
		protected.GET("/notifications/unread/count", controllers.GetUnreadNotificationCount)
		protected.PUT("/notifications/read", controllers.MarkAllNotificationsRead)
		protected.PUT("/notifications/:notification_id/read", controllers.MarkNotificationRead)
		protected.DELETE("/notifications", controllers.ClearNotifications)
		protected.DELETE("/notifications/:notification_id", controllers.DeleteNotification)
	}

	return r
}
