package main

import (
	"social-sphere/config"
	"social-sphere/controllers"
	"social-sphere/models"
	"social-sphere/routes"
	"social-sphere/services"

	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()
	// 初始化数据库
	config.InitDB()
	// 自动迁移
	models.Migrate()

	// 实时推送：hub、在线注册表和业务服务互相引用，先建后绑定
	wsManager := services.NewWSManager()
	presence := services.NewPresenceRegistry(wsManager)
	notifications := services.NewNotificationService(config.DB, wsManager, presence)
	messages := services.NewMessageService(config.DB, wsManager, presence, notifications)
	wsManager.Bind(presence, messages)
	go wsManager.Run()

	controllers.Setup(wsManager, presence, messages, notifications)

	// 注册路由
	r := routes.RegisterRoutes()

	// 启动服务
	addr := ":" + config.Getenv("PORT", "8082")
	if err := r.Run(addr); err != nil {
		logrus.Fatalf("Server failed to start: %v", err)
	}
}
