package models

import (
	"social-sphere/config"

	"github.com/sirupsen/logrus"
)

// Migrate 自动迁移
func Migrate() {
	err := config.DB.AutoMigrate(
		&User{},
		&Conversation{},
		&Message{},
		&Notification{},
	)
	if err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}
}
