package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username  string     `json:"username" gorm:"type:varchar(64);unique;not null"`
	Password  string     `json:"-" gorm:"not null"`
	Email     string     `json:"email"`
	AvatarURL string     `json:"avatar_url"`
	Bio       string     `json:"bio"`
	LastLogin *time.Time `json:"last_login" gorm:"default:NULL"` // 允许 NULL
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
