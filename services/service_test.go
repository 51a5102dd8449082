package services

import (
	"fmt"
	"sync"
	"testing"

	"social-sphere/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// 每个测试一个独立的内存库，cache=shared 保证连接池里的连接看到同一份数据
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Password: "hashed"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

type recordedEvent struct {
	ConnID  string
	Event   string
	Payload interface{}
}

// fakeEmitter 记录所有推送，EmitToAll 的 ConnID 为空
type fakeEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEmitter) EmitToAll(event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Event: event, Payload: payload})
}

func (f *fakeEmitter) EmitToConnection(connID, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{ConnID: connID, Event: event, Payload: payload})
}

func (f *fakeEmitter) byEvent(event string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []recordedEvent
	for _, e := range f.events {
		if e.Event == event {
			matched = append(matched, e)
		}
	}
	return matched
}

// newTestServices 组装一套基于内存库和 fakeEmitter 的服务
func newTestServices(t *testing.T) (*MessageService, *NotificationService, *PresenceRegistry, *fakeEmitter, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	emitter := &fakeEmitter{}
	presence := NewPresenceRegistry(emitter)
	notifications := NewNotificationService(db, emitter, presence)
	messages := NewMessageService(db, emitter, presence, notifications)
	return messages, notifications, presence, emitter, db
}
