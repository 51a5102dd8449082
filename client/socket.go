// Package client 前端状态持有者：一条 WebSocket 连接加周期性轮询，
// 推送事件和权威轮询结果之间保持最终一致。
package client

import (
	"encoding/json"
	"sync"

	"social-sphere/models"
	"social-sphere/services"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// SocketSubscriber 持有本次会话唯一的一条推送连接。
// 在线用户集合完全由收到的 user-online/user-offline 事件维护，
// 重连后不会有事件补发，状态只随下一个事件刷新。
type SocketSubscriber struct {
	url    string
	userID string

	mu     sync.RWMutex
	conn   *websocket.Conn
	online map[string]bool

	// 推送事件回调，Connect 之前设置
	OnMessage      func(payload services.ReceiveMessagePayload)
	OnNotification func(notification models.Notification)
	OnTyping       func(userID string)
	OnStopTyping   func(userID string)

	done chan struct{}
}

func NewSocketSubscriber(url, userID string) *SocketSubscriber {
	return &SocketSubscriber{
		url:    url,
		userID: userID,
		online: make(map[string]bool),
		done:   make(chan struct{}),
	}
}

// Connect 建立连接，上报自己的用户ID，然后开始消费推送事件
func (s *SocketSubscriber) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if err := s.emit(services.EventJoin, s.userID); err != nil {
		conn.Close()
		return err
	}

	go s.readLoop()
	return nil
}

func (s *SocketSubscriber) readLoop() {
	defer close(s.done)
	for {
		var envelope services.Envelope
		if err := s.conn.ReadJSON(&envelope); err != nil {
			return
		}
		s.handle(envelope)
	}
}

func (s *SocketSubscriber) handle(envelope services.Envelope) {
	switch envelope.Event {
	case services.EventUserOnline:
		var userID string
		if json.Unmarshal(envelope.Payload, &userID) == nil {
			s.mu.Lock()
			s.online[userID] = true
			s.mu.Unlock()
		}

	case services.EventUserOffline:
		var userID string
		if json.Unmarshal(envelope.Payload, &userID) == nil {
			s.mu.Lock()
			delete(s.online, userID)
			s.mu.Unlock()
		}

	case services.EventReceiveMessage:
		var payload services.ReceiveMessagePayload
		if json.Unmarshal(envelope.Payload, &payload) == nil && s.OnMessage != nil {
			s.OnMessage(payload)
		}

	case services.EventReceiveNotification:
		var notification models.Notification
		if json.Unmarshal(envelope.Payload, &notification) == nil && s.OnNotification != nil {
			s.OnNotification(notification)
		}

	case services.EventUserTyping:
		var userID string
		if json.Unmarshal(envelope.Payload, &userID) == nil && s.OnTyping != nil {
			s.OnTyping(userID)
		}

	case services.EventUserStopTyping:
		var userID string
		if json.Unmarshal(envelope.Payload, &userID) == nil && s.OnStopTyping != nil {
			s.OnStopTyping(userID)
		}

	default:
		logrus.WithField("event", envelope.Event).Debug("Unhandled push event")
	}
}

// IsOnline 某个用户当前是否在线（以收到的事件为准）
func (s *SocketSubscriber) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online[userID]
}

// OnlineUsers 在线用户集合快照
func (s *SocketSubscriber) OnlineUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.online))
	for userID := range s.online {
		users = append(users, userID)
	}
	return users
}

// SendMessage 通过推送通道发送消息
func (s *SocketSubscriber) SendMessage(receiverID, message string) error {
	return s.emit(services.EventSendMessage, services.SendMessagePayload{
		ReceiverID: receiverID,
		Message:    message,
	})
}

// Typing 通知对方自己正在输入
func (s *SocketSubscriber) Typing(receiverID string) error {
	return s.emit(services.EventTyping, services.TypingPayload{UserID: s.userID, ReceiverID: receiverID})
}

// StopTyping 通知对方自己停止输入
func (s *SocketSubscriber) StopTyping(receiverID string) error {
	return s.emit(services.EventStopTyping, services.TypingPayload{UserID: s.userID, ReceiverID: receiverID})
}

func (s *SocketSubscriber) emit(event string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(struct {
		Event   string      `json:"event"`
		Payload interface{} `json:"payload"`
	}{Event: event, Payload: payload})
}

// Close 关闭连接并等待读循环退出
func (s *SocketSubscriber) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-s.done
	return err
}
