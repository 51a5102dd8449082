package services

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// WSManager WebSocket 连接管理器，按 connectionID 管理所有活跃连接。
// 推送语义：在线就推，不在线直接丢弃，不为离线接收方排队。
// 需要可靠投递的组件必须先落库再尝试推送。
type WSManager struct {
	mu          sync.RWMutex
	connections map[string]*WSClient // connectionID -> client
	register    chan *WSClient
	unregister  chan *WSClient

	presence *PresenceRegistry
	messages *MessageService
}

func NewWSManager() *WSManager {
	return &WSManager{
		connections: make(map[string]*WSClient),
		register:    make(chan *WSClient),
		unregister:  make(chan *WSClient),
	}
}

// Bind 注入 presence 和消息服务。hub 与两个服务互相依赖，启动时绑定一次。
func (m *WSManager) Bind(presence *PresenceRegistry, messages *MessageService) {
	m.presence = presence
	m.messages = messages
}

// Run 管理连接的注册/注销
func (m *WSManager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.connections[client.connID] = client
			m.mu.Unlock()
			logrus.WithField("connection_id", client.connID).Info("🔵 New client connected")

		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.connections[client.connID]; ok {
				delete(m.connections, client.connID)
				close(client.send)
			}
			m.mu.Unlock()
			client.setState(StateClosed)
			// 下线广播由 presence 负责，旧连接不会误删新上线的映射
			m.presence.Remove(client.connID)
			logrus.WithField("connection_id", client.connID).Info("🔴 Client disconnected")
		}
	}
}

// EmitToAll 向所有连接广播事件
func (m *WSManager) EmitToAll(event string, payload interface{}) {
	data, err := marshalEnvelope(event, payload)
	if err != nil {
		logrus.WithError(err).Warn("Failed to marshal event")
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, client := range m.connections {
		client.enqueue(data)
	}
}

// EmitToConnection 向指定连接推送事件，连接不存在时丢弃
func (m *WSManager) EmitToConnection(connID, event string, payload interface{}) {
	data, err := marshalEnvelope(event, payload)
	if err != nil {
		logrus.WithError(err).Warn("Failed to marshal event")
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, ok := m.connections[connID]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"connection_id": connID,
			"event":         event,
		}).Debug("Dropping event for absent connection")
		return
	}
	client.enqueue(data)
}

func marshalEnvelope(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(struct {
		Event   string      `json:"event"`
		Payload interface{} `json:"payload"`
	}{Event: event, Payload: payload})
}
