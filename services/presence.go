package services

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// PresenceRegistry 在线用户表，userID -> connectionID。
// 每个用户只保留一条连接，后连接的覆盖先连接的。
// 单进程内存实现，不跨实例共享。
type PresenceRegistry struct {
	mu      sync.RWMutex
	online  map[string]string
	emitter Emitter
}

func NewPresenceRegistry(emitter Emitter) *PresenceRegistry {
	return &PresenceRegistry{
		online:  make(map[string]string),
		emitter: emitter,
	}
}

// Join 注册用户连接并广播上线事件
func (p *PresenceRegistry) Join(userID, connID string) {
	p.mu.Lock()
	p.online[userID] = connID
	p.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"user_id":       userID,
		"connection_id": connID,
	}).Info("User online")

	p.emitter.EmitToAll(EventUserOnline, userID)
}

// Lookup 查找用户的连接
func (p *PresenceRegistry) Lookup(userID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	connID, ok := p.online[userID]
	return connID, ok
}

// Remove 按连接反查用户并下线。反向扫描是 O(n)，注册表规模可控时可以接受。
// 用户已用新连接重新上线时，旧连接的 Remove 不会误删新映射。
func (p *PresenceRegistry) Remove(connID string) {
	p.mu.Lock()
	userID := ""
	for uid, cid := range p.online {
		if cid == connID {
			userID = uid
			break
		}
	}
	if userID != "" {
		delete(p.online, userID)
	}
	p.mu.Unlock()

	if userID == "" {
		return
	}

	logrus.WithField("user_id", userID).Info("User offline")
	p.emitter.EmitToAll(EventUserOffline, userID)
}

// OnlineUsers 当前在线用户快照
func (p *PresenceRegistry) OnlineUsers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	users := make([]string, 0, len(p.online))
	for uid := range p.online {
		users = append(users, uid)
	}
	return users
}
