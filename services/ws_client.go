package services

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval   = 10 * time.Second // 发送 Ping 的间隔
	pongTimeout    = 15 * time.Second // 超过 15 秒未收到 Pong 断开连接
	writeTimeout   = 10 * time.Second
	maxMessageSize = 8192
)

// SessionState 会话状态机：Opened -> Joined -> Active -> Closed。
// 断开后重连的会话不会收到任何补发的事件。
type SessionState int32

const (
	StateOpened SessionState = iota // 握手完成，还未上报用户身份
	StateJoined                     // 收到 join 事件
	StateActive                     // 收发过消息/typing 事件
	StateClosed
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient 一个 WebSocket 客户端会话
type WSClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	connID  string
	userID  string
	state   int32
}

func (c *WSClient) setState(s SessionState) {
	atomic.StoreInt32(&c.state, int32(s))
}

func (c *WSClient) getState() SessionState {
	return SessionState(atomic.LoadInt32(&c.state))
}

// enqueue 非阻塞投递，发送队列满了就丢
func (c *WSClient) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		logrus.WithField("connection_id", c.connID).Warn("⚠️ Send buffer full, dropping event")
	}
}

// HandleConnection 升级 HTTP 连接并启动读写循环
func (m *WSManager) HandleConnection(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := &WSClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 64),
		connID:  uuid.New().String(),
		state:   int32(StateOpened),
	}

	m.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *WSClient) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			logrus.WithField("connection_id", c.connID).Debug("Invalid event format")
			continue
		}
		c.dispatch(envelope)
	}
}

// dispatch 处理单个入站事件。同一连接的事件在 readPump 里顺序执行，
// 不同连接的事件并发交错。
func (c *WSClient) dispatch(envelope Envelope) {
	switch envelope.Event {
	case EventJoin:
		var userID string
		if err := json.Unmarshal(envelope.Payload, &userID); err != nil || userID == "" {
			return
		}
		c.userID = userID
		c.setState(StateJoined)
		c.manager.presence.Join(userID, c.connID)

	case EventSendMessage:
		if c.getState() < StateJoined {
			return
		}
		var payload SendMessagePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return
		}
		c.setState(StateActive)
		if _, err := c.manager.messages.SendMessage(c.userID, payload.ReceiverID, payload.Message, "", ""); err != nil {
			logrus.WithError(err).WithField("user_id", c.userID).Warn("Failed to send message over websocket")
		}

	case EventTyping, EventStopTyping:
		if c.getState() < StateJoined {
			return
		}
		var payload TypingPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return
		}
		c.setState(StateActive)
		outbound := EventUserTyping
		if envelope.Event == EventStopTyping {
			outbound = EventUserStopTyping
		}
		// typing 提示只发给对方，不落库
		if connID, ok := c.manager.presence.Lookup(payload.ReceiverID); ok {
			c.manager.EmitToConnection(connID, outbound, c.userID)
		}

	default:
		logrus.WithField("event", envelope.Event).Debug("Unknown event, ignoring")
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
