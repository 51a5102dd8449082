package services

import "encoding/json"

// WebSocket 事件名
const (
	// client → server
	EventJoin        = "join"
	EventSendMessage = "send-message"
	EventTyping      = "typing"
	EventStopTyping  = "stop-typing"

	// server → client
	EventReceiveMessage      = "receive-message"
	EventReceiveNotification = "receive-notification"
	EventUserTyping          = "user-typing"
	EventUserStopTyping      = "user-stop-typing"
	EventUserOnline          = "user-online"
	EventUserOffline         = "user-offline"
)

// Envelope 事件信封，payload 按事件类型解析
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// SendMessagePayload send-message 事件负载
type SendMessagePayload struct {
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

// TypingPayload typing / stop-typing 事件负载
type TypingPayload struct {
	UserID     string `json:"userId"`
	ReceiverID string `json:"receiverId"`
}

// ReceiveMessagePayload receive-message 事件负载
type ReceiveMessagePayload struct {
	ConversationID string      `json:"conversationId"`
	Message        interface{} `json:"message"`
}

// Emitter 推送接口，在线就推，不在线直接丢弃，从不排队
type Emitter interface {
	EmitToAll(event string, payload interface{})
	EmitToConnection(connID, event string, payload interface{})
}
