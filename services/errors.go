package services

import "errors"

// 业务错误，controller 层映射为对应的 HTTP 状态码
var (
	ErrEmptyMessage         = errors.New("message requires content or media")
	ErrSelfMessage          = errors.New("cannot send a message to yourself")
	ErrReceiverNotFound     = errors.New("receiver not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotMessageSender     = errors.New("only the sender can delete a message")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("notification does not belong to this user")
)
