package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrConversationNotFound 会话不存在
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrInvalidMessage 消息为空或过长
	ErrInvalidMessage = errors.New("invalid message")
)

// ConversationRepository 会话仓储
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	Get(ctx context.Context, id string) (*Conversation, error)
	Save(ctx context.Context, conv *Conversation) error
	Delete(ctx context.Context, id string) error
	// PurgeIdle 删除 UpdatedAt 早于 before 的会话，返回删除数量
	PurgeIdle(ctx context.Context, before time.Time) (int, error)
}
