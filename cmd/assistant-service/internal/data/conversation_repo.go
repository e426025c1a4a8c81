package data

import (
	"context"
	"sync"
	"time"

	"velora/cmd/assistant-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

type conversationEntry struct {
	conv      *domain.Conversation
	updatedAt time.Time
}

// ConversationRepo 内存会话仓储
type ConversationRepo struct {
	mu    sync.RWMutex
	items map[string]*conversationEntry
	log   *log.Helper
}

// NewConversationRepo 创建会话仓储
func NewConversationRepo(logger log.Logger) *ConversationRepo {
	return &ConversationRepo{
		items: make(map[string]*conversationEntry),
		log:   log.NewHelper(log.With(logger, "module", "data/conversation")),
	}
}

// Create 创建会话
func (r *ConversationRepo) Create(_ context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[conv.ID] = &conversationEntry{conv: conv, updatedAt: conv.UpdatedAt}
	return nil
}

// Get 获取会话
func (r *ConversationRepo) Get(_ context.Context, id string) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return e.conv, nil
}

// Save 保存会话
func (r *ConversationRepo) Save(_ context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[conv.ID]; !ok {
		return domain.ErrConversationNotFound
	}
	r.items[conv.ID] = &conversationEntry{conv: conv, updatedAt: conv.UpdatedAt}
	return nil
}

// Delete 删除会话
func (r *ConversationRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrConversationNotFound
	}
	delete(r.items, id)
	return nil
}

// PurgeIdle 删除最后保存时间早于 before 的会话
func (r *ConversationRepo) PurgeIdle(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for id, e := range r.items {
		if e.updatedAt.Before(before) {
			delete(r.items, id)
			purged++
		}
	}
	if purged > 0 {
		r.log.Debugf("purged %d conversations idle since %s", purged, before.Format(time.RFC3339))
	}
	return purged, nil
}

// Count 会话数
func (r *ConversationRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
