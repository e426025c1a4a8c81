package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"velora/cmd/assistant-service/internal/conf"
	"velora/cmd/assistant-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// ConversationUsecase 聊天会话用例
type ConversationUsecase struct {
	repo         domain.ConversationRepository
	engine       *ResponseEngine
	maxLen       int
	historyLimit int
	ttl          time.Duration
	log          *log.Helper

	now   func() time.Time
	newID func() string

	// 同一会话的消息串行处理
	locks sync.Map

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewConversationUsecase 创建会话用例
func NewConversationUsecase(
	c *conf.Bootstrap,
	repo domain.ConversationRepository,
	engine *ResponseEngine,
	logger log.Logger,
) *ConversationUsecase {
	return &ConversationUsecase{
		repo:         repo,
		engine:       engine,
		maxLen:       c.Assistant.MaxMessageLength,
		historyLimit: c.Assistant.HistoryLimit,
		ttl:          conf.Duration(c.Assistant.ConversationTTL, 30*time.Minute),
		log:          log.NewHelper(log.With(logger, "module", "biz/conversation")),
		now:          time.Now,
		newID:        uuid.NewString,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// StartConversation 创建会话，首条消息为欢迎语
func (uc *ConversationUsecase) StartConversation(ctx context.Context) (*domain.Conversation, error) {
	conv := domain.NewConversation(uc.newID(), uc.welcome(), uc.historyLimit)
	if err := uc.repo.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	ConversationsActive.Inc()
	uc.log.Debugf("conversation started: %s", conv.ID)
	return conv, nil
}

// SendMessage 追加用户消息并生成回复
func (uc *ConversationUsecase) SendMessage(ctx context.Context, id, text string) (*domain.Reply, []*domain.ChatMessage, error) {
	if err := uc.validate(text); err != nil {
		return nil, nil, err
	}

	unlock := uc.lock(id)
	defer unlock()

	conv, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	userMsg := &domain.ChatMessage{ID: uc.newID(), Text: text, IsFromUser: true, CreatedAt: uc.now()}
	reply := uc.engine.Respond(ctx, text, conv.History)
	botMsg := &domain.ChatMessage{ID: uc.newID(), Text: reply.Text, CreatedAt: uc.now()}

	conv.Append(userMsg, botMsg)
	if err := uc.repo.Save(ctx, conv); err != nil {
		return nil, nil, fmt.Errorf("save conversation: %w", err)
	}

	return reply, conv.Snapshot(), nil
}

// Messages 会话消息
func (uc *ConversationUsecase) Messages(ctx context.Context, id string) ([]*domain.ChatMessage, error) {
	unlock := uc.lock(id)
	defer unlock()

	conv, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return conv.Snapshot(), nil
}

// Reset 清空会话，回到欢迎语
func (uc *ConversationUsecase) Reset(ctx context.Context, id string) ([]*domain.ChatMessage, error) {
	unlock := uc.lock(id)
	defer unlock()

	conv, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	conv.Reset(uc.welcome())
	if err := uc.repo.Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}
	return conv.Snapshot(), nil
}

// Delete 删除会话
func (uc *ConversationUsecase) Delete(ctx context.Context, id string) error {
	unlock := uc.lock(id)
	defer unlock()

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.locks.Delete(id)
	ConversationsActive.Dec()
	return nil
}

// RemoteEnabled 远程生成是否启用
func (uc *ConversationUsecase) RemoteEnabled() bool {
	return uc.engine.RemoteEnabled()
}

// Start 启动空闲会话清理
func (uc *ConversationUsecase) Start(ctx context.Context) error {
	if !uc.started.CompareAndSwap(false, true) {
		return nil
	}
	go uc.janitor(ctx)
	return nil
}

// Stop 停止空闲会话清理
func (uc *ConversationUsecase) Stop(_ context.Context) error {
	if !uc.started.Load() {
		return nil
	}
	uc.stopOnce.Do(func() {
		close(uc.stop)
	})
	<-uc.done
	return nil
}

func (uc *ConversationUsecase) janitor(ctx context.Context) {
	defer close(uc.done)

	interval := uc.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			uc.purgeIdle(ctx)
		case <-uc.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// purgeIdle 删除超过 TTL 未活动的会话
func (uc *ConversationUsecase) purgeIdle(ctx context.Context) int {
	n, err := uc.repo.PurgeIdle(ctx, uc.now().Add(-uc.ttl))
	if err != nil {
		uc.log.Warnf("purge idle conversations failed: %v", err)
		return 0
	}
	if n == 0 {
		return 0
	}

	ConversationsActive.Sub(float64(n))
	uc.locks.Range(func(k, _ any) bool {
		if _, err := uc.repo.Get(ctx, k.(string)); errors.Is(err, domain.ErrConversationNotFound) {
			uc.locks.Delete(k)
		}
		return true
	})
	uc.log.Infof("purged %d idle conversations", n)
	return n
}

func (uc *ConversationUsecase) validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is required", domain.ErrInvalidMessage)
	}
	if uc.maxLen > 0 && utf8.RuneCountInString(text) > uc.maxLen {
		return fmt.Errorf("%w: text exceeds %d characters", domain.ErrInvalidMessage, uc.maxLen)
	}
	return nil
}

func (uc *ConversationUsecase) welcome() *domain.ChatMessage {
	return &domain.ChatMessage{ID: uc.newID(), Text: welcomeMessage, CreatedAt: uc.now()}
}

func (uc *ConversationUsecase) lock(id string) func() {
	v, _ := uc.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
