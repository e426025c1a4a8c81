package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"velora/cmd/assistant-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo 测试用仓储
type memoryRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Conversation
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string]*domain.Conversation)}
}

func (r *memoryRepo) Create(_ context.Context, c *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.ID] = c
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id string) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return c, nil
}

func (r *memoryRepo) Save(ctx context.Context, c *domain.Conversation) error {
	return r.Create(ctx, c)
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrConversationNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) PurgeIdle(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.items {
		if c.UpdatedAt.Before(before) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func newTestUsecase(t *testing.T, gen domain.TextGenerator, apiKey string) (*ConversationUsecase, *memoryRepo) {
	t.Helper()
	bc := testBootstrap(apiKey)
	repo := newMemoryRepo()
	engine := NewResponseEngine(bc, gen, fixedRandom(0), log.DefaultLogger)
	uc := NewConversationUsecase(bc, repo, engine, log.DefaultLogger)

	seq := 0
	uc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return uc, repo
}

func TestConversationUsecase_Flow(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{reply: "remote answer"}
	uc, _ := newTestUsecase(t, gen, "key")

	conv, err := uc.StartConversation(ctx)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, welcomeMessage, conv.Messages[0].Text)
	assert.False(t, conv.Messages[0].IsFromUser)

	reply, msgs, err := uc.SendMessage(ctx, conv.ID, "Do you serve airports?")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRemote, reply.Source)
	require.Len(t, msgs, 3)
	assert.True(t, msgs[1].IsFromUser)
	assert.Equal(t, "Do you serve airports?", msgs[1].Text)
	assert.Equal(t, "remote answer", msgs[2].Text)
	assert.Equal(t, 2, conv.History.Len())

	// 第二轮的提示词包含上一轮上下文
	_, _, err = uc.SendMessage(ctx, conv.ID, "And hospitals?")
	require.NoError(t, err)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "User: Do you serve airports?")

	msgs, err = uc.Messages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 5)

	msgs, err = uc.Reset(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, welcomeMessage, msgs[0].Text)
	assert.Equal(t, 0, conv.History.Len())

	require.NoError(t, uc.Delete(ctx, conv.ID))
	_, err = uc.Messages(ctx, conv.ID)
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestConversationUsecase_Validation(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t, nil, "")
	conv, err := uc.StartConversation(ctx)
	require.NoError(t, err)

	for _, text := range []string{"", "   \n", strings.Repeat("a", 501)} {
		_, _, err := uc.SendMessage(ctx, conv.ID, text)
		assert.ErrorIs(t, err, domain.ErrInvalidMessage)
	}

	// 500 个字符（非 ASCII）仍然合法
	_, _, err = uc.SendMessage(ctx, conv.ID, strings.Repeat("é", 500))
	assert.NoError(t, err)

	_, _, err = uc.SendMessage(ctx, "missing", "hello")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestConversationUsecase_CalculatorCommand(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t, nil, "")
	conv, _ := uc.StartConversation(ctx)

	reply, _, err := uc.SendMessage(ctx, conv.ID, "Open the calculator")
	require.NoError(t, err)
	require.Len(t, reply.Commands, 1)
	assert.Equal(t, domain.CommandScrollTo, reply.Commands[0].Type)
}

func TestConversationUsecase_PurgeIdle(t *testing.T) {
	ctx := context.Background()
	uc, repo := newTestUsecase(t, nil, "")

	now := time.Now()
	uc.now = func() time.Time { return now }
	old, _ := uc.StartConversation(ctx)

	uc.now = func() time.Time { return now.Add(20 * time.Minute) }
	fresh, _ := uc.StartConversation(ctx)
	_, err := uc.Messages(ctx, old.ID)
	require.NoError(t, err)

	uc.now = func() time.Time { return now.Add(45 * time.Minute) }
	assert.Equal(t, 1, uc.purgeIdle(ctx))

	_, err = repo.Get(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	_, err = repo.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestConversationUsecase_StartStop(t *testing.T) {
	uc, _ := newTestUsecase(t, nil, "")

	// 未启动时 Stop 直接返回
	require.NoError(t, uc.Stop(context.Background()))

	require.NoError(t, uc.Start(context.Background()))
	require.NoError(t, uc.Start(context.Background()))
	require.NoError(t, uc.Stop(context.Background()))
	require.NoError(t, uc.Stop(context.Background()))
}

func TestConversationUsecase_ConcurrentSends(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestUsecase(t, nil, "")
	uc.newID = func() string { return fmt.Sprintf("%d", time.Now().UnixNano()) }
	conv, _ := uc.StartConversation(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = uc.SendMessage(ctx, conv.ID, "hello")
		}()
	}
	wg.Wait()

	msgs, err := uc.Messages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 41)
}
