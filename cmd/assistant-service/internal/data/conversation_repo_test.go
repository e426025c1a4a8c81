package data

import (
	"context"
	"testing"
	"time"

	"velora/cmd/assistant-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversation(id string, at time.Time) *domain.Conversation {
	return domain.NewConversation(id, &domain.ChatMessage{ID: id + "-w", Text: "welcome", CreatedAt: at}, 10)
}

func TestConversationRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepo(log.DefaultLogger)

	conv := newConversation("c1", time.Now())
	require.NoError(t, repo.Create(ctx, conv))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Same(t, conv, got)

	require.NoError(t, repo.Save(ctx, conv))
	assert.ErrorIs(t, repo.Save(ctx, newConversation("missing", time.Now())), domain.ErrConversationNotFound)

	require.NoError(t, repo.Delete(ctx, "c1"))
	_, err = repo.Get(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "c1"), domain.ErrConversationNotFound)
}

func TestConversationRepo_PurgeIdle(t *testing.T) {
	ctx := context.Background()
	repo := NewConversationRepo(log.DefaultLogger)
	now := time.Now()

	require.NoError(t, repo.Create(ctx, newConversation("old", now.Add(-time.Hour))))
	require.NoError(t, repo.Create(ctx, newConversation("fresh", now)))

	n, err := repo.PurgeIdle(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, repo.Count())

	_, err = repo.Get(ctx, "fresh")
	assert.NoError(t, err)
}
