package domain

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_KeepsLastLines(t *testing.T) {
	h := NewHistory(0)

	for i := 1; i <= 7; i++ {
		h.AppendExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	require.Equal(t, DefaultHistoryLimit, h.Len())
	lines := h.Lines()
	assert.Equal(t, "User: q3", lines[0])
	assert.Equal(t, "Assistant: a7", lines[len(lines)-1])

	assert.Equal(t, []string{"User: q7", "Assistant: a7"}, h.Recent(2))
	assert.Len(t, h.Recent(100), DefaultHistoryLimit)
	assert.Nil(t, h.Recent(0))
}

func TestHistory_RecentIsCopy(t *testing.T) {
	h := NewHistory(4)
	h.AppendExchange("hi", "hello")

	recent := h.Recent(2)
	recent[0] = "mutated"
	assert.Equal(t, "User: hi", h.Lines()[0])
}

func TestConversation_Reset(t *testing.T) {
	now := time.Now()
	welcome := &ChatMessage{ID: "w", Text: "welcome", CreatedAt: now}
	conv := NewConversation("c1", welcome, 10)

	conv.Append(
		&ChatMessage{ID: "u", Text: "hi", IsFromUser: true, CreatedAt: now.Add(time.Second)},
		&ChatMessage{ID: "b", Text: "hello", CreatedAt: now.Add(2 * time.Second)},
	)
	conv.History.AppendExchange("hi", "hello")
	assert.Len(t, conv.Messages, 3)
	assert.Equal(t, now.Add(2*time.Second), conv.UpdatedAt)

	conv.Reset(&ChatMessage{ID: "w2", Text: "welcome", CreatedAt: now.Add(time.Minute)})
	assert.Len(t, conv.Messages, 1)
	assert.Equal(t, 0, conv.History.Len())
}

func TestCommand_JSON(t *testing.T) {
	cmd := Command{Type: CommandScrollTo, Target: "calculator", Delay: 500 * time.Millisecond}

	b, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"scroll_to","target":"calculator","delay_ms":500}`, string(b))

	var decoded Command
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, cmd, decoded)
}

func TestRemoteError(t *testing.T) {
	err := fmt.Errorf("generate: %w", &RemoteError{Kind: RemoteStatus, StatusCode: 503})
	assert.Equal(t, RemoteStatus, RemoteKind(err))
	assert.Contains(t, err.Error(), "status 503")

	assert.Equal(t, RemoteNetwork, RemoteKind(fmt.Errorf("boom")))
}
