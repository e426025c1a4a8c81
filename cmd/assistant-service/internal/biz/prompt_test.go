package biz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptBuilder_Build(t *testing.T) {
	b := NewPromptBuilder(6)

	t.Run("无上下文", func(t *testing.T) {
		prompt := b.Build("Hi", nil)
		assert.True(t, strings.HasPrefix(prompt, "You are Velora's AI assistant"))
		assert.NotContains(t, prompt, "Conversation Context:")
		assert.Contains(t, prompt, "Current User Question: Hi\n\nProvide a helpful")
	})

	t.Run("只嵌入最近6行", func(t *testing.T) {
		history := make([]string, 0, 10)
		for i := 0; i < 10; i++ {
			history = append(history, fmt.Sprintf("line-%d", i))
		}

		prompt := b.Build("next", history)
		assert.Contains(t, prompt, "Conversation Context:\nline-4\nline-5\nline-6\nline-7\nline-8\nline-9\n\nCurrent User Question: next")
		assert.NotContains(t, prompt, "line-3")
	})

	t.Run("业务信息", func(t *testing.T) {
		prompt := b.Build("q", nil)
		for _, fact := range []string{
			"Exclusive Company Travel Model",
			"Pooled Inter-Company Travel Model",
			"₹15 per trip",
			"₹12 per trip",
			"BRSR/CSRD compliance",
		} {
			assert.Contains(t, prompt, fact)
		}
	})
}
