package domain

import (
	"fmt"
	"time"
)

// DefaultHistoryLimit 上下文窗口保留的行数（5 轮问答）
const DefaultHistoryLimit = 10

// ChatMessage 聊天消息
type ChatMessage struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	IsFromUser bool      `json:"is_from_user"`
	CreatedAt  time.Time `json:"created_at"`
}

// History 远程生成使用的对话上下文，先进先出
type History struct {
	lines []string
	limit int
}

// NewHistory 创建上下文窗口，limit<=0 时使用默认值
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// AppendExchange 追加一轮问答并裁剪到窗口大小
func (h *History) AppendExchange(user, assistant string) {
	h.lines = append(h.lines,
		fmt.Sprintf("User: %s", user),
		fmt.Sprintf("Assistant: %s", assistant),
	)
	if over := len(h.lines) - h.limit; over > 0 {
		h.lines = append([]string(nil), h.lines[over:]...)
	}
}

// Recent 最近 n 行
func (h *History) Recent(n int) []string {
	if n <= 0 || len(h.lines) == 0 {
		return nil
	}
	if n > len(h.lines) {
		n = len(h.lines)
	}
	out := make([]string, n)
	copy(out, h.lines[len(h.lines)-n:])
	return out
}

// Lines 全部上下文
func (h *History) Lines() []string {
	return h.Recent(len(h.lines))
}

// Len 行数
func (h *History) Len() int {
	return len(h.lines)
}

// Clear 清空
func (h *History) Clear() {
	h.lines = nil
}

// Conversation 会话，仅保存在内存中
type Conversation struct {
	ID        string
	Messages  []*ChatMessage
	History   *History
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConversation 创建会话，首条消息为欢迎语
func NewConversation(id string, welcome *ChatMessage, historyLimit int) *Conversation {
	now := welcome.CreatedAt
	return &Conversation{
		ID:        id,
		Messages:  []*ChatMessage{welcome},
		History:   NewHistory(historyLimit),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append 追加消息
func (c *Conversation) Append(msgs ...*ChatMessage) {
	c.Messages = append(c.Messages, msgs...)
	if n := len(msgs); n > 0 {
		c.UpdatedAt = msgs[n-1].CreatedAt
	}
}

// Reset 清空消息和上下文，只保留欢迎语
func (c *Conversation) Reset(welcome *ChatMessage) {
	c.Messages = []*ChatMessage{welcome}
	c.History.Clear()
	c.UpdatedAt = welcome.CreatedAt
}

// Snapshot 消息副本
func (c *Conversation) Snapshot() []*ChatMessage {
	out := make([]*ChatMessage, len(c.Messages))
	copy(out, c.Messages)
	return out
}
