package clients

import (
	"context"
	"net/url"
	"time"
)

// ChatMessage 聊天消息
type ChatMessage struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	IsFromUser bool      `json:"is_from_user"`
	CreatedAt  time.Time `json:"created_at"`
}

// Command 回复附带的界面指令
type Command struct {
	Type    string `json:"type"`
	Target  string `json:"target"`
	DelayMs int64  `json:"delay_ms"`
}

// Reply 助手回复
type Reply struct {
	Text     string    `json:"text"`
	Source   string    `json:"source"`
	Rule     string    `json:"rule,omitempty"`
	Commands []Command `json:"commands,omitempty"`
}

// Conversation 会话
type Conversation struct {
	ID        string         `json:"id"`
	Messages  []*ChatMessage `json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
}

// SendResult 发送消息结果
type SendResult struct {
	Reply    *Reply         `json:"reply"`
	Messages []*ChatMessage `json:"messages"`
}

// EstimateRequest 估价请求
type EstimateRequest struct {
	EmployeeCount int     `json:"employee_count"`
	Shifts        int     `json:"shifts"`
	DistanceKM    float64 `json:"distance_km"`
	VehicleType   string  `json:"vehicle_type"`
	Frequency     string  `json:"frequency"`
	HasAC         bool    `json:"has_ac"`
	HasGPS        bool    `json:"has_gps"`
}

// Estimate 估价结果
type Estimate struct {
	MonthlyCost    int64 `json:"monthly_cost" yaml:"monthly_cost"`
	Savings        int64 `json:"savings" yaml:"savings"`
	VehiclesNeeded int   `json:"vehicles_needed" yaml:"vehicles_needed"`
}

// AssistantStatus 助手状态
type AssistantStatus struct {
	AIEnabled bool   `json:"ai_enabled"`
	Model     string `json:"model"`
}

type messagesResponse struct {
	ConversationID string         `json:"conversation_id"`
	Messages       []*ChatMessage `json:"messages"`
}

// AssistantClient assistant-service 客户端
type AssistantClient struct {
	*BaseClient
}

// NewAssistantClient 创建 assistant-service 客户端
func NewAssistantClient(baseURL string, timeout time.Duration) *AssistantClient {
	return &AssistantClient{
		BaseClient: NewBaseClient(BaseClientConfig{
			ServiceName: "assistant-service",
			BaseURL:     baseURL,
			Timeout:     timeout,
		}),
	}
}

// StartConversation 新建会话
func (c *AssistantClient) StartConversation(ctx context.Context) (*Conversation, error) {
	var conv Conversation
	if err := c.Post(ctx, "/api/v1/conversations", nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// SendMessage 发送消息
func (c *AssistantClient) SendMessage(ctx context.Context, conversationID, text string) (*SendResult, error) {
	var result SendResult
	body := map[string]string{"text": text}
	if err := c.Post(ctx, conversationPath(conversationID)+"/messages", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Messages 会话消息
func (c *AssistantClient) Messages(ctx context.Context, conversationID string) ([]*ChatMessage, error) {
	var resp messagesResponse
	if err := c.Get(ctx, conversationPath(conversationID)+"/messages", &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Reset 重置会话
func (c *AssistantClient) Reset(ctx context.Context, conversationID string) ([]*ChatMessage, error) {
	var resp messagesResponse
	if err := c.Post(ctx, conversationPath(conversationID)+"/reset", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// DeleteConversation 删除会话
func (c *AssistantClient) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.Delete(ctx, conversationPath(conversationID))
}

// Estimate 价格估算
func (c *AssistantClient) Estimate(ctx context.Context, req *EstimateRequest) (*Estimate, error) {
	var est Estimate
	if err := c.Post(ctx, "/api/v1/pricing/estimate", req, &est); err != nil {
		return nil, err
	}
	return &est, nil
}

// Status 助手状态
func (c *AssistantClient) Status(ctx context.Context) (*AssistantStatus, error) {
	var st AssistantStatus
	if err := c.Get(ctx, "/api/v1/assistant/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func conversationPath(id string) string {
	return "/api/v1/conversations/" + url.PathEscape(id)
}
