package service

import (
	"context"

	"velora/cmd/assistant-service/internal/biz"
	"velora/cmd/assistant-service/internal/conf"
	"velora/cmd/assistant-service/internal/domain"
)

// Status 助手状态
type Status struct {
	AIEnabled bool   `json:"ai_enabled"`
	Model     string `json:"model"`
}

// SendResult 发送消息的结果
type SendResult struct {
	Reply    *domain.Reply         `json:"reply"`
	Messages []*domain.ChatMessage `json:"messages"`
}

// AssistantService 助手服务
type AssistantService struct {
	conversations *biz.ConversationUsecase
	calculator    *biz.PricingCalculator
	model         string
}

// NewAssistantService 创建助手服务
func NewAssistantService(
	c *conf.Bootstrap,
	conversations *biz.ConversationUsecase,
	calculator *biz.PricingCalculator,
) *AssistantService {
	return &AssistantService{
		conversations: conversations,
		calculator:    calculator,
		model:         c.Gemini.Model,
	}
}

// StartConversation 新建会话
func (s *AssistantService) StartConversation(ctx context.Context) (*domain.Conversation, error) {
	return s.conversations.StartConversation(ctx)
}

// SendMessage 发送消息
func (s *AssistantService) SendMessage(ctx context.Context, conversationID, text string) (*SendResult, error) {
	reply, msgs, err := s.conversations.SendMessage(ctx, conversationID, text)
	if err != nil {
		return nil, err
	}
	return &SendResult{Reply: reply, Messages: msgs}, nil
}

// Messages 会话消息
func (s *AssistantService) Messages(ctx context.Context, conversationID string) ([]*domain.ChatMessage, error) {
	return s.conversations.Messages(ctx, conversationID)
}

// ResetConversation 重置会话
func (s *AssistantService) ResetConversation(ctx context.Context, conversationID string) ([]*domain.ChatMessage, error) {
	return s.conversations.Reset(ctx, conversationID)
}

// DeleteConversation 删除会话
func (s *AssistantService) DeleteConversation(ctx context.Context, conversationID string) error {
	return s.conversations.Delete(ctx, conversationID)
}

// Estimate 价格估算
func (s *AssistantService) Estimate(_ context.Context, in domain.EstimateInput) (*domain.Estimate, error) {
	return s.calculator.Estimate(in)
}

// Status 助手状态
func (s *AssistantService) Status(_ context.Context) *Status {
	st := &Status{AIEnabled: s.conversations.RemoteEnabled()}
	if st.AIEnabled {
		st.Model = s.model
	}
	return st
}

// Start 启动后台任务
func (s *AssistantService) Start(ctx context.Context) error {
	return s.conversations.Start(ctx)
}

// Stop 停止后台任务
func (s *AssistantService) Stop(ctx context.Context) error {
	return s.conversations.Stop(ctx)
}
