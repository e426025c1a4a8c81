package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"velora/cmd/analytics-service/internal/conf"
	"velora/cmd/analytics-service/internal/domain"

	"github.com/posthog/posthog-go"
	"go.uber.org/zap"
)

// placeholderAPIKey 示例配置中的占位 key
const placeholderAPIKey = "phc_YOUR_API_KEY"

// eventCategories 事件分类，随事件属性一同上报
var eventCategories = map[domain.EventType]string{
	domain.EventTypePageView:         "navigation",
	domain.EventTypeFormSubmit:       "engagement",
	domain.EventTypeButtonClick:      "engagement",
	domain.EventTypeDemoRequest:      "conversion",
	domain.EventTypePricingSelection: "engagement",
}

// PostHogSink 将事件转发到 PostHog
// 未配置有效 key 时为空操作
type PostHogSink struct {
	client  posthog.Client
	enabled bool
	logger  *zap.Logger
}

// IsConfigured key 非空且不是占位符
func IsConfigured(apiKey string) bool {
	key := strings.TrimSpace(apiKey)
	return key != "" && key != placeholderAPIKey
}

// NewPostHogSink 创建 PostHog 转发器
func NewPostHogSink(cfg *conf.Config, logger *zap.Logger) (*PostHogSink, error) {
	logger = logger.With(zap.String("component", "posthog_sink"))
	pc := cfg.PostHog

	if !pc.Enabled || !IsConfigured(pc.APIKey) {
		logger.Info("PostHog forwarding is disabled")
		return &PostHogSink{logger: logger}, nil
	}

	if pc.Host == "" {
		pc.Host = "https://app.posthog.com"
	}
	if pc.BatchSize <= 0 {
		pc.BatchSize = 100
	}
	if pc.Interval <= 0 {
		pc.Interval = 30 * time.Second
	}

	client, err := posthog.NewWithConfig(pc.APIKey, posthog.Config{
		Endpoint:  pc.Host,
		BatchSize: pc.BatchSize,
		Interval:  pc.Interval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PostHog client: %w", err)
	}

	logger.Info("PostHog forwarding enabled", zap.String("host", pc.Host))

	return &PostHogSink{client: client, enabled: true, logger: logger}, nil
}

// Enabled 是否启用
func (s *PostHogSink) Enabled() bool {
	return s.enabled
}

// Forward 入队一条事件，发送由客户端批量完成
func (s *PostHogSink) Forward(ctx context.Context, event *domain.Event) error {
	if !s.enabled {
		return nil
	}

	distinctID := event.UserID()
	if distinctID == "" {
		distinctID = event.SessionID()
	}

	props := posthog.NewProperties().
		Set("event_id", event.ID).
		Set("category", eventCategories[event.Type]).
		Set("$current_url", event.URL).
		Set("$user_agent", event.UserAgent).
		Set("$session_id", event.SessionID())
	for k, v := range event.Data {
		if k == domain.DataKeyUserID || k == domain.DataKeySessionID {
			continue
		}
		props.Set(k, v)
	}

	if err := s.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      string(event.Type),
		Timestamp:  event.OccurredAt(),
		Properties: props,
	}); err != nil {
		return fmt.Errorf("posthog enqueue: %w", err)
	}
	return nil
}

// Close 刷新并关闭客户端，由聚合器 Dispose 调用
func (s *PostHogSink) Close() error {
	if !s.enabled {
		return nil
	}
	return s.client.Close()
}
