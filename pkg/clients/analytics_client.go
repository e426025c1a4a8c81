package clients

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Event 分析事件
type Event struct {
	ID        string                 `json:"id" yaml:"id"`
	Type      string                 `json:"type" yaml:"type"`
	Data      map[string]interface{} `json:"data" yaml:"data"`
	Timestamp int64                  `json:"timestamp" yaml:"timestamp"`
	UserAgent string                 `json:"userAgent" yaml:"userAgent"`
	URL       string                 `json:"url" yaml:"url"`
}

// LiveVisitor 在线访客
type LiveVisitor struct {
	ID           string `json:"id" yaml:"id"`
	LastSeen     int64  `json:"lastSeen" yaml:"lastSeen"`
	CurrentPage  string `json:"currentPage" yaml:"currentPage"`
	UserAgent    string `json:"userAgent" yaml:"userAgent"`
	SessionStart int64  `json:"sessionStart" yaml:"sessionStart"`
	DeviceType   string `json:"deviceType,omitempty" yaml:"deviceType,omitempty"`
	LastSeenAgo  string `json:"lastSeenAgo,omitempty" yaml:"lastSeenAgo,omitempty"`
}

// SummaryStats 汇总统计
type SummaryStats struct {
	TotalEvents          int            `json:"totalEvents" yaml:"totalEvents"`
	UniqueUserCount      int            `json:"uniqueUserCount" yaml:"uniqueUserCount"`
	UniqueSessionCount   int            `json:"uniqueSessionCount" yaml:"uniqueSessionCount"`
	PageViewCounts       map[string]int `json:"pageViewCounts" yaml:"pageViewCounts"`
	FormSubmissionCounts map[string]int `json:"formSubmissionCounts" yaml:"formSubmissionCounts"`
	EventsInLastWeek     int            `json:"eventsInLastWeek" yaml:"eventsInLastWeek"`
}

// Dashboard 看板
type Dashboard struct {
	Stats           *SummaryStats  `json:"stats" yaml:"stats"`
	CurrentVisitors int            `json:"currentVisitors" yaml:"currentVisitors"`
	LiveVisitors    []*LiveVisitor `json:"liveVisitors" yaml:"liveVisitors"`
	RecentActivity  []*Event       `json:"recentActivity" yaml:"recentActivity"`
	UpdatedAt       int64          `json:"updatedAt" yaml:"updatedAt"`
}

// Session 页面会话
type Session struct {
	SessionID string `json:"session_id"`
	Page      string `json:"page"`
}

type eventsResponse struct {
	Events []*Event `json:"events"`
}

type visitorsResponse struct {
	Visitors []*LiveVisitor `json:"visitors"`
	Count    int            `json:"count"`
}

// AnalyticsClient analytics-service 客户端
type AnalyticsClient struct {
	*BaseClient
	userAgent string
}

// NewAnalyticsClient 创建 analytics-service 客户端
func NewAnalyticsClient(baseURL string, timeout time.Duration) *AnalyticsClient {
	return &AnalyticsClient{
		BaseClient: NewBaseClient(BaseClientConfig{
			ServiceName: "analytics-service",
			BaseURL:     baseURL,
			Timeout:     timeout,
		}),
		userAgent: "veloractl",
	}
}

// Track 使用服务级会话记录事件
func (c *AnalyticsClient) Track(ctx context.Context, eventType string, data map[string]interface{}) error {
	body := map[string]interface{}{"type": eventType, "data": data}
	return c.Post(ctx, "/api/v1/analytics/events", body, nil)
}

// OpenSession 开启页面会话
func (c *AnalyticsClient) OpenSession(ctx context.Context, pageURL string) (*Session, error) {
	var s Session
	body := map[string]string{"page_url": pageURL, "user_agent": c.userAgent}
	if err := c.Post(ctx, "/api/v1/analytics/sessions", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Heartbeat 会话心跳
func (c *AnalyticsClient) Heartbeat(ctx context.Context, sessionID, pageURL string) (*LiveVisitor, error) {
	var v LiveVisitor
	body := map[string]string{"page_url": pageURL}
	if err := c.Post(ctx, sessionPath(sessionID)+"/heartbeat", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CloseSession 关闭会话
func (c *AnalyticsClient) CloseSession(ctx context.Context, sessionID string) error {
	return c.Delete(ctx, sessionPath(sessionID))
}

// Stats 汇总统计
func (c *AnalyticsClient) Stats(ctx context.Context) (*SummaryStats, error) {
	var s SummaryStats
	if err := c.Get(ctx, "/api/v1/analytics/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Dashboard 看板
func (c *AnalyticsClient) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := c.Get(ctx, "/api/v1/analytics/dashboard", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Visitors 在线访客
func (c *AnalyticsClient) Visitors(ctx context.Context) ([]*LiveVisitor, error) {
	var resp visitorsResponse
	if err := c.Get(ctx, "/api/v1/analytics/visitors", &resp); err != nil {
		return nil, err
	}
	return resp.Visitors, nil
}

// RecentActivity 最近事件
func (c *AnalyticsClient) RecentActivity(ctx context.Context, limit int) ([]*Event, error) {
	var resp eventsResponse
	if err := c.Get(ctx, fmt.Sprintf("/api/v1/analytics/activity?limit=%d", limit), &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// Export 导出原始 JSON，format 为 bundle 或 events
func (c *AnalyticsClient) Export(ctx context.Context, format string) ([]byte, error) {
	if format == "" {
		format = "bundle"
	}
	return c.GetRaw(ctx, "/api/v1/analytics/export?format="+url.QueryEscape(format))
}

// ClearAll 清空事件日志、身份和在线访客
func (c *AnalyticsClient) ClearAll(ctx context.Context) error {
	return c.Delete(ctx, "/api/v1/analytics/data")
}

func sessionPath(id string) string {
	return "/api/v1/analytics/sessions/" + url.PathEscape(id)
}
