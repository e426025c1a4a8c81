package service

import (
	"context"
	"fmt"

	"velora/cmd/analytics-service/internal/biz"
	"velora/cmd/analytics-service/internal/domain"
)

// AnalyticsService 分析服务实现
type AnalyticsService struct {
	agg       *biz.Aggregator
	presence  *biz.Presence
	sessions  *biz.SessionManager
	dashboard *biz.DashboardBuilder
	store     domain.KVStore
}

// NewAnalyticsService 创建分析服务
func NewAnalyticsService(
	agg *biz.Aggregator,
	presence *biz.Presence,
	sessions *biz.SessionManager,
	dashboard *biz.DashboardBuilder,
	store domain.KVStore,
) *AnalyticsService {
	return &AnalyticsService{
		agg:       agg,
		presence:  presence,
		sessions:  sessions,
		dashboard: dashboard,
		store:     store,
	}
}

// Start 加载日志并启动后台任务
func (s *AnalyticsService) Start(ctx context.Context) {
	s.agg.Init(ctx)
	s.sessions.Start(ctx)
}

// Stop 停止后台任务并释放资源
func (s *AnalyticsService) Stop(ctx context.Context) {
	s.sessions.Stop()
	s.agg.Dispose(ctx)
}

// Track 使用服务级会话记录事件
func (s *AnalyticsService) Track(ctx context.Context, eventType string, data map[string]interface{}) error {
	t, err := domain.ParseEventType(eventType)
	if err != nil {
		return err
	}
	s.agg.Record(ctx, t, data)
	return nil
}

// OpenSession 开启页面会话并记录首次页面浏览
func (s *AnalyticsService) OpenSession(ctx context.Context, client domain.ClientInfo, referrer, title string) (*biz.Session, error) {
	session := s.sessions.Open(client)
	session.Tracker().PageView(ctx, session.CurrentPath(), referrer, title)

	// 在线状态尽力而为，失败已在 Presence 中记录
	_ = s.presence.Heartbeat(ctx, session.Visitor(ctx))
	return session, nil
}

// TrackSession 在指定会话中记录事件
func (s *AnalyticsService) TrackSession(ctx context.Context, sessionID, eventType string, data map[string]interface{}) error {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	t, err := domain.ParseEventType(eventType)
	if err != nil {
		return err
	}
	session.Record(ctx, t, data)
	return nil
}

// Navigate 会话切换页面并记录浏览
func (s *AnalyticsService) Navigate(ctx context.Context, sessionID, pageURL, referrer, title string) error {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	session.Navigate(pageURL)
	session.Tracker().PageView(ctx, session.CurrentPath(), referrer, title)
	return nil
}

// Heartbeat 会话心跳，可附带当前页面
func (s *AnalyticsService) Heartbeat(ctx context.Context, sessionID, pageURL string) (*domain.LiveVisitor, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	session.Navigate(pageURL)

	visitor := session.Visitor(ctx)
	if err := s.presence.Heartbeat(ctx, visitor); err != nil {
		return nil, err
	}
	return visitor, nil
}

// CloseSession 关闭会话
func (s *AnalyticsService) CloseSession(ctx context.Context, sessionID string) error {
	return s.sessions.Close(sessionID)
}

// Events 事件列表，eventType 为空时返回全部
func (s *AnalyticsService) Events(ctx context.Context, eventType string) ([]*domain.Event, error) {
	if eventType == "" {
		return s.agg.Events(), nil
	}
	t, err := domain.ParseEventType(eventType)
	if err != nil {
		return nil, err
	}
	return s.agg.EventsByType(t), nil
}

// RecentActivity 最近事件
func (s *AnalyticsService) RecentActivity(ctx context.Context, limit int) []*domain.Event {
	return s.agg.RecentActivity(limit)
}

// PageViewCounts 页面浏览统计
func (s *AnalyticsService) PageViewCounts(ctx context.Context) map[string]int {
	return s.agg.PageViewCounts()
}

// FormSubmissionCounts 表单提交统计
func (s *AnalyticsService) FormSubmissionCounts(ctx context.Context) map[string]int {
	return s.agg.FormSubmissionCounts()
}

// SummaryStats 汇总统计
func (s *AnalyticsService) SummaryStats(ctx context.Context) *domain.SummaryStats {
	return s.agg.SummaryStats()
}

// LiveVisitors 在线访客
func (s *AnalyticsService) LiveVisitors(ctx context.Context) []*domain.LiveVisitor {
	return s.presence.Active(ctx)
}

// Dashboard 仪表盘
func (s *AnalyticsService) Dashboard(ctx context.Context) *domain.Dashboard {
	return s.dashboard.Build(ctx)
}

// ExportEvents 事件日志原始导出
func (s *AnalyticsService) ExportEvents(ctx context.Context) string {
	return s.agg.ExportAll()
}

// ExportBundle 导出包
func (s *AnalyticsService) ExportBundle(ctx context.Context) *domain.ExportBundle {
	return s.dashboard.ExportBundle(ctx)
}

// ClearAll 清空全部分析数据
func (s *AnalyticsService) ClearAll(ctx context.Context) error {
	return s.dashboard.ClearAll(ctx)
}

// Ping 存储连通性
func (s *AnalyticsService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
