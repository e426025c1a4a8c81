package biz

import (
	"context"
	"net/url"
	"sync"
	"time"

	"velora/cmd/analytics-service/internal/domain"
)

// Session 一次页面生命周期
// 共享聚合器的日志与用户ID，拥有独立的会话ID
type Session struct {
	ID string

	agg *Aggregator

	mu         sync.RWMutex
	client     domain.ClientInfo
	lastActive time.Time
}

// NewSession 开启新会话
func (a *Aggregator) NewSession(client domain.ClientInfo) *Session {
	return &Session{
		ID:         a.newID(),
		agg:        a,
		client:     client,
		lastActive: a.now(),
	}
}

// Record 记录事件，从不返回错误
func (s *Session) Record(ctx context.Context, eventType domain.EventType, data map[string]interface{}) {
	s.mu.Lock()
	s.lastActive = s.agg.now()
	client := s.client
	s.mu.Unlock()

	s.agg.record(ctx, s.ID, client, eventType, data)
}

// Tracker 当前会话的便捷记录方法
func (s *Session) Tracker() Tracker {
	return Tracker{record: s.Record}
}

// Navigate 切换当前页面
func (s *Session) Navigate(pageURL string) {
	if pageURL == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client.PageURL = pageURL
	s.lastActive = s.agg.now()
}

// Client 当前客户端信息
func (s *Session) Client() domain.ClientInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// CurrentPath 当前页面路径
func (s *Session) CurrentPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pathOf(s.client.PageURL)
}

// IdleSince 最近活跃时间
func (s *Session) IdleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Visitor 当前会话的在线访客记录
func (s *Session) Visitor(ctx context.Context) *domain.LiveVisitor {
	s.mu.Lock()
	s.lastActive = s.agg.now()
	client := s.client
	s.mu.Unlock()

	return &domain.LiveVisitor{
		ID:           s.agg.VisitorID(ctx),
		CurrentPage:  pathOf(client.PageURL),
		UserAgent:    client.UserAgent,
		SessionStart: s.agg.SessionStart(ctx),
	}
}

// pathOf 取 URL 的路径部分，非 URL 原样返回
func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		if err == nil && u.Host != "" {
			return "/"
		}
		return raw
	}
	return u.Path
}
