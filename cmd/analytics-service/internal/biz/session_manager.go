package biz

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"velora/cmd/analytics-service/internal/conf"
	"velora/cmd/analytics-service/internal/domain"

	"go.uber.org/zap"
)

const defaultSessionIdleTTL = 30 * time.Minute

// SessionManager 管理打开中的页面会话
// 长时间无活动的会话由后台清理
type SessionManager struct {
	agg    *Aggregator
	logger *zap.Logger
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewSessionManager 创建会话管理器
func NewSessionManager(cfg *conf.Config, agg *Aggregator, logger *zap.Logger) *SessionManager {
	ttl := cfg.Presence.SessionIdleTTL
	if ttl <= 0 {
		ttl = defaultSessionIdleTTL
	}
	return &SessionManager{
		agg:      agg,
		logger:   logger.With(zap.String("component", "session_manager")),
		ttl:      ttl,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Open 开启会话
func (m *SessionManager) Open(client domain.ClientInfo) *Session {
	s := m.agg.NewSession(client)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("Session opened", zap.String("session_id", s.ID))
	return s
}

// Get 获取会话
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Close 关闭会话，在线记录按宽限期自然过期
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Count 打开中的会话数
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Start 启动后台清理
func (m *SessionManager) Start(ctx context.Context) {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	go m.cleanupLoop(ctx)
}

// Stop 停止后台清理
func (m *SessionManager) Stop() {
	if !m.started.Load() {
		return
	}
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	<-m.done
}

func (m *SessionManager) cleanupLoop(ctx context.Context) {
	defer close(m.done)

	interval := m.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.purgeIdle()
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// purgeIdle 清理空闲会话
func (m *SessionManager) purgeIdle() int {
	cutoff := m.agg.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for id, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			delete(m.sessions, id)
			purged++
		}
	}
	if purged > 0 {
		m.logger.Info("Purged idle sessions", zap.Int("count", purged))
	}
	return purged
}
