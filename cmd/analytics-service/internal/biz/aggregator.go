package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"velora/cmd/analytics-service/internal/conf"
	"velora/cmd/analytics-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMaxEvents   = 1000
	defaultRecentLimit = 20
	lastWeekWindow     = 7 * 24 * time.Hour
)

// Aggregator 事件日志聚合器
// 持有内存中的事件日志，每次写入后同步持久化到 KVStore
type Aggregator struct {
	mu     sync.RWMutex
	store  domain.KVStore
	sink   domain.EventSink
	logger *zap.Logger

	maxEvents    int
	recentLimit  int
	maxDataBytes int

	events    []*domain.Event
	userID    string
	sessionID string
	client    domain.ClientInfo

	now   func() time.Time
	newID func() string
}

// NewAggregator 创建聚合器，使用前需调用 Init
func NewAggregator(cfg *conf.Config, store domain.KVStore, sink domain.EventSink, logger *zap.Logger) *Aggregator {
	a := &Aggregator{
		store:        store,
		sink:         sink,
		logger:       logger.With(zap.String("component", "aggregator")),
		maxEvents:    cfg.Analytics.MaxEvents,
		recentLimit:  cfg.Analytics.RecentLimit,
		maxDataBytes: cfg.Analytics.MaxDataBytes,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	if a.maxEvents <= 0 {
		a.maxEvents = defaultMaxEvents
	}
	if a.recentLimit <= 0 {
		a.recentLimit = defaultRecentLimit
	}
	return a
}

// Init 加载持久化日志并确定用户与会话标识
// 存储读取失败或数据损坏时以空日志启动
func (a *Aggregator) Init(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// 1. 加载事件日志
	a.events = a.loadEvents(ctx)
	eventLogSize.Set(float64(len(a.events)))

	// 2. 用户ID（跨会话稳定）
	if v, ok, err := a.store.Get(ctx, domain.KeyUserID); err != nil {
		a.logger.Warn("Failed to load user id", zap.Error(err))
	} else if ok && v != "" {
		a.userID = v
	}
	a.ensureUserID(ctx)

	// 3. 会话ID（仅内存）
	a.sessionID = a.newID()

	a.logger.Info("Aggregator initialized",
		zap.Int("events", len(a.events)),
		zap.String("user_id", a.userID),
		zap.String("session_id", a.sessionID),
	)
}

// Dispose 释放资源
func (a *Aggregator) Dispose(ctx context.Context) {
	if a.sink == nil {
		return
	}
	if err := a.sink.Close(); err != nil {
		a.logger.Warn("Failed to close event sink", zap.Error(err))
	}
}

// SetClientInfo 设置环境客户端信息（Record 使用）
func (a *Aggregator) SetClientInfo(client domain.ClientInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = client
}

// UserID 当前用户ID，清除后为空直到下一次写入
func (a *Aggregator) UserID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userID
}

// VisitorID 在线访客标识，即跨会话稳定的用户ID
// 清除后的首次调用重新生成
func (a *Aggregator) VisitorID(ctx context.Context) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ensureUserID(ctx)
	return a.userID
}

// SessionID 进程级会话ID
func (a *Aggregator) SessionID() string {
	return a.sessionID
}

// Record 使用环境会话记录事件，从不返回错误
func (a *Aggregator) Record(ctx context.Context, eventType domain.EventType, data map[string]interface{}) {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()
	a.record(ctx, a.sessionID, client, eventType, data)
}

// Tracker 环境会话的便捷记录方法
func (a *Aggregator) Tracker() Tracker {
	return Tracker{record: a.Record}
}

// record 追加事件、截断并同步持久化，释放锁后再转发
func (a *Aggregator) record(ctx context.Context, sessionID string, client domain.ClientInfo, eventType domain.EventType, data map[string]interface{}) *domain.Event {
	event := a.appendEvent(ctx, sessionID, client, eventType, data)
	if event == nil {
		return nil
	}

	// 外部转发不占用日志锁
	if a.sink != nil {
		if err := a.sink.Forward(ctx, cloneEvent(event)); err != nil {
			a.logger.Warn("Failed to forward event", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	return event
}

// appendEvent 在写锁内完成合并、追加、截断与持久化
func (a *Aggregator) appendEvent(ctx context.Context, sessionID string, client domain.ClientInfo, eventType domain.EventType, data map[string]interface{}) *domain.Event {
	// 1. 合并环境字段
	merged := make(map[string]interface{}, len(data)+2)
	for k, v := range data {
		merged[k] = v
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.ensureUserID(ctx)
	merged[domain.DataKeySessionID] = sessionID
	merged[domain.DataKeyUserID] = a.userID

	// 2. 数据必须可序列化
	encoded, err := json.Marshal(merged)
	if err != nil {
		eventsDropped.WithLabelValues("unencodable").Inc()
		a.logger.Warn("Dropping event with unencodable data", zap.String("type", string(eventType)), zap.Error(err))
		return nil
	}
	if a.maxDataBytes > 0 && len(encoded) > a.maxDataBytes {
		eventsDropped.WithLabelValues("too_large").Inc()
		a.logger.Warn("Dropping oversized event", zap.String("type", string(eventType)), zap.Int("bytes", len(encoded)))
		return nil
	}

	event := &domain.Event{
		ID:        a.newID(),
		Type:      eventType,
		Data:      merged,
		Timestamp: a.now().UnixMilli(),
		UserAgent: client.UserAgent,
		URL:       client.PageURL,
	}

	// 3. 追加并保留最近 maxEvents 条
	a.events = append(a.events, event)
	if len(a.events) > a.maxEvents {
		trimmed := make([]*domain.Event, a.maxEvents)
		copy(trimmed, a.events[len(a.events)-a.maxEvents:])
		a.events = trimmed
	}
	eventsRecorded.WithLabelValues(string(eventType)).Inc()
	eventLogSize.Set(float64(len(a.events)))

	// 4. 同步持久化，失败视为该次写入丢失
	a.persistEvents(ctx)

	a.logger.Debug("Analytics event recorded",
		zap.String("event_id", event.ID),
		zap.String("type", string(eventType)),
		zap.String("session_id", sessionID),
	)
	return event
}

// ensureUserID 清除后的首次写入重新生成用户ID，调用方需持有写锁
func (a *Aggregator) ensureUserID(ctx context.Context) {
	if a.userID != "" {
		return
	}
	a.userID = a.newID()
	if err := a.store.Set(ctx, domain.KeyUserID, a.userID); err != nil {
		persistFailures.WithLabelValues(domain.KeyUserID).Inc()
		a.logger.Warn("Failed to persist user id", zap.Error(err))
	}
}

// persistEvents 调用方需持有写锁
func (a *Aggregator) persistEvents(ctx context.Context) {
	payload, err := json.Marshal(a.events)
	if err != nil {
		persistFailures.WithLabelValues(domain.KeyEvents).Inc()
		a.logger.Error("Failed to encode event log", zap.Error(err))
		return
	}
	if err := a.store.Set(ctx, domain.KeyEvents, string(payload)); err != nil {
		persistFailures.WithLabelValues(domain.KeyEvents).Inc()
		a.logger.Warn("Failed to persist event log",
			zap.Int("events", len(a.events)),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)),
		)
	}
}

// loadEvents 调用方需持有写锁
func (a *Aggregator) loadEvents(ctx context.Context) []*domain.Event {
	raw, ok, err := a.store.Get(ctx, domain.KeyEvents)
	if err != nil {
		a.logger.Warn("Failed to load event log, starting empty", zap.Error(err))
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var events []*domain.Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		a.logger.Warn("Persisted event log is malformed, starting empty",
			zap.Error(fmt.Errorf("%w: %v", domain.ErrMalformedData, err)))
		return nil
	}

	valid := events[:0]
	for _, e := range events {
		if e != nil {
			valid = append(valid, e)
		}
	}
	if len(valid) > a.maxEvents {
		valid = valid[len(valid)-a.maxEvents:]
	}
	return valid
}

// EventsByType 指定类型的全部事件
func (a *Aggregator) EventsByType(eventType domain.EventType) []*domain.Event {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]*domain.Event, 0)
	for _, e := range a.events {
		if e.Type == eventType {
			result = append(result, cloneEvent(e))
		}
	}
	return result
}

// Events 全部事件（追加顺序）
func (a *Aggregator) Events() []*domain.Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot()
}

// PageViewCounts 按路径统计页面浏览
func (a *Aggregator) PageViewCounts() map[string]int {
	return a.countBy(domain.EventTypePageView, domain.DataKeyPath)
}

// FormSubmissionCounts 按表单名统计提交
func (a *Aggregator) FormSubmissionCounts() map[string]int {
	return a.countBy(domain.EventTypeFormSubmit, domain.DataKeyFormName)
}

func (a *Aggregator) countBy(eventType domain.EventType, field string) map[string]int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return countEvents(a.events, eventType, field)
}

// RecentActivity 按时间倒序的最近事件，limit<=0 时使用默认值
// 时间戳相同时后写入的在前
func (a *Aggregator) RecentActivity(limit int) []*domain.Event {
	if limit <= 0 {
		limit = a.recentLimit
	}

	a.mu.RLock()
	events := a.snapshot()
	a.mu.RUnlock()

	// 先反转为写入倒序，稳定排序保证同一时间戳的相对顺序
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})

	if len(events) > limit {
		events = events[:limit]
	}
	return events
}

// SummaryStats 汇总统计
func (a *Aggregator) SummaryStats() *domain.SummaryStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	users := make(map[string]struct{})
	sessions := make(map[string]struct{})
	cutoff := a.now().Add(-lastWeekWindow).UnixMilli()
	lastWeek := 0

	for _, e := range a.events {
		if id := e.UserID(); id != "" {
			users[id] = struct{}{}
		}
		if id := e.SessionID(); id != "" {
			sessions[id] = struct{}{}
		}
		if e.Timestamp > cutoff {
			lastWeek++
		}
	}

	return &domain.SummaryStats{
		TotalEvents:          len(a.events),
		UniqueUserCount:      len(users),
		UniqueSessionCount:   len(sessions),
		PageViewCounts:       countEvents(a.events, domain.EventTypePageView, domain.DataKeyPath),
		FormSubmissionCounts: countEvents(a.events, domain.EventTypeFormSubmit, domain.DataKeyFormName),
		EventsInLastWeek:     lastWeek,
	}
}

// ExportAll 完整日志的 JSON 文本
func (a *Aggregator) ExportAll() string {
	a.mu.RLock()
	events := a.snapshot()
	a.mu.RUnlock()

	out, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		// 日志中的数据在写入时已校验
		a.logger.Error("Failed to export event log", zap.Error(err))
		return "[]"
	}
	return string(out)
}

// ClearAll 清空日志并删除持久化的标识
// 内存状态总会被清空，存储删除失败时返回错误
func (a *Aggregator) ClearAll(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.events = nil
	a.userID = ""
	eventLogSize.Set(0)

	if err := a.store.Remove(ctx, domain.KeyEvents, domain.KeyUserID, domain.KeySessionStart); err != nil {
		persistFailures.WithLabelValues("clear").Inc()
		a.logger.Warn("Failed to clear persisted analytics", zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	a.logger.Info("Analytics data cleared")
	return nil
}

// SessionStart 首次访问时间（毫秒），不存在时写入当前时间
func (a *Aggregator) SessionStart(ctx context.Context) int64 {
	if v, ok, err := a.store.Get(ctx, domain.KeySessionStart); err == nil && ok {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			return ts
		}
	}

	ts := a.now().UnixMilli()
	if err := a.store.Set(ctx, domain.KeySessionStart, strconv.FormatInt(ts, 10)); err != nil {
		persistFailures.WithLabelValues(domain.KeySessionStart).Inc()
		a.logger.Warn("Failed to persist session start", zap.Error(err))
	}
	return ts
}

// snapshot 调用方需持有读锁
func (a *Aggregator) snapshot() []*domain.Event {
	events := make([]*domain.Event, len(a.events))
	for i, e := range a.events {
		events[i] = cloneEvent(e)
	}
	return events
}

func countEvents(events []*domain.Event, eventType domain.EventType, field string) map[string]int {
	counts := make(map[string]int)
	for _, e := range events {
		if e.Type != eventType {
			continue
		}
		key, ok := e.DataString(field)
		if !ok || key == "" {
			key = domain.UnknownGroup
		}
		counts[key]++
	}
	return counts
}

// cloneEvent 深拷贝 Data，返回值可由调用方修改
func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	c.Data = cloneValue(e.Data).(map[string]interface{})
	return &c
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if t == nil {
			return t
		}
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []interface{}:
		if t == nil {
			return t
		}
		s := make([]interface{}, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}
