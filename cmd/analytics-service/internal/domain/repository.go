package domain

import "context"

// 存储键
const (
	KeyEvents       = "analytics_events"
	KeyUserID       = "analytics_user_id"
	KeySessionStart = "analytics_session_start"
	KeyLiveVisitors = "live_visitors"
)

// KVStore 持久化键值存储
type KVStore interface {
	// Get 不存在时返回 ok=false
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// EventSink 外部转发
type EventSink interface {
	Forward(ctx context.Context, event *Event) error
	Close() error
}
