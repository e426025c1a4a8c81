package domain

import "errors"

var (
	// ErrStoreUnavailable 存储不可用（含配额耗尽）
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSessionNotFound 会话不存在
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidEventType 无效的事件类型
	ErrInvalidEventType = errors.New("invalid event type")

	// ErrMalformedData 持久化数据损坏
	ErrMalformedData = errors.New("malformed persisted data")
)
