package data

import (
	"velora/cmd/analytics-service/internal/domain"
	"velora/pkg/middleware"
)

// NewRateCounter 上报限流计数器，Redis 存储时多实例共享计数
func NewRateCounter(store domain.KVStore) middleware.Counter {
	if rs, ok := store.(*RedisStore); ok {
		return middleware.NewRedisCounter(rs.client)
	}
	return middleware.NewMemoryCounter()
}
