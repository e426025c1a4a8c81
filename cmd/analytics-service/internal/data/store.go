package data

import (
	"context"
	"fmt"
	"time"

	"velora/cmd/analytics-service/internal/conf"
	"velora/cmd/analytics-service/internal/domain"

	"go.uber.org/zap"
)

// NewStore 按配置创建存储，返回清理函数
func NewStore(cfg *conf.Config, logger *zap.Logger) (domain.KVStore, func(), error) {
	var (
		store domain.KVStore
		err   error
	)

	switch cfg.Store.Driver {
	case "", "memory":
		store = NewMemoryStore()
	case "sqlite":
		store, err = NewSQLiteStore(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
	case "redis":
		rs := NewRedisStore(cfg.Store.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			// 启动时不可用也继续运行，写入失败按事件丢失处理
			logger.Warn("Redis store not reachable at startup", zap.String("addr", cfg.Store.Redis.Addr), zap.Error(err))
		}
		store = rs
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	logger.Info("Analytics store initialized", zap.String("driver", cfg.Store.Driver))

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}
