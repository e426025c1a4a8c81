package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	pkgerrors "velora/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ReasonRateLimited 超限错误原因
const ReasonRateLimited = "RATE_LIMITED"

// Counter 固定窗口计数器
type Counter interface {
	// Incr 计数加一，返回窗口内计数和窗口剩余时间
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisCounter 基于 Redis 的计数器，多实例共享
type RedisCounter struct {
	client redis.Cmdable
}

// NewRedisCounter 创建 Redis 计数器
func NewRedisCounter(client redis.Cmdable) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr 实现 Counter
func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return incr.Val(), remaining, nil
}

// MemoryCounter 进程内计数器
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*counterWindow
	now     func() time.Time
}

type counterWindow struct {
	count   int64
	resetAt time.Time
}

// NewMemoryCounter 创建进程内计数器
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		windows: make(map[string]*counterWindow),
		now:     time.Now,
	}
}

// Incr 实现 Counter
func (m *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		// 顺带清理过期窗口
		for k, old := range m.windows {
			if !now.Before(old.resetAt) {
				delete(m.windows, k)
			}
		}
		w = &counterWindow{resetAt: now.Add(window)}
		m.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	Counter     Counter
	MaxRequests int           // 窗口内最大请求数
	Window      time.Duration // 时间窗口
	KeyPrefix   string        // 计数 key 前缀
}

// RateLimiterByIP IP 级别限流
// 计数器出错时放行
func RateLimiterByIP(config RateLimiterConfig) gin.HandlerFunc {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit_ip"
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 100
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.Counter == nil {
		config.Counter = NewMemoryCounter()
	}
	limit := strconv.Itoa(config.MaxRequests)

	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", config.KeyPrefix, c.ClientIP())

		count, resetIn, err := config.Counter.Incr(c.Request.Context(), key, config.Window)
		if err != nil {
			c.Next()
			return
		}

		remaining := int64(config.MaxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetIn).Unix(), 10))

		if count > int64(config.MaxRequests) {
			c.Header("Retry-After", strconv.Itoa(int(resetIn.Seconds()+0.5)))
			resp := pkgerrors.NewErrorResponse(ReasonRateLimited, "too many requests").
				WithStatus(http.StatusTooManyRequests).
				WithPath(c.Request.URL.Path).
				WithMethod(c.Request.Method)
			c.AbortWithStatusJSON(resp.GetHTTPStatus(), resp)
			return
		}

		c.Next()
	}
}
