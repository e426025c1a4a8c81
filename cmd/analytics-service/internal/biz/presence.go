package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"velora/cmd/analytics-service/internal/conf"
	"velora/cmd/analytics-service/internal/domain"

	"go.uber.org/zap"
)

const defaultPresenceGrace = 5 * time.Minute

// Presence 在线访客集合
// 尽力而为：跨实例的并发写可能互相覆盖，读取时按宽限期惰性过滤
type Presence struct {
	mu     sync.Mutex
	store  domain.KVStore
	grace  time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewPresence 创建在线访客集合
func NewPresence(cfg *conf.Config, store domain.KVStore, logger *zap.Logger) *Presence {
	grace := cfg.Presence.Grace
	if grace <= 0 {
		grace = defaultPresenceGrace
	}
	return &Presence{
		store:  store,
		grace:  grace,
		logger: logger.With(zap.String("component", "presence")),
		now:    time.Now,
	}
}

// Grace 宽限期
func (p *Presence) Grace() time.Duration {
	return p.grace
}

// Heartbeat 写入心跳：丢弃过期记录，按ID更新或追加
func (p *Presence) Heartbeat(ctx context.Context, visitor *domain.LiveVisitor) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	entry := *visitor
	entry.LastSeen = now.UnixMilli()

	// 1. 读取并过滤过期记录
	visitors := p.load(ctx)
	kept := make([]*domain.LiveVisitor, 0, len(visitors)+1)
	for _, v := range visitors {
		if v.ID == entry.ID || !v.IsActive(now, p.grace) {
			continue
		}
		kept = append(kept, v)
	}

	// 2. 更新当前访客
	kept = append(kept, &entry)

	// 3. 写回
	payload, err := json.Marshal(kept)
	if err != nil {
		p.logger.Error("Failed to encode live visitors", zap.String("visitor_id", entry.ID), zap.Error(err))
		return fmt.Errorf("encode live visitors: %w", err)
	}
	if err := p.store.Set(ctx, domain.KeyLiveVisitors, string(payload)); err != nil {
		p.logger.Warn("Failed to write heartbeat", zap.String("visitor_id", entry.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Active 宽限期内的访客
func (p *Presence) Active(ctx context.Context) []*domain.LiveVisitor {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	active := make([]*domain.LiveVisitor, 0)
	for _, v := range p.load(ctx) {
		if v.IsActive(now, p.grace) {
			active = append(active, v)
		}
	}
	return active
}

// Clear 删除全部访客记录
func (p *Presence) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Remove(ctx, domain.KeyLiveVisitors); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// load 读取失败或数据损坏时视为空集合，调用方需持有锁
func (p *Presence) load(ctx context.Context) []*domain.LiveVisitor {
	raw, ok, err := p.store.Get(ctx, domain.KeyLiveVisitors)
	if err != nil {
		p.logger.Warn("Failed to read live visitors", zap.Error(err))
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var visitors []*domain.LiveVisitor
	if err := json.Unmarshal([]byte(raw), &visitors); err != nil {
		p.logger.Warn("Live visitors record is malformed, treating as empty", zap.Error(err))
		return nil
	}

	valid := visitors[:0]
	for _, v := range visitors {
		if v != nil && v.ID != "" {
			valid = append(valid, v)
		}
	}
	return valid
}
