package biz

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"velora/cmd/analytics-service/internal/domain"
)

var (
	mobileUA = regexp.MustCompile(`Mobile|Android|iPhone|iPad`)
	tabletUA = regexp.MustCompile(`Tablet`)
)

// DeviceType 根据 User-Agent 粗略判断设备类型
func DeviceType(userAgent string) string {
	switch {
	case mobileUA.MatchString(userAgent):
		return "Mobile"
	case tabletUA.MatchString(userAgent):
		return "Tablet"
	default:
		return "Desktop"
	}
}

// FormatTimeAgo 相对时间，如 "42s ago"、"3m ago"
func FormatTimeAgo(now time.Time, timestampMs int64) string {
	seconds := (now.UnixMilli() - timestampMs) / 1000
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	default:
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
}

// ExportFileName 导出文件名
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("velora-analytics-%s.json", now.UTC().Format("2006-01-02"))
}

// DashboardBuilder 组装仪表盘与导出包
type DashboardBuilder struct {
	agg      *Aggregator
	presence *Presence
	now      func() time.Time
}

// NewDashboardBuilder 创建仪表盘构建器
func NewDashboardBuilder(agg *Aggregator, presence *Presence) *DashboardBuilder {
	return &DashboardBuilder{agg: agg, presence: presence, now: time.Now}
}

// Build 当前仪表盘
func (b *DashboardBuilder) Build(ctx context.Context) *domain.Dashboard {
	now := b.now()
	active := b.presence.Active(ctx)

	views := make([]*domain.VisitorView, 0, len(active))
	for _, v := range active {
		views = append(views, &domain.VisitorView{
			LiveVisitor: *v,
			DeviceType:  DeviceType(v.UserAgent),
			LastSeenAgo: FormatTimeAgo(now, v.LastSeen),
		})
	}

	return &domain.Dashboard{
		Stats:           b.agg.SummaryStats(),
		CurrentVisitors: len(active),
		LiveVisitors:    views,
		RecentActivity:  b.agg.RecentActivity(0),
		UpdatedAt:       now.UnixMilli(),
	}
}

// ExportBundle 事件日志与在线访客的导出包
func (b *DashboardBuilder) ExportBundle(ctx context.Context) *domain.ExportBundle {
	return &domain.ExportBundle{
		Analytics:    b.agg.Events(),
		LiveVisitors: b.presence.Active(ctx),
		ExportDate:   b.now().UTC().Format(time.RFC3339),
	}
}

// ClearAll 清空事件日志、身份标识与在线访客
func (b *DashboardBuilder) ClearAll(ctx context.Context) error {
	aggErr := b.agg.ClearAll(ctx)
	presenceErr := b.presence.Clear(ctx)
	if aggErr != nil {
		return aggErr
	}
	return presenceErr
}
