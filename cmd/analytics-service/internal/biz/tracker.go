package biz

import (
	"context"

	"velora/cmd/analytics-service/internal/domain"
)

// Tracker 常用事件的便捷记录方法
type Tracker struct {
	record func(ctx context.Context, eventType domain.EventType, data map[string]interface{})
}

// PageView 页面浏览
func (t Tracker) PageView(ctx context.Context, path, referrer, title string) {
	t.record(ctx, domain.EventTypePageView, map[string]interface{}{
		"path":     path,
		"referrer": referrer,
		"title":    title,
	})
}

// FormSubmit 表单提交
func (t Tracker) FormSubmit(ctx context.Context, formName string, formData map[string]interface{}) {
	t.record(ctx, domain.EventTypeFormSubmit, map[string]interface{}{
		"formName": formName,
		"formData": formData,
	})
}

// ButtonClick 按钮点击
func (t Tracker) ButtonClick(ctx context.Context, buttonName, section string) {
	t.record(ctx, domain.EventTypeButtonClick, map[string]interface{}{
		"buttonName": buttonName,
		"section":    section,
	})
}

// DemoRequest 预约演示
func (t Tracker) DemoRequest(ctx context.Context, companyName, companySize string) {
	t.record(ctx, domain.EventTypeDemoRequest, map[string]interface{}{
		"companyName": companyName,
		"companySize": companySize,
	})
}

// PricingSelection 选择价格方案
func (t Tracker) PricingSelection(ctx context.Context, plan string) {
	t.record(ctx, domain.EventTypePricingSelection, map[string]interface{}{
		"plan": plan,
	})
}
