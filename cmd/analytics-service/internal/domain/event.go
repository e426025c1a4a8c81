package domain

import (
	"fmt"
	"time"
)

// EventType 事件类型（封闭枚举）
type EventType string

const (
	EventTypePageView         EventType = "page_view"
	EventTypeFormSubmit       EventType = "form_submit"
	EventTypeButtonClick      EventType = "button_click"
	EventTypeDemoRequest      EventType = "demo_request"
	EventTypePricingSelection EventType = "pricing_selection"
)

// EventTypes 全部事件类型
var EventTypes = []EventType{
	EventTypePageView,
	EventTypeFormSubmit,
	EventTypeButtonClick,
	EventTypeDemoRequest,
	EventTypePricingSelection,
}

// ParseEventType 解析事件类型
func ParseEventType(s string) (EventType, error) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEventType, s)
}

// 事件数据中的环境字段
const (
	DataKeySessionID = "sessionId"
	DataKeyUserID    = "userId"
	DataKeyPath      = "path"
	DataKeyFormName  = "formName"
)

// UnknownGroup 分组字段缺失时使用的键
const UnknownGroup = "(unknown)"

// Event 分析事件
// JSON 字段名与导出格式保持一致
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"` // 毫秒
	UserAgent string                 `json:"userAgent"`
	URL       string                 `json:"url"`
}

// OccurredAt 事件发生时间
func (e *Event) OccurredAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// DataString 读取字符串字段，缺失或非字符串返回 false
func (e *Event) DataString(key string) (string, bool) {
	if e.Data == nil {
		return "", false
	}
	v, ok := e.Data[key].(string)
	return v, ok
}

// SessionID 事件的会话ID
func (e *Event) SessionID() string {
	v, _ := e.DataString(DataKeySessionID)
	return v
}

// UserID 事件的用户ID
func (e *Event) UserID() string {
	v, _ := e.DataString(DataKeyUserID)
	return v
}

// ClientInfo 记录事件时的客户端信息
type ClientInfo struct {
	UserAgent string `json:"user_agent"`
	PageURL   string `json:"page_url"`
}
