package domain

import "time"

// LiveVisitor 在线访客心跳记录
type LiveVisitor struct {
	ID           string `json:"id"` // 用户ID，同一用户多个页面共用一条记录
	LastSeen     int64  `json:"lastSeen"`
	CurrentPage  string `json:"currentPage"`
	UserAgent    string `json:"userAgent"`
	SessionStart int64  `json:"sessionStart"`
}

// IsActive 在宽限期内视为在线
func (v *LiveVisitor) IsActive(now time.Time, grace time.Duration) bool {
	return now.UnixMilli()-v.LastSeen < grace.Milliseconds()
}
