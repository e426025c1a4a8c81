package domain

// SummaryStats 汇总统计
type SummaryStats struct {
	TotalEvents          int            `json:"totalEvents"`
	UniqueUserCount      int            `json:"uniqueUserCount"`
	UniqueSessionCount   int            `json:"uniqueSessionCount"`
	PageViewCounts       map[string]int `json:"pageViewCounts"`
	FormSubmissionCounts map[string]int `json:"formSubmissionCounts"`
	EventsInLastWeek     int            `json:"eventsInLastWeek"`
}

// VisitorView 仪表盘中的访客展示
type VisitorView struct {
	LiveVisitor
	DeviceType  string `json:"deviceType"`
	LastSeenAgo string `json:"lastSeenAgo"`
}

// Dashboard 仪表盘
type Dashboard struct {
	Stats           *SummaryStats  `json:"stats"`
	CurrentVisitors int            `json:"currentVisitors"`
	LiveVisitors    []*VisitorView `json:"liveVisitors"`
	RecentActivity  []*Event       `json:"recentActivity"`
	UpdatedAt       int64          `json:"updatedAt"`
}

// ExportBundle 导出包
type ExportBundle struct {
	Analytics    []*Event       `json:"analytics"`
	LiveVisitors []*LiveVisitor `json:"liveVisitors"`
	ExportDate   string         `json:"exportDate"`
}
