package biz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RepliesTotal 按来源统计的回复数
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velora_assistant",
			Subsystem: "engine",
			Name:      "replies_total",
			Help:      "Total number of replies by source",
		},
		[]string{"source", "rule"},
	)

	// RemoteDuration 远程生成耗时
	RemoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "velora_assistant",
			Subsystem: "remote",
			Name:      "duration_seconds",
			Help:      "Remote text generation latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"status"},
	)

	// RemoteFailuresTotal 按分类统计的远程失败
	RemoteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velora_assistant",
			Subsystem: "remote",
			Name:      "failures_total",
			Help:      "Total number of remote generation failures by kind",
		},
		[]string{"kind"},
	)

	// ConversationsActive 内存中的会话数
	ConversationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "velora_assistant",
			Subsystem: "conversation",
			Name:      "active",
			Help:      "Number of conversations held in memory",
		},
	)
)
