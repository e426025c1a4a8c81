package biz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// eventsRecorded 已记录事件数
	eventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "velora_analytics_events_recorded_total",
			Help: "Total number of analytics events recorded",
		},
		[]string{"type"},
	)

	// eventsDropped 丢弃事件数
	eventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "velora_analytics_events_dropped_total",
			Help: "Total number of analytics events dropped before logging",
		},
		[]string{"reason"},
	)

	// persistFailures 持久化失败次数
	persistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "velora_analytics_persist_failures_total",
			Help: "Total number of failed writes to the analytics store",
		},
		[]string{"key"},
	)

	// eventLogSize 内存事件日志长度
	eventLogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "velora_analytics_event_log_size",
			Help: "Number of events currently held in the event log",
		},
	)
)
