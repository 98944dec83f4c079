package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 后端调用延迟（毫秒）
	BackendCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_call_latency_ms",
			Help:    "Routine backend call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"endpoint", "status"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 打卡切换结果计数
	ToggleCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routine_toggle_count",
			Help: "Total number of item toggles by outcome",
		},
		[]string{"outcome"}, // outcome: committed, rolled_back, rejected
	)

	// 整天完成记录计数
	DayRecordCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routine_day_record_count",
			Help: "Total number of day-level record marks",
		},
		[]string{"outcome"}, // outcome: marked, conflict, failed
	)

	// 转盘抽奖计数
	SpinCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_spin_count",
			Help: "Total number of prize wheel spins",
		},
		[]string{"outcome"}, // outcome: confirmed, rejected, duplicate
	)

	// 连续打卡里程碑通知计数
	MilestoneCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_milestone_count",
			Help: "Total number of streak milestone notifications",
		},
	)
)

// RecordBackendCallLatency 记录后端调用延迟
func RecordBackendCallLatency(endpoint, status string, duration time.Duration) {
	BackendCallLatency.WithLabelValues(endpoint, status).Observe(float64(duration.Milliseconds()))
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementToggle 增加打卡切换计数
func IncrementToggle(outcome string) {
	ToggleCount.WithLabelValues(outcome).Inc()
}

// IncrementDayRecord 增加整天记录计数
func IncrementDayRecord(outcome string) {
	DayRecordCount.WithLabelValues(outcome).Inc()
}

// IncrementSpin 增加抽奖计数
func IncrementSpin(outcome string) {
	SpinCount.WithLabelValues(outcome).Inc()
}

// IncrementMilestone 增加里程碑通知计数
func IncrementMilestone() {
	MilestoneCount.Inc()
}
