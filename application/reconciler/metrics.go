package reconciler

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 对账指标
type Metrics interface {
	ObserveRun(result RunResult)
}

type NopMetrics struct{}

func (NopMetrics) ObserveRun(RunResult) {}

// MultiMetrics 同时写入多个指标实现
type MultiMetrics []Metrics

func (m MultiMetrics) ObserveRun(result RunResult) {
	for _, metrics := range m {
		metrics.ObserveRun(result)
	}
}

// Snapshot 累计值与最近一轮结果
type Snapshot struct {
	Runs          int64
	ScannedTotal  int64
	CanceledTotal int64
	FailedTotal   int64
	ScanFailures  int64
	LastRun       RunResult
}

// InMemoryMetrics 进程内指标
type InMemoryMetrics struct {
	mu       sync.Mutex
	snapshot Snapshot
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{}
}

func (m *InMemoryMetrics) ObserveRun(result RunResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot.Runs++
	m.snapshot.ScannedTotal += int64(result.Scanned)
	m.snapshot.CanceledTotal += int64(result.Canceled)
	m.snapshot.FailedTotal += int64(result.Failed)
	if result.ScanFailed {
		m.snapshot.ScanFailures++
	}
	m.snapshot.LastRun = result
}

func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// PrometheusMetrics 导出到 /metrics
type PrometheusMetrics struct {
	scanned      prometheus.Counter
	canceled     prometheus.Counter
	skipped      prometheus.Counter
	failed       prometheus.Counter
	scanFailures prometheus.Counter
	duration     prometheus.Histogram
}

// NewPrometheusMetrics reg 为 nil 时注册到默认 registry
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		scanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "order_reconciler_scanned_total",
			Help: "超时对账扫描到的订单数",
		}),
		canceled: factory.NewCounter(prometheus.CounterOpts{
			Name: "order_reconciler_canceled_total",
			Help: "超时对账取消的订单数",
		}),
		skipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "order_reconciler_skipped_total",
			Help: "已被其他路径处理、无需取消的订单数",
		}),
		failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "order_reconciler_failed_total",
			Help: "取消失败的订单数",
		}),
		scanFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "order_reconciler_scan_failures_total",
			Help: "扫描过期订单失败的轮数",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "order_reconciler_run_duration_seconds",
			Help:    "每轮对账耗时（秒）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *PrometheusMetrics) ObserveRun(result RunResult) {
	m.scanned.Add(float64(result.Scanned))
	m.canceled.Add(float64(result.Canceled))
	m.skipped.Add(float64(result.Skipped))
	m.failed.Add(float64(result.Failed))
	if result.ScanFailed {
		m.scanFailures.Inc()
	}
	m.duration.Observe(result.Duration.Seconds())
}

var (
	_ Metrics = NopMetrics{}
	_ Metrics = MultiMetrics(nil)
	_ Metrics = (*InMemoryMetrics)(nil)
	_ Metrics = (*PrometheusMetrics)(nil)
)
