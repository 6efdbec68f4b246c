package monitoring

import (
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"valcoin-api/internal/engine"
)

// SettlementMetrics exposes Prometheus counters for the settlement jobs and
// the HTTP surface.
type SettlementMetrics struct {
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	postedTotal  *prometheus.CounterVec
	skippedTotal *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	memoryUsageGauge    prometheus.Gauge
	goroutineCountGauge prometheus.Gauge
	uptimeGauge         prometheus.Gauge

	startTime time.Time
}

func NewSettlementMetrics() *SettlementMetrics {
	m := &SettlementMetrics{
		startTime: time.Now(),
	}

	m.runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valcoin_settlement_runs_total",
			Help: "Total number of settlement job runs",
		},
		[]string{"job", "outcome"},
	)

	m.runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "valcoin_settlement_run_duration_seconds",
			Help:    "Settlement job run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"job"},
	)

	m.postedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valcoin_settlement_postings_total",
			Help: "Total number of ledger postings made by settlement jobs",
		},
		[]string{"job"},
	)

	m.skippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valcoin_settlement_skips_total",
			Help: "Total number of entities skipped by settlement jobs",
		},
		[]string{"job"},
	)

	m.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valcoin_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	m.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "valcoin_api_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	m.memoryUsageGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "valcoin_api_memory_usage_bytes",
			Help: "Current memory usage in bytes",
		},
	)

	m.goroutineCountGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "valcoin_api_goroutines_count",
			Help: "Current number of goroutines",
		},
	)

	m.uptimeGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "valcoin_api_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	return m
}

// RecordRun accounts one settlement pass.
func (m *SettlementMetrics) RecordRun(summary *engine.RunSummary) {
	if summary == nil {
		return
	}
	m.runsTotal.WithLabelValues(summary.Job, summary.Outcome).Inc()
	m.runDuration.WithLabelValues(summary.Job).Observe(summary.Duration.Seconds())
	if summary.Posted > 0 {
		m.postedTotal.WithLabelValues(summary.Job).Add(float64(summary.Posted))
	}
	if summary.Skipped > 0 {
		m.skippedTotal.WithLabelValues(summary.Job).Add(float64(summary.Skipped))
	}
}

func (m *SettlementMetrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, fmt.Sprintf("%d", statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *SettlementMetrics) RecordSystemMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.memoryUsageGauge.Set(float64(memStats.Alloc))
	m.goroutineCountGauge.Set(float64(runtime.NumGoroutine()))
	m.uptimeGauge.Set(time.Since(m.startTime).Seconds())
}

// StartSystemMetricsRecording refreshes the process gauges on an interval.
func StartSystemMetricsRecording(metrics *SettlementMetrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			metrics.RecordSystemMetrics()
		}
	}()
}
