package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/m3-catalog/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for the health endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	bulkBatches     *prometheus.CounterVec
	bulkRows        *prometheus.CounterVec
	suggestions     *prometheus.CounterVec
	rootRepairs     prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	bulkRowCount         uint64
	bulkFailedCount      uint64
	suggestionsApplied   uint64
	rootRepairCount      uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	bulkBatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_bulk_batches_total",
		Help: "Bulk ingest batches by entity and outcome",
	}, []string{"entity", "outcome"})

	bulkRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_bulk_rows_total",
		Help: "Rows persisted by bulk ingest",
	}, []string{"entity"})

	suggestions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_suggestions_total",
		Help: "Tag suggestions consumed by outcome",
	}, []string{"outcome"})

	rootRepairs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_root_repairs_total",
		Help: "Hierarchy root pointers repaired by the reconciler",
	})

	registry.MustRegister(
		requestDuration, requestTotal, bulkBatches, bulkRows, suggestions, rootRepairs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		bulkBatches:     bulkBatches,
		bulkRows:        bulkRows,
		suggestions:     suggestions,
		rootRepairs:     rootRepairs,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveBulkBatch records one acknowledged bulk batch.
func (m *MetricsService) ObserveBulkBatch(entity string, ok bool, rows int64) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
		atomic.AddUint64(&m.bulkFailedCount, 1)
	}
	m.bulkBatches.WithLabelValues(entity, outcome).Inc()
	if rows > 0 {
		m.bulkRows.WithLabelValues(entity).Add(float64(rows))
		atomic.AddUint64(&m.bulkRowCount, uint64(rows))
	}
}

// ObserveSuggestion records the outcome of one consumed suggestion.
func (m *MetricsService) ObserveSuggestion(outcome string) {
	if m == nil {
		return
	}
	m.suggestions.WithLabelValues(outcome).Inc()
	if outcome == SuggestionApplied {
		atomic.AddUint64(&m.suggestionsApplied, 1)
	}
}

// ObserveRootRepairs records reconciler repairs.
func (m *MetricsService) ObserveRootRepairs(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.rootRepairs.Add(float64(n))
	atomic.AddUint64(&m.rootRepairCount, uint64(n))
}

// Snapshot returns aggregated metrics for the health endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		BulkRowsTotal:            atomic.LoadUint64(&m.bulkRowCount),
		BulkBatchesFailed:        atomic.LoadUint64(&m.bulkFailedCount),
		SuggestionsApplied:       atomic.LoadUint64(&m.suggestionsApplied),
		RootRepairsTotal:         atomic.LoadUint64(&m.rootRepairCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
