package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HF-CYGG/Dawn-Course-sub000/internal/models"
)

// MetricsService wraps the Prometheus registry and keeps a few running
// totals for the JSON metrics summary.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	dbQueryDuration  *prometheus.HistogramVec
	rescheduleTotal  *prometheus.CounterVec
	conflictWeeks    prometheus.Histogram
	segmentsProduced prometheus.Histogram

	cacheHitCount   uint64
	cacheMissCount  uint64
	requestCount    uint64
	rescheduleCount uint64
	undoCount       uint64
	conflictCount   uint64
}

// NewMetricsService registers the collectors.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	rescheduleTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_reschedule_total",
		Help: "Reschedule and undo attempts by outcome",
	}, []string{"operation", "outcome"})

	conflictWeeks := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_conflict_weeks",
		Help:    "Number of conflicting weeks found per conflict check",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
	})

	segmentsProduced := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_segments_produced",
		Help:    "Records written by a reschedule or undo",
		Buckets: []float64{1, 2, 3, 4, 6, 8, 12},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		dbQueryDuration, rescheduleTotal, conflictWeeks, segmentsProduced, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		dbQueryDuration:  dbQueryDuration,
		rescheduleTotal:  rescheduleTotal,
		conflictWeeks:    conflictWeeks,
		segmentsProduced: segmentsProduced,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObserveCacheWrite tracks the duration for cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordReschedule counts a reschedule or undo and the records it wrote.
func (m *MetricsService) RecordReschedule(operation, outcome string, written int) {
	if m == nil {
		return
	}
	m.rescheduleTotal.WithLabelValues(operation, outcome).Inc()
	if outcome != "success" {
		return
	}
	m.segmentsProduced.Observe(float64(written))
	switch operation {
	case "undo":
		atomic.AddUint64(&m.undoCount, 1)
	default:
		atomic.AddUint64(&m.rescheduleCount, 1)
	}
}

// ObserveConflicts records the size of a conflict report.
func (m *MetricsService) ObserveConflicts(weeks int) {
	if m == nil {
		return
	}
	m.conflictWeeks.Observe(float64(weeks))
	if weeks > 0 {
		atomic.AddUint64(&m.conflictCount, 1)
	}
}

// Snapshot returns the running totals.
func (m *MetricsService) Snapshot() models.ServiceMetrics {
	if m == nil {
		return models.ServiceMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}

	return models.ServiceMetrics{
		RequestsTotal:    atomic.LoadUint64(&m.requestCount),
		CacheHits:        hits,
		CacheMisses:      misses,
		CacheHitRatio:    ratio,
		Reschedules:      atomic.LoadUint64(&m.rescheduleCount),
		Undos:            atomic.LoadUint64(&m.undoCount),
		ConflictingHints: atomic.LoadUint64(&m.conflictCount),
		Goroutines:       runtime.NumGoroutine(),
		GeneratedAt:      time.Now().UTC(),
	}
}
