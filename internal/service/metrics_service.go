package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/camp-ops/dashboard-api/internal/models"
)

// MetricsService owns the Prometheus registry and keeps a parallel set of
// atomic counters so the admin status endpoint can report aggregates
// without scraping its own /metrics output.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	upstreamFetch   *prometheus.HistogramVec

	tally struct {
		cacheHits       uint64
		cacheMisses     uint64
		requests        uint64
		requestNanos    uint64
		upstreamFetches uint64
		upstreamNanos   uint64
	}
}

func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
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
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})
	m.cacheLatency = cacheLatency
	m.cacheWrite = cacheWrite

	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})
	m.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})
	m.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	m.upstreamFetch = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_fetch_duration_seconds",
		Help:    "Duration of enrollment provider API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Current number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	m.registry.MustRegister(
		m.requestDuration, m.requestTotal,
		cacheLatency, cacheWrite,
		m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.upstreamFetch, goroutines,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusLabel := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, statusLabel).Inc()
	atomic.AddUint64(&m.tally.requests, 1)
	atomic.AddUint64(&m.tally.requestNanos, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records one cache lookup and refreshes the hit
// ratio gauge.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.tally.cacheHits, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.tally.cacheMisses, 1)
	}
	if ratio, ok := m.hitRatio(); ok {
		m.cacheHitRatio.Set(ratio)
	}
}

// ObserveCacheWrite records one cache set.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveUpstreamFetch records one call to the enrollment provider,
// labelled by API path.
func (m *MetricsService) ObserveUpstreamFetch(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamFetch.WithLabelValues(operation).Observe(duration.Seconds())
	atomic.AddUint64(&m.tally.upstreamFetches, 1)
	atomic.AddUint64(&m.tally.upstreamNanos, uint64(duration.Nanoseconds()))
}

func (m *MetricsService) hitRatio() (float64, bool) {
	hits := atomic.LoadUint64(&m.tally.cacheHits)
	total := hits + atomic.LoadUint64(&m.tally.cacheMisses)
	if total == 0 {
		return 0, false
	}
	return float64(hits) / float64(total), true
}

// Snapshot aggregates the counters for the admin status endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}

	out := models.SystemMetrics{
		CacheHits:          atomic.LoadUint64(&m.tally.cacheHits),
		CacheMisses:        atomic.LoadUint64(&m.tally.cacheMisses),
		RequestsTotal:      atomic.LoadUint64(&m.tally.requests),
		UpstreamFetchCount: atomic.LoadUint64(&m.tally.upstreamFetches),
		Goroutines:         runtime.NumGoroutine(),
		GeneratedAt:        time.Now().UTC(),
	}
	if ratio, ok := m.hitRatio(); ok {
		out.CacheHitRatio = ratio
	}
	if out.RequestsTotal > 0 {
		nanos := atomic.LoadUint64(&m.tally.requestNanos)
		out.AverageRequestDurationMs = float64(nanos) / float64(out.RequestsTotal) / float64(time.Millisecond)
	}
	if out.UpstreamFetchCount > 0 {
		nanos := atomic.LoadUint64(&m.tally.upstreamNanos)
		out.AverageUpstreamFetchMs = float64(nanos) / float64(out.UpstreamFetchCount) / float64(time.Millisecond)
	}
	return out
}
