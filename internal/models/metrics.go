package models

import "time"

// SystemMetrics is a lightweight aggregate of runtime counters exposed on
// the admin status endpoint, alongside the full Prometheus scrape.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	UpstreamFetchCount       uint64    `json:"upstream_fetch_count"`
	AverageUpstreamFetchMs   float64   `json:"avg_upstream_fetch_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
