package models

import "time"

// ServiceMetrics is the JSON summary served next to the Prometheus endpoint.
type ServiceMetrics struct {
	RequestsTotal    uint64    `json:"requests_total"`
	CacheHits        uint64    `json:"cache_hits"`
	CacheMisses      uint64    `json:"cache_misses"`
	CacheHitRatio    float64   `json:"cache_hit_ratio"`
	Reschedules      uint64    `json:"reschedules"`
	Undos            uint64    `json:"undos"`
	ConflictingHints uint64    `json:"conflicting_hints"`
	Goroutines       int       `json:"goroutines"`
	GeneratedAt      time.Time `json:"generated_at"`
}
