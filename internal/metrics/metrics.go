// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the recommendation pipeline:
// - Engagement ledger appends and queries
// - Velocity estimation and trending queries
// - Preference profile builds
// - Match scoring and recommendation assembly
// - API endpoint latency and throughput
// - Cache efficiency

var (
	// Engagement Ledger Metrics
	LedgerEventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_recorded_total",
			Help: "Total number of engagement events appended to the ledger",
		},
		[]string{"kind", "target_type"},
	)

	LedgerEventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_rejected_total",
			Help: "Total number of engagement events rejected at validation",
		},
		[]string{"reason"}, // "invalid_kind", "unknown_target", "empty_field"
	)

	LedgerAppendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_append_duration_seconds",
			Help:    "Duration of ledger append operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LedgerQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_query_duration_seconds",
			Help:    "Duration of ledger range queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"index"}, // "user", "target"
	)

	// Velocity Estimator Metrics
	VelocityComputations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "velocity_computations_total",
			Help: "Total number of velocity score computations",
		},
	)

	TrendingQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trending_query_duration_seconds",
			Help:    "Duration of trending ranking queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"target_type"},
	)

	// Preference Profile Metrics
	ProfileBuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_builds_total",
			Help: "Total number of preference profile computations",
		},
	)

	ProfileBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "profile_build_duration_seconds",
			Help:    "Duration of preference profile builds in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ProfileEmpty = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_empty_total",
			Help: "Total number of profile builds that found no engagement history",
		},
	)

	// Match Scorer Metrics
	MatchScoresComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_scores_computed_total",
			Help: "Total number of match scores computed",
		},
		[]string{"pairing"}, // "user_post", "user_user", "user_pattern"
	)

	// Recommendation Assembly Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation assembly requests",
		},
		[]string{"surface"}, // "feed", "agents", "collaborations", "patterns", "similar"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end recommendation assembly duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"surface"},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_fallbacks_total",
			Help: "Total number of cold-start fallbacks to trending results",
		},
		[]string{"surface"},
	)

	// Event Stream Metrics
	StreamEventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_events_published_total",
			Help: "Total number of engagement events published to the in-process stream",
		},
	)

	StreamEventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_events_processed_total",
			Help: "Total number of stream events handled by subscribers",
		},
		[]string{"handler"}, // "pattern_detector", "cache_invalidator"
	)

	StreamHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_handler_errors_total",
			Help: "Total number of stream handler failures",
		},
		[]string{"handler"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "profile", "trending", "feed"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of cache entries invalidated by new engagement",
		},
		[]string{"cache_type"},
	)

	// Pattern Detector Metrics
	PatternsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patterns_detected_total",
			Help: "Total number of behavioral patterns detected",
		},
		[]string{"pattern_type"},
	)

	PatternDetectorLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pattern_detector_lag_events",
			Help: "Number of stream events awaiting pattern detection",
		},
	)
)

// RecordLedgerAppend records a successful ledger append.
func RecordLedgerAppend(kind, targetType string, duration time.Duration) {
	LedgerEventsRecorded.WithLabelValues(kind, targetType).Inc()
	LedgerAppendDuration.Observe(duration.Seconds())
}

// RecordLedgerRejection records an event rejected during validation.
func RecordLedgerRejection(reason string) {
	LedgerEventsRejected.WithLabelValues(reason).Inc()
}

// RecordLedgerQuery records a ledger range query against the given index.
func RecordLedgerQuery(index string, duration time.Duration) {
	LedgerQueryDuration.WithLabelValues(index).Observe(duration.Seconds())
}

// RecordTrendingQuery records a trending ranking query.
func RecordTrendingQuery(targetType string, duration time.Duration) {
	TrendingQueryDuration.WithLabelValues(targetType).Observe(duration.Seconds())
}

// RecordProfileBuild records a preference profile computation.
func RecordProfileBuild(duration time.Duration, empty bool) {
	ProfileBuilds.Inc()
	ProfileBuildDuration.Observe(duration.Seconds())
	if empty {
		ProfileEmpty.Inc()
	}
}

// RecordRecommendation records a recommendation assembly request.
func RecordRecommendation(surface string, duration time.Duration, fallback bool) {
	RecommendationRequests.WithLabelValues(surface).Inc()
	RecommendationDuration.WithLabelValues(surface).Observe(duration.Seconds())
	if fallback {
		RecommendationFallbacks.WithLabelValues(surface).Inc()
	}
}

// RecordAPIRequest records API request metrics.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheAccess records a cache hit or miss for the given cache type.
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}
