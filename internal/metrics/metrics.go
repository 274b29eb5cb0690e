// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package metrics defines the Prometheus instrumentation for Marquee.
//
// Metrics are registered on the default registry through promauto and
// exposed by the API router at /metrics:
//   - DuckDB dataset load queries
//   - collaborative index builds
//   - recommendation requests and the result cache
//   - HTTP endpoint latency and throughput
//   - the dataset loader circuit breaker
package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DatasetRowsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataset_rows_loaded",
			Help: "Rows returned by the most recent dataset load",
		},
		[]string{"table"}, // ratings, movies
	)

	DatasetChangesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dataset_changes_detected_total",
			Help: "Total number of dataset file changes detected by polling",
		},
	)

	// Index Metrics
	IndexBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "index_build_duration_seconds",
			Help:    "Duration of collaborative index rebuilds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	IndexBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_builds_total",
			Help: "Total number of index rebuild attempts",
		},
		[]string{"result"}, // success, failure, skipped
	)

	IndexTitles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_titles",
			Help: "Titles in the active collaborative index",
		},
	)

	IndexUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_users",
			Help: "Users in the active collaborative index",
		},
	)

	IndexUndefinedTitles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_undefined_titles",
			Help: "Titles whose correlations are undefined (zero variance)",
		},
	)

	IndexVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_version",
			Help: "Version of the active collaborative index",
		},
	)

	// Recommendation Metrics
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"strategy", "outcome"}, // outcome: ok, invalid, unknown_item, unavailable, error
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Recommendation latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"strategy"},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_hits_total",
			Help: "Total number of recommendation result cache hits",
		},
	)

	RecommendCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_misses_total",
			Help: "Total number of recommendation result cache misses",
		},
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

	// Index event stream
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Connected index event stream clients",
		},
	)

	WebSocketMessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Index event messages dropped because a buffer was full",
		},
		[]string{"stage"}, // stage: "hub", "client"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, classifyError(err)).Inc()
	}
}

// classifyError maps an error to a bounded label value.
func classifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such file"), strings.Contains(msg, "no files found"):
		return "missing_file"
	case strings.Contains(msg, "conversion"), strings.Contains(msg, "csv"):
		return "parse"
	default:
		return "other"
	}
}

// IndexBuild describes one finished rebuild for RecordIndexBuild.
type IndexBuild struct {
	Duration  time.Duration
	Titles    int
	Users     int
	Undefined int
	Version   int64
	Err       error
}

// RecordIndexBuild records a rebuild attempt. Gauges only move on success,
// because a failed rebuild keeps the previous index active.
func RecordIndexBuild(b IndexBuild) {
	IndexBuildDuration.Observe(b.Duration.Seconds())
	if b.Err != nil {
		IndexBuildsTotal.WithLabelValues("failure").Inc()
		return
	}
	IndexBuildsTotal.WithLabelValues("success").Inc()
	IndexTitles.Set(float64(b.Titles))
	IndexUsers.Set(float64(b.Users))
	IndexUndefinedTitles.Set(float64(b.Undefined))
	IndexVersion.Set(float64(b.Version))
}

// RecordIndexBuildSkipped records a rebuild that was not started, for
// example because another rebuild was running.
func RecordIndexBuildSkipped() {
	IndexBuildsTotal.WithLabelValues("skipped").Inc()
}

// RecordRecommendation records one recommendation request.
func RecordRecommendation(strategy, outcome string, duration time.Duration, cacheHit bool) {
	RecommendRequestsTotal.WithLabelValues(strategy, outcome).Inc()
	RecommendDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if outcome != "ok" {
		return
	}
	if cacheHit {
		RecommendCacheHits.Inc()
	} else {
		RecommendCacheMisses.Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
