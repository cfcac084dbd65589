// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package metrics provides Prometheus metrics collection and export.
//
// Metrics are exposed at the /metrics endpoint in Prometheus text format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline metrics

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total recommendation lookups served by tier",
		},
		[]string{"tier"}, // "personal", "default"
	)

	RecommendationsEmpty = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendations_empty_total",
			Help: "Total recommendation requests that produced an empty list",
		},
	)

	OfflineTableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "offline_table_rows",
			Help: "Row count of the currently loaded offline recommendation table",
		},
		[]string{"kind"}, // "personal", "default"
	)

	OfflineTableLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offline_table_loads_total",
			Help: "Total offline table load attempts",
		},
		[]string{"kind", "status"}, // status: "success", "failure"
	)

	EventsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "user_events_recorded_total",
			Help: "Total user interaction events recorded",
		},
	)

	// Similarity capability metrics

	SimilarityLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_lookups_total",
			Help: "Total item-to-item similarity lookups",
		},
		[]string{"status"}, // "success", "failure", "rejected"
	)

	SimilarityLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similarity_lookup_duration_seconds",
			Help:    "Duration of item-to-item similarity lookups",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2, 5},
		},
	)

	// Circuit breaker metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// API metrics

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
)

// RecordAPIRequest records metrics for a completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the active request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
