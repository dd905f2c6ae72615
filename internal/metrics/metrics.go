// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelnotes_http_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Catalog lookups. outcome: ok, not_found, unavailable, malformed, rejected
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelnotes_catalog_requests_total",
			Help: "Total number of catalog lookups by outcome",
		},
		[]string{"outcome"},
	)

	CatalogRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelnotes_catalog_request_duration_seconds",
			Help:    "Duration of catalog HTTP calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// Metadata cache resolution. result: hit, miss, race
	CacheResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelnotes_metadata_cache_resolutions_total",
			Help: "Metadata cache resolutions by result",
		},
		[]string{"result"},
	)

	// Favorite mutations. op: add, remove, update_note; outcome: created, existing, ok, not_found, error
	FavoriteMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelnotes_favorite_mutations_total",
			Help: "Favorite mutations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelnotes_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelnotes_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// BreakerStateValue maps a breaker state onto the CircuitBreakerState gauge.
func BreakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
