// Package metrics holds the Prometheus collectors shared across packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_decisions_total",
			Help: "Sliding-window rate limit decisions by scope",
		},
		[]string{"scope", "decision"}, // decision: allowed, rejected, error
	)

	RateLimitKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratelimit_tracked_keys",
			Help: "Number of client keys held by the in-memory limiter after the last sweep",
		},
	)

	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Web push delivery attempts by outcome",
		},
		[]string{"outcome"}, // sent, gone, failed
	)

	BroadcastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_broadcast_duration_seconds",
			Help:    "Wall time of a full broadcast including the join",
			Buckets: prometheus.DefBuckets,
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
