package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userprofile_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// FieldListReloads counts field-list compilations by result (success|failure).
	FieldListReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userprofile_field_list_reloads_total",
			Help: "Total number of field list compilations",
		},
		[]string{"result"},
	)

	// ValidationFailures counts rejected profile values by reason.
	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userprofile_validation_failures_total",
			Help: "Profile values rejected during validation",
		},
		[]string{"reason"},
	)

	// FieldCacheLookups tracks derived field cache hits and misses.
	FieldCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userprofile_field_cache_lookups_total",
			Help: "Derived field list cache lookups",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "userprofile_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
