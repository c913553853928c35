package exec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationsTotal counts attempts per backend and operation.
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_operations_total",
			Help: "Total number of backend operation attempts",
		},
		[]string{"backend", "operation"},
	)

	// failuresTotal counts classified failures.
	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_operation_failures_total",
			Help: "Total number of classified operation failures",
		},
		[]string{"backend", "operation", "kind"},
	)

	// retriesTotal counts retry sleeps taken.
	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_retries_total",
			Help: "Total number of retries against the same backend",
		},
		[]string{"backend"},
	)

	// fallbacksTotal counts moves along the fallback chain.
	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_fallbacks_total",
			Help: "Total number of fallbacks to another backend",
		},
		[]string{"from", "to"},
	)

	// operationLatency observes single-attempt latency.
	operationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_operation_latency_seconds",
			Help:    "Backend operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
)
