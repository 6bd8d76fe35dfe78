package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labhub_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// JoinRequestDecisions counts join-request decisions by action and result.
	JoinRequestDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labhub_join_request_decisions_total",
			Help: "Total number of join-request decisions",
		},
		[]string{"action", "result"},
	)

	// PartialApprovals tracks approvals whose membership insert failed and was
	// left for the reconciliation job.
	PartialApprovals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "labhub_partial_approvals_total",
			Help: "Join requests marked approved without a committed membership",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labhub_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
