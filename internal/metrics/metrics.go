// Package metrics holds the Prometheus collectors for the agent bridge and a
// small text-feature counter used by audit events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsTotal counts finished sessions by terminal state (done, aborted).
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordagent_sessions_total",
			Help: "Total number of orchestration sessions by outcome",
		},
		[]string{"outcome"},
	)

	// ActiveSessions tracks sessions currently streaming.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wordagent_active_sessions",
			Help: "Number of sessions currently running",
		},
	)

	// SessionIterations tracks how many model turns a session took.
	SessionIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wordagent_session_iterations",
			Help:    "Model turns taken per session",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 100},
		},
	)

	// ToolInvocations counts tool_use events emitted to the executor.
	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordagent_tool_invocations_total",
			Help: "Total number of tool invocations issued to the remote executor",
		},
		[]string{"tool"},
	)

	// ProviderErrors counts failed model provider calls.
	ProviderErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wordagent_provider_errors_total",
			Help: "Total number of model provider calls that failed",
		},
	)

	// PendingResults tracks results stored but not yet consumed.
	PendingResults = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wordagent_pending_results",
			Help: "Tool results waiting in the rendezvous store",
		},
	)

	// ResultsStored counts results deposited by the receiver.
	ResultsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordagent_results_stored_total",
			Help: "Total number of tool results deposited, by shape",
		},
		[]string{"shape"},
	)

	// ResultsSwept counts entries removed by the retention sweep.
	ResultsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wordagent_results_swept_total",
			Help: "Total number of unconsumed tool results evicted by the sweep",
		},
	)

	// ResultsConsumed counts results claimed by a waiting session.
	ResultsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wordagent_results_consumed_total",
			Help: "Total number of tool results consumed by sessions",
		},
	)

	// ResultTimeouts counts waits that hit the poll ceiling and used the
	// fallback result.
	ResultTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wordagent_result_timeouts_total",
			Help: "Total number of tool result waits that timed out",
		},
	)

	// RateLimited counts tool result posts rejected by the rate limiter.
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wordagent_rate_limited_total",
			Help: "Total number of tool result requests rejected by rate limiting",
		},
	)

	// RendezvousWait tracks how long sessions waited for a tool result.
	RendezvousWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wordagent_rendezvous_wait_seconds",
			Help:    "Time spent waiting for a tool result",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"status"},
	)
)

// Handler returns the HTTP handler exposing all registered collectors.
func Handler() http.Handler {
	return promhttp.Handler()
}
