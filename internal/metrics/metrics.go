// Package metrics exposes the Prometheus collectors shared by the castos
// daemon. Collectors register with the default registry and are served on
// /metrics by the API server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Result cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castos_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castos_cache_misses_total",
			Help: "Total number of result cache misses",
		},
		[]string{"cache_type"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castos_cache_errors_total",
			Help: "Cache backend errors absorbed as a miss or no-op",
		},
		[]string{"cache_type", "operation"}, // "get", "set"
	)

	// Generative service calls
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castos_llm_requests_total",
			Help: "Generative service requests by client and outcome",
		},
		[]string{"client", "outcome"}, // "success", "failure", "rejected"
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "castos_llm_request_duration_seconds",
			Help:    "Duration of generative service requests",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"client"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "castos_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castos_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Pipeline stages
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "castos_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	StageOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castos_stage_outcomes_total",
			Help: "Pipeline stage outcomes",
		},
		[]string{"stage", "outcome"}, // "success", "fallback", "failure"
	)

	CandidateSearchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "castos_candidate_search_failures_total",
			Help: "Characters whose candidate search degraded to an empty list",
		},
	)

	// Optimizer
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "castos_training_duration_seconds",
			Help:    "Duration of per-job policy training",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	TrainingSlotsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "castos_training_slots_in_use",
			Help: "Training pool slots currently held",
		},
	)

	OptimizerScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "castos_optimizer_score",
			Help:    "Final reward of the selected cast",
			Buckets: prometheus.LinearBuckets(-200, 100, 12),
		},
	)

	// Jobs
	JobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castos_jobs_finished_total",
			Help: "Jobs that reached a terminal status",
		},
		[]string{"status"},
	)

	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "castos_jobs_in_flight",
			Help: "Jobs currently being processed",
		},
	)

	// HTTP API
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castos_api_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveStage records a stage duration and outcome.
func ObserveStage(stage, outcome string, elapsed time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	StageOutcomes.WithLabelValues(stage, outcome).Inc()
}
