package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryloom_queries_total",
			Help: "Total number of translated queries by terminal state.",
		},
		[]string{"state"},
	)
	completionCallsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queryloom_completion_calls_total",
			Help: "Total number of language model completion calls, including repair attempts.",
		},
	)
	completionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryloom_completion_tokens_total",
			Help: "Total prompt and completion tokens consumed.",
		},
		[]string{"direction"},
	)
	completionCostDollarsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queryloom_completion_cost_dollars_total",
			Help: "Estimated cumulative completion spend in USD.",
		},
	)
	repairAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queryloom_repair_attempts",
			Help:    "Completion attempts consumed per query before a terminal state.",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		},
	)
	retrievalDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queryloom_retrieval_duration_seconds",
			Help:    "Vector store retrieval latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		queriesTotal,
		completionCallsTotal,
		completionTokensTotal,
		completionCostDollarsTotal,
		repairAttempts,
		retrievalDurationSeconds,
	)
}

func ObserveQuery(state string, attempts int) {
	queriesTotal.WithLabelValues(state).Inc()
	repairAttempts.Observe(float64(attempts))
}

func ObserveCompletion(promptTokens, completionTokens int, cost float64) {
	completionCallsTotal.Inc()
	completionTokensTotal.WithLabelValues("prompt").Add(float64(promptTokens))
	completionTokensTotal.WithLabelValues("completion").Add(float64(completionTokens))
	if cost > 0 {
		completionCostDollarsTotal.Add(cost)
	}
}

func ObserveRetrieval(elapsed time.Duration) {
	retrievalDurationSeconds.Observe(elapsed.Seconds())
}
