package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Explanation and prediction metrics.
var (
	ExplainRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "explain_requests_total",
			Help:      "Total explanation requests by outcome",
		},
		[]string{"time_point", "status"},
	)

	ExplainDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "explain_duration_seconds",
			Help:      "Explanation pipeline duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"time_point"},
	)

	ExplainResidual = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "explain_residual_abs",
			Help:      "Absolute unattributed residual per explanation",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2},
		},
		[]string{"time_point"},
	)

	ExplainNearestDistance = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "explain_nearest_distance",
			Help:      "Gower distance from the query to its nearest grid row",
			Buckets:   []float64{0, 0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.5, 1},
		},
	)

	PredictRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "predict_requests_total",
			Help:      "Total curve predictions by operation and outcome",
		},
		[]string{"op", "status"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_total",
			Help:      "Cache lookups by cache and result",
		},
		[]string{"cache", "result"}, // cache: "curve" / "explanation"; result: "hit" / "miss" / "error"
	)
)

var registerOnce sync.Once

// RegisterExplainMetrics registers explanation, prediction and cache metrics
// with the default registry. Safe to call more than once.
func RegisterExplainMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ExplainRequestsTotal,
			ExplainDuration,
			ExplainResidual,
			ExplainNearestDistance,
			PredictRequestsTotal,
			CacheTotal,
		)
	})
}
