// Package metrics defines the Prometheus collectors for the memory
// service. Collectors are registered on the default registry and exposed
// via the /metrics endpoint in HTTP mode.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// OperationTotal counts store/search/count operations by outcome.
	OperationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "symbios",
			Name:      "memory_operations_total",
			Help:      "Total memory operations by type and status",
		},
		[]string{"op", "status"},
	)

	// OperationDuration tracks wall-clock time of memory operations.
	// Embedding inference dominates, so buckets reach into seconds.
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "symbios",
			Name:      "memory_operation_duration_seconds",
			Help:      "Memory operation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	// EmbeddingCacheTotal counts embedding cache lookups ("hit"/"miss").
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "symbios",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by result",
		},
		[]string{"result"},
	)

	// HTTPRequestDuration tracks HTTP request duration in HTTP mode.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "symbios",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		OperationTotal,
		OperationDuration,
		EmbeddingCacheTotal,
		HTTPRequestDuration,
	)
}
