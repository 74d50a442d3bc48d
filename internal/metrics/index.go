package metrics

import "github.com/prometheus/client_golang/prometheus"

// Vector index Prometheus metrics. Tenants are not used as labels.
var (
	IndexOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_operations_total",
			Help:      "Vector index operations by type and outcome",
		},
		[]string{"op", "status"}, // op: load/save/add/search/delete
	)

	IndexOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "index_operation_duration_seconds",
			Help:      "Vector index operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op"},
	)

	IndexCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_cache_total",
			Help:      "Tenant index cache hits, misses and evictions",
		},
		[]string{"result"},
	)

	IndexCachedTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_cached_tenants",
			Help:      "Tenant indexes currently held in memory",
		},
	)
)
