package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline Prometheus metrics.
var (
	AdapterTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "adapter_tasks_total",
			Help:      "Orchestrated adapter tasks by capability and outcome",
		},
		[]string{"capability", "status"}, // status: ok/error/timeout/panic
	)

	AdapterTaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "adapter_task_duration_seconds",
			Help:      "Adapter task duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"capability"},
	)

	ClassifierOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "classifier_outcomes_total",
			Help:      "Intent classification outcomes",
		},
		[]string{"result"}, // ok/empty/error/unparsable/fallback
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "answers_total",
			Help:      "Synthesized answers by outcome",
		},
		[]string{"result"}, // ok/fallback_error/fallback_empty/no_evidence
	)
)
