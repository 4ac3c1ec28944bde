package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline metrics track the five-stage enrichment pipeline and the result
// cache. Registered explicitly from the composition root (no init()) so the
// SDK can be embedded without polluting the default registry.
var (
	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "evidlit",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of a single pipeline stage",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	PipelineStagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "evidlit",
			Name:      "pipeline_stages_total",
			Help:      "Pipeline stage outcomes",
		},
		[]string{"stage", "outcome"}, // outcome: success, error, aborted
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "evidlit",
			Name:      "result_cache_total",
			Help:      "Result cache lookups",
		},
		[]string{"outcome"}, // outcome: hit, miss, error
	)

	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "evidlit",
			Name:      "gateway_requests_total",
			Help:      "Requests to the remote search gateway",
		},
		[]string{"endpoint", "outcome"},
	)
)

// RegisterPipelineMetrics registers pipeline metrics with the default registry.
func RegisterPipelineMetrics() {
	prometheus.MustRegister(
		PipelineStageDuration,
		PipelineStagesTotal,
		ResultCacheTotal,
		GatewayRequestsTotal,
	)
}
