package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shoptalk",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each retrieval pipeline stage",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	PipelineDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoptalk",
			Name:      "pipeline_degraded_total",
			Help:      "Stages that fell back to degraded behavior",
		},
		[]string{"stage"},
	)

	PipelinePoolSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shoptalk",
			Name:      "pipeline_pool_size",
			Help:      "Candidate pool size observed at each stage boundary",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
		[]string{"stage"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineStageDuration)
	prometheus.MustRegister(PipelineDegradedTotal)
	prometheus.MustRegister(PipelinePoolSize)
	pipelineMetricsRegistered = true
}
