package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videoflix_transcode_jobs_total",
		Help: "Total number of transcode jobs finished, by terminal status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videoflix_pipeline_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
	}, []string{"stage"})

	RenditionEncodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videoflix_rendition_encodes_total",
		Help: "Total rendition encodes, by label and outcome",
	}, []string{"label", "outcome"})

	CleanupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videoflix_cleanups_total",
		Help: "Total artifact cleanups performed",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "videoflix_active_workers",
		Help: "Number of workers currently running a pipeline job",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videoflix_retry_total",
		Help: "Total number of job retries",
	}, []string{"attempt"})
)
