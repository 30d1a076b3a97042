package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbserver_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbserver_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbserver_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Pipeline metrics
var (
	PipelineGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbserver_pipeline_generations_total",
			Help: "Total pipeline runs by source kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbserver_pipeline_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	PipelineOutputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbserver_pipeline_output_bytes",
			Help:    "Size of encoded pipeline output",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"mode"},
	)

	PipelineQueueWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thumbserver_pipeline_queue_wait_seconds",
			Help:    "Time spent waiting for a worker pool slot",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	WorkerSlotsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbserver_worker_slots_in_use",
			Help: "Worker pool slots currently occupied",
		},
	)

	WorkerSlotsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbserver_worker_slots_total",
			Help: "Worker pool slot capacity",
		},
	)
)

// Video metrics
var (
	VideoCandidatesDecoded = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thumbserver_video_candidates_decoded",
			Help:    "Number of candidate frames decoded per video",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	VideoWinningScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thumbserver_video_winning_score",
			Help:    "Score of the selected representative frame",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)

// InitializeMetrics pre-populates expected label combinations so every
// series is exported from the first Prometheus scrape.
func InitializeMetrics() {
	kinds := []string{"raster", "layered", "video", "unsupported"}
	outcomes := []string{"success", "error_not_found", "error_unsupported", "error_decode", "error_encode", "error_canceled"}

	for _, k := range kinds {
		for _, o := range outcomes {
			PipelineGenerationsTotal.WithLabelValues(k, o)
		}
	}

	for _, s := range []string{"classify", "decode", "score", "resize", "encode"} {
		PipelineStageDuration.WithLabelValues(s)
	}

	for _, m := range []string{"thumbnail", "media"} {
		PipelineOutputBytes.WithLabelValues(m)
	}
}
