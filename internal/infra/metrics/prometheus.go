package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argus_uploads_total",
		Help: "Total uploads handled, by result (stored, duplicate, rejected, failed)",
	}, []string{"result"})

	FramesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "argus_frames_sampled_total",
		Help: "Total frames sampled across all analysis streams",
	})

	FramesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argus_frames_analyzed_total",
		Help: "Total per-frame analysis outcomes, by status (emitted, skipped)",
	}, []string{"status"})

	InferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "argus_inference_duration_seconds",
		Help:    "Duration of individual vision backend calls",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "argus_active_streams",
		Help: "Number of analysis streams currently producing results",
	})

	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argus_jobs_processed_total",
		Help: "Total queue-driven analysis jobs processed, by status",
	}, []string{"status"})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argus_retry_total",
		Help: "Total job retries, by attempt",
	}, []string{"attempt"})
)
