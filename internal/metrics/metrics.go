package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delivery states, as resolved by the consumer.
const (
	StateAcked     = "acked"
	StateSkipped   = "skipped"
	StateRequeued  = "requeued"
	StateDiscarded = "discarded"
	StateExhausted = "exhausted"
	StateReleased  = "released"
)

// Worker holds the consumer's instruments.
type Worker struct {
	Deliveries        *prometheus.CounterVec
	TranscodeDuration prometheus.Histogram
	ActiveJobs        prometheus.Gauge
}

// NewWorker registers the worker instruments on reg.
func NewWorker(reg prometheus.Registerer) *Worker {
	f := promauto.With(reg)
	return &Worker{
		Deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "videos",
			Name:      "worker_deliveries_total",
			Help:      "Transcode job deliveries by how they were resolved",
		}, []string{"state"}),
		TranscodeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "videos",
			Name:      "transcode_duration_seconds",
			Help:      "Time spent in the job body, from start to resolution",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
		ActiveJobs: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "videos",
			Name:      "worker_active_jobs",
			Help:      "Number of jobs currently processing on this node",
		}),
	}
}

// Handler exposes everything gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
