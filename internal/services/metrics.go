package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "matjip"

// SyncMetrics are the synchronizer's Prometheus collectors.
type SyncMetrics struct {
	runs         *prometheus.CounterVec
	regionErrors *prometheus.CounterVec
	fetched      prometheus.Counter
	inserted     prometheus.Counter
	duration     prometheus.Histogram
	lastSuccess  prometheus.Gauge
}

// NewSyncMetrics registers the collectors with reg. A nil registerer creates
// unregistered collectors.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	f := promauto.With(reg)
	return &SyncMetrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Full restaurant synchronizations by result.",
		}, []string{"result"}),
		regionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "region_errors_total",
			Help:      "Region fetches that failed and were skipped.",
		}, []string{"region"}),
		fetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "restaurants_fetched_total",
			Help:      "Restaurant rows fetched from the upstream API.",
		}),
		inserted: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "restaurants_inserted_total",
			Help:      "Restaurants newly written to the cache.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Duration of full synchronizations.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last recorded synchronization.",
		}),
	}
}
