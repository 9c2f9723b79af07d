package enrich

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	enrichTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_total",
			Help: "Total articles enriched, by outcome",
		},
		[]string{"status"}, // success|failure
	)

	enrichDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrichment_duration_seconds",
			Help:    "Per-article enrichment duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)
)

func recordEnrichment(success bool, elapsed time.Duration) {
	status := "failure"
	if success {
		status = "success"
	}
	enrichTotal.WithLabelValues(status).Inc()
	if elapsed > 0 {
		enrichDuration.Observe(elapsed.Seconds())
	}
}
