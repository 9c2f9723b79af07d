package fanout

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fanoutWriteTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_write_total",
			Help: "Total fanout writes per store and outcome",
		},
		[]string{"store", "status"}, // status: success|failure
	)

	fanoutWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fanout_write_duration_seconds",
			Help:    "Fanout write duration in seconds, measured from call start",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"store"},
	)
)

func recordOutcome(store string, success bool, elapsed time.Duration) {
	status := "failure"
	if success {
		status = "success"
	}
	fanoutWriteTotal.WithLabelValues(store, status).Inc()
	fanoutWriteDuration.WithLabelValues(store).Observe(elapsed.Seconds())
}
