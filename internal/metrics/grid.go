package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	projectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projections_total",
			Help:      "Number of row projections computed.",
		},
	)

	projectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "projection_duration_seconds",
			Help:      "Time spent filtering, sorting and paginating rows.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	persistOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_operations_total",
			Help:      "View-state storage operations by kind and outcome.",
		},
		[]string{"op", "result"},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Documents exported by format and outcome.",
		},
		[]string{"format", "result"},
	)
)

// ObserveProjection records one projection that took d.
func ObserveProjection(d time.Duration) {
	projectionsTotal.Inc()
	projectionDuration.Observe(d.Seconds())
}

// ObservePersist records a storage operation ("load", "save", "delete").
func ObservePersist(op string, err error) {
	persistOps.WithLabelValues(op, result(err)).Inc()
}

// ObserveExport records an export in the given format.
func ObserveExport(format string, err error) {
	exportsTotal.WithLabelValues(format, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
