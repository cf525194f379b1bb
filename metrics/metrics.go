// Package metrics exposes prometheus counters for the propagation engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	integratorSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smd_integrator_steps_total",
			Help: "Integration steps by tableau and outcome (accepted, rejected, forced).",
		},
		[]string{"tableau", "outcome"},
	)

	propagatorUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smd_propagator_updates_total",
			Help: "Propagator updates by propagator type and result.",
		},
		[]string{"type", "result"},
	)

	propagatorDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smd_propagator_update_duration_seconds",
			Help:    "Propagator update duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		},
		[]string{"type"},
	)

	inversions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smd_inversions_total",
			Help: "Mean element inversions by result (converged, degraded, failed).",
		},
		[]string{"result"},
	)

	inversionIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "smd_inversion_iterations",
			Help:    "Newton-Raphson iterations per inversion.",
			Buckets: prometheus.LinearBuckets(1, 5, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(integratorSteps)
	prometheus.MustRegister(propagatorUpdates)
	prometheus.MustRegister(propagatorDurationSeconds)
	prometheus.MustRegister(inversions)
	prometheus.MustRegister(inversionIterations)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IntegratorStep records one integration step outcome.
func IntegratorStep(tableau, outcome string) {
	integratorSteps.WithLabelValues(tableau, outcome).Inc()
}

// PropagatorUpdate records an update and its duration.
func PropagatorUpdate(typ string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	propagatorUpdates.WithLabelValues(typ, result).Inc()
	propagatorDurationSeconds.WithLabelValues(typ).Observe(time.Since(start).Seconds())
}

// Inversion records the result of an inversion.
func Inversion(result string, iterations int) {
	inversions.WithLabelValues(result).Inc()
	inversionIterations.Observe(float64(iterations))
}
