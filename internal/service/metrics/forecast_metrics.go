// Package metrics exposes model-level Prometheus metrics for the compute
// commands.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	FitLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finbot",
			Subsystem: "forecast",
			Name:      "fit_seconds",
			Help:      "Time spent fitting and predicting a forecast model",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)

	FitErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finbot",
			Subsystem: "forecast",
			Name:      "errors_total",
			Help:      "Forecast model failures",
		},
		[]string{"model"},
	)

	Simulations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finbot",
			Subsystem: "montecarlo",
			Name:      "runs_total",
			Help:      "Monte-Carlo runs by caller",
		},
		[]string{"caller"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(FitLatency, FitErrors, Simulations)
	})
}

// ObserveFit records one model run.
func ObserveFit(model string, start time.Time, err error) {
	Register()
	FitLatency.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		FitErrors.WithLabelValues(model).Inc()
	}
}

// ObserveSimulation counts a Monte-Carlo run.
func ObserveSimulation(caller string) {
	Register()
	Simulations.WithLabelValues(caller).Inc()
}
