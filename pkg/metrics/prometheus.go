package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	commandsTotal  *prometheus.CounterVec
	commandLatency *prometheus.HistogramVec
	providerErrors *prometheus.CounterVec
	moverAlerts    prometheus.Counter
	queueDepth     prometheus.Gauge
}

var (
	recorder     *Recorder
	recorderOnce sync.Once
)

// New returns the process-wide recorder; collectors register once.
func New() *Recorder {
	recorderOnce.Do(func() {
		recorder = &Recorder{
			commandsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "finbot_commands_total",
					Help: "Chat commands handled, by command and status",
				},
				[]string{"command", "status"},
			),
			commandLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "finbot_command_duration_seconds",
					Help:    "Time from accept to reply per command",
					Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
				},
				[]string{"command"},
			),
			providerErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "finbot_provider_errors_total",
					Help: "Errors returned by market data providers",
				},
				[]string{"provider"},
			),
			moverAlerts: promauto.NewCounter(prometheus.CounterOpts{
				Name: "finbot_mover_alerts_total",
				Help: "Mover alerts emitted",
			}),
			queueDepth: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "finbot_pipeline_queue_depth",
				Help: "Commands waiting for a pipeline worker",
			}),
		}
	})
	return recorder
}

func (r *Recorder) RecordCommand(command, status string, took time.Duration) {
	r.commandsTotal.WithLabelValues(command, status).Inc()
	r.commandLatency.WithLabelValues(command).Observe(took.Seconds())
}

func (r *Recorder) RecordProviderError(provider string) {
	r.providerErrors.WithLabelValues(provider).Inc()
}

func (r *Recorder) RecordMoverAlert() {
	r.moverAlerts.Inc()
}

func (r *Recorder) SetQueueDepth(n int) {
	r.queueDepth.Set(float64(n))
}
