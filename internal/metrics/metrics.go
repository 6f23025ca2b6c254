// Package metrics exposes Prometheus instrumentation for validation runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/csvgate/internal/core"
)

const namespace = "csvgate"

// Result label values.
const (
	ResultPass  = "pass"
	ResultFail  = "fail"
	ResultError = "error"
)

// Metrics holds the validation collectors and the registry they live on.
// It implements core.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	ValidationsTotal   *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec
	InFlight           prometheus.Gauge
	RowsValidated      prometheus.Counter
	LimiterRejections  prometheus.Counter
}

// New registers the collectors on a fresh registry, together with the
// standard Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Validation runs by mode, result and failure kind",
			},
			[]string{"mode", "result", "kind"}, // result: pass|fail|error
		),
		ValidationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Duration of validation runs",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms..16s
			},
			[]string{"mode"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "validations_in_flight",
			Help:      "Validation runs currently in progress",
		}),
		RowsValidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_validated_total",
			Help:      "Data rows read by completed validation runs",
		}),
		LimiterRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limiter_rejections_total",
			Help:      "Requests rejected because no validation slot freed up in time",
		}),
	}

	m.registry.MustRegister(
		m.ValidationsTotal,
		m.ValidationDuration,
		m.InFlight,
		m.RowsValidated,
		m.LimiterRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ValidationStarted implements core.Recorder.
func (m *Metrics) ValidationStarted(core.Mode) {
	m.InFlight.Inc()
}

// ValidationFinished implements core.Recorder.
func (m *Metrics) ValidationFinished(o core.Outcome) {
	m.InFlight.Dec()

	result := ResultPass
	switch {
	case o.OK:
	case o.Err != nil:
		result = ResultFail
	default:
		result = ResultError
	}

	m.ValidationsTotal.WithLabelValues(string(o.Mode), result, o.Kind()).Inc()
	m.ValidationDuration.WithLabelValues(string(o.Mode)).Observe(o.Duration.Seconds())
	m.RowsValidated.Add(float64(o.Rows))
}

// LimiterRejected counts a request turned away by the validation limiter.
func (m *Metrics) LimiterRejected() {
	m.LimiterRejections.Inc()
}
