package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lab_intake"

// Metrics holds the service collectors on a private registry so that
// several instances can coexist in one process (tests).
type Metrics struct {
	Registry *prometheus.Registry

	SamplesSubmitted   prometheus.Counter
	UnitsSubmitted     *prometheus.CounterVec
	ValidationFailures prometheus.Counter
	PINVerifications   *prometheus.CounterVec
	ActiveReservations prometheus.Gauge
	RequestDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		SamplesSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_submitted_total",
			Help:      "Samples persisted through the submission endpoint.",
		}),
		UnitsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_submitted_total",
			Help:      "Units persisted, by department code.",
		}, []string{"department"}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Submissions rejected by batch validation.",
		}),
		PINVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pin_verifications_total",
			Help:      "Technician PIN checks, by result.",
		}, []string{"result"}),
		ActiveReservations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_reservations",
			Help:      "Sample numbers currently reserved by open forms.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
