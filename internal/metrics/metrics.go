// Package metrics exposes Prometheus counters for the evaluation workflow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "valorador"

type Metrics struct {
	registry *prometheus.Registry

	extracted          *prometheus.CounterVec
	extractDuration    *prometheus.HistogramVec
	scored             *prometheus.CounterVec
	validationFailures prometheus.Counter
	exports            *prometheus.CounterVec
}

// New builds a Metrics on its own registry, so tests can create as many as
// they like without colliding on the global one.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		extracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_extracted_total",
			Help:      "Uploaded documents processed, by format and result.",
		}, []string{"format", "result"}),
		extractDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent extracting text from an upload.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"format"}),
		scored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_scored_total",
			Help:      "Score sheets accepted, by verdict.",
		}, []string{"verdict"}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Score sheets rejected by validation.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Export attempts, by format and result.",
		}, []string{"format", "result"}),
	}
	m.registry.MustRegister(
		m.extracted, m.extractDuration, m.scored, m.validationFailures, m.exports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// ObserveExtraction records one extraction. format is empty when the upload
// could not be identified.
func (m *Metrics) ObserveExtraction(format string, ok bool, d time.Duration) {
	if format == "" {
		format = "unknown"
	}
	m.extracted.WithLabelValues(format, result(ok)).Inc()
	m.extractDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (m *Metrics) Scored(verdict string) { m.scored.WithLabelValues(verdict).Inc() }

func (m *Metrics) ValidationFailed() { m.validationFailures.Inc() }

func (m *Metrics) Exported(format string, ok bool) {
	m.exports.WithLabelValues(format, result(ok)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
