// Package monitor is the fire-and-forget observability sink the services report
// to. Events and metric samples are recorded if a sink is configured and
// silently dropped otherwise; core behavior never depends on the sink.
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sink receives named events and metric samples.
type Sink interface {
	Event(name string)
	Metric(name string, value float64)
}

// PrometheusSink exposes events as counters and samples as gauges on /metrics.
type PrometheusSink struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	samples  *prometheus.GaugeVec
}

// NewPrometheusSink builds a sink with its own registry.
func NewPrometheusSink(namespace string) *PrometheusSink {
	registry := prometheus.NewRegistry()

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Named application events.",
		},
		[]string{"event"},
	)
	samples := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sample",
			Help:      "Last recorded value per named sample.",
		},
		[]string{"name"},
	)

	registry.MustRegister(events, samples)

	return &PrometheusSink{
		registry: registry,
		events:   events,
		samples:  samples,
	}
}

// Event increments the counter for name.
func (s *PrometheusSink) Event(name string) {
	s.events.WithLabelValues(name).Inc()
}

// Metric records the latest value for name.
func (s *PrometheusSink) Metric(name string, value float64) {
	s.samples.WithLabelValues(name).Set(value)
}

// Handler serves the sink's registry in prometheus exposition format.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Event(string)          {}
func (NopSink) Metric(string, float64) {}
