// Package metrics exposes the pipeline counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "p2000"

// Metrics holds the pipeline counters. A nil *Metrics records nothing.
type Metrics struct {
	Lines      *prometheus.CounterVec
	Messages   *prometheus.CounterVec
	Geocode    *prometheus.CounterVec
	Dispatch   *prometheus.CounterVec
	SinkErrors *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the counters and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Decoder lines read, by result (parsed, rejected, filtered).",
		}, []string{"result"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Aggregation outcomes (new, merged, absorbed).",
		}, []string{"kind"}),
		Geocode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_total",
			Help:      "Geocoding outcomes by status.",
		}, []string{"status"}),
		Dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Routing decisions per sensor (posted, skipped).",
		}, []string{"sensor", "result"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed sink deliveries.",
		}, []string{"sink"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Lines, m.Messages, m.Geocode, m.Dispatch, m.SinkErrors)
	return m
}

// Line counts one decoder line.
func (m *Metrics) Line(result string) {
	if m == nil {
		return
	}
	m.Lines.WithLabelValues(result).Inc()
}

// Message counts one aggregation outcome.
func (m *Metrics) Message(kind string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(kind).Inc()
}

// GeocodeStatus counts one geocoding outcome.
func (m *Metrics) GeocodeStatus(status string) {
	if m == nil {
		return
	}
	m.Geocode.WithLabelValues(status).Inc()
}

// Decision counts one routing decision.
func (m *Metrics) Decision(sensor, result string) {
	if m == nil {
		return
	}
	m.Dispatch.WithLabelValues(sensor, result).Inc()
}

// SinkError counts one failed delivery.
func (m *Metrics) SinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(sink).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
