// Package metrics holds the Prometheus collectors of the advisory flow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the advisory collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	Advisories     *prometheus.CounterVec
	AdvisoryTime   prometheus.Histogram
	SearchFailures prometheus.Counter
	Constructions  *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Advisories: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "krishimitra_advisories_total",
				Help: "Total number of advisory requests by outcome",
			},
			[]string{"status"}, // status: answered|no_search_tool|search_unavailable|error
		),
		AdvisoryTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "krishimitra_advisory_duration_seconds",
				Help:    "Advisory request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
		),
		SearchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "krishimitra_search_failures_total",
				Help: "Total number of search calls replaced by the fallback context",
			},
		),
		Constructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "krishimitra_resource_constructions_total",
				Help: "Total number of cached resource constructions by resource and result",
			},
			[]string{"resource", "result"}, // result: success|error
		),
	}

	m.registry.MustRegister(
		m.Advisories,
		m.AdvisoryTime,
		m.SearchFailures,
		m.Constructions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAdvisory records one finished advisory.
func (m *Metrics) ObserveAdvisory(status string, started time.Time) {
	if m == nil {
		return
	}
	m.Advisories.WithLabelValues(status).Inc()
	m.AdvisoryTime.Observe(time.Since(started).Seconds())
}

// ObserveSearchFailure records a search call that fell back.
func (m *Metrics) ObserveSearchFailure() {
	if m == nil {
		return
	}
	m.SearchFailures.Inc()
}

// ObserveConstruction records one attempt to build a cached resource.
func (m *Metrics) ObserveConstruction(resource string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.Constructions.WithLabelValues(resource, result).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
