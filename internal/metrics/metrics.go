// Package metrics defines the analyzer's Prometheus collectors.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	Registry *prometheus.Registry

	units         *prometheus.CounterVec
	findings      *prometheus.CounterVec
	unitDuration  prometheus.Histogram
	parseFailures prometheus.Counter
	httpDuration  *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		units: f.NewCounterVec(prometheus.CounterOpts{
			Name: "egolint_units_total",
			Help: "Extension units analyzed, by verdict.",
		}, []string{"verdict"}),
		findings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "egolint_findings_total",
			Help: "Unsuppressed findings, by rule and severity.",
		}, []string{"rule", "severity"}),
		unitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "egolint_unit_duration_seconds",
			Help:    "Time spent analyzing one unit.",
			Buckets: prometheus.DefBuckets,
		}),
		parseFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "egolint_parse_failures_total",
			Help: "Source files that failed to parse.",
		}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"path", "method", "status"}),
	}
}

// WithRuntime adds the Go runtime and process collectors.
func (m *Metrics) WithRuntime() *Metrics {
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveUnit records one finished unit. m may be nil.
func (m *Metrics) ObserveUnit(verdict string, seconds float64, findings []rule.Finding, parseFailures int) {
	if m == nil {
		return
	}
	m.units.WithLabelValues(verdict).Inc()
	m.unitDuration.Observe(seconds)
	m.parseFailures.Add(float64(parseFailures))
	for _, f := range findings {
		m.findings.WithLabelValues(f.RuleID, string(f.Severity)).Inc()
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(path, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(path, method, status).Observe(seconds)
	m.httpRequests.WithLabelValues(path, method, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// WriteFile writes the registry in the textfile collector format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
