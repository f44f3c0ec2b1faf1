// Package metrics provides Prometheus instrumentation for the recall server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recall"

// Manager owns a private registry and every recall metric.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	operations       *prometheus.CounterVec
	assembleDuration prometheus.Histogram
	assembleItems    prometheus.Histogram
	memories         prometheus.Gauge
}

// NewManager creates a metrics manager with Go runtime and process collectors.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Manager{registry: registry, enabled: true}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "route"})
	m.operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Memory operations by name and outcome",
	}, []string{"op", "result"})
	m.assembleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assemble_duration_seconds",
		Help:      "Context assembly duration in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})
	m.assembleItems = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assemble_included_items",
		Help:      "Number of memories included per assembled context",
		Buckets:   prometheus.LinearBuckets(0, 2, 11),
	})
	m.memories = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "memories",
		Help:      "Number of stored memories at the last count",
	})

	registry.MustRegister(m.httpRequests, m.httpDuration, m.operations,
		m.assembleDuration, m.assembleItems, m.memories)
	return m
}

// NoOpManager returns a manager that records nothing.
func NoOpManager() *Manager {
	return &Manager{enabled: false}
}

// Enabled returns whether metrics collection is enabled.
func (m *Manager) Enabled() bool {
	return m != nil && m.enabled
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Manager) Handler() http.Handler {
	if !m.Enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records one served request. route is the router pattern,
// not the raw path, to bound label cardinality.
func (m *Manager) RecordHTTPRequest(method, route, status string, d time.Duration) {
	if !m.Enabled() {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordOperation counts a service operation and whether it failed.
func (m *Manager) RecordOperation(op string, err error) {
	if !m.Enabled() {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// RecordAssemble records one context assembly.
func (m *Manager) RecordAssemble(included int, d time.Duration) {
	if !m.Enabled() {
		return
	}
	m.assembleItems.Observe(float64(included))
	m.assembleDuration.Observe(d.Seconds())
}

// SetMemories sets the stored memory gauge.
func (m *Manager) SetMemories(n int) {
	if !m.Enabled() {
		return
	}
	m.memories.Set(float64(n))
}
