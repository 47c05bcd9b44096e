// Package metrics exposes the Prometheus collectors of the service on a
// dedicated registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sheet_insights"

// Metrics holds every collector the service records to.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	normalizations *prometheus.CounterVec
	normalizedRows *prometheus.CounterVec
	sessionsPurged *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		normalizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalizations_total",
			Help:      "Normalize runs by result.",
		}, []string{"result"}),
		normalizedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalized_rows_total",
			Help:      "Uploaded rows by what normalization did with them.",
		}, []string{"outcome"}),
		sessionsPurged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_purged_total",
			Help:      "Sessions and upload files removed by the retention sweeper.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.normalizations,
		m.normalizedRows,
		m.sessionsPurged,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveNormalization records a normalize run. result is "ok",
// "decode_error" or "error".
func (m *Metrics) ObserveNormalization(result string) {
	if m == nil {
		return
	}
	m.normalizations.WithLabelValues(result).Inc()
}

// ObserveRows records what happened to the rows of one upload.
func (m *Metrics) ObserveRows(kept, duplicates, invalid int) {
	if m == nil {
		return
	}
	m.normalizedRows.WithLabelValues("kept").Add(float64(kept))
	m.normalizedRows.WithLabelValues("duplicate").Add(float64(duplicates))
	m.normalizedRows.WithLabelValues("invalid").Add(float64(invalid))
}

// ObservePurge records a retention sweep.
func (m *Metrics) ObservePurge(sessions, files int) {
	if m == nil {
		return
	}
	m.sessionsPurged.WithLabelValues("session").Add(float64(sessions))
	m.sessionsPurged.WithLabelValues("upload").Add(float64(files))
}
