// Package metrics exposes Prometheus counters for backend fetches, exports
// and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facultydash"

// Export outcomes
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
)

type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	fetchTotal        *prometheus.CounterVec
	fetchDuration     *prometheus.HistogramVec
	exportsTotal      *prometheus.CounterVec
	exportPages       prometheus.Histogram
	staleResponses    prometheus.Counter
	activeSessions    prometheus.Gauge
}

// New creates metrics on a private registry, so several instances can coexist
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Results backend requests by endpoint and status code (0 for transport errors).",
		}, []string{"endpoint", "status"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Histogram of results backend request durations by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Graph analysis exports by outcome.",
		}, []string{"outcome"}),
		exportPages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_pages",
			Help:      "Pages per generated document.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13},
		}),
		staleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Fetch results dropped because the selection changed.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Sessions currently held in memory.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.fetchTotal,
		m.fetchDuration,
		m.exportsTotal,
		m.exportPages,
		m.staleResponses,
		m.activeSessions,
	)

	return m
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFetch records one results backend request
func (m *Metrics) ObserveFetch(endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.fetchDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ExportSucceeded records a generated document of n pages
func (m *Metrics) ExportSucceeded(pages int) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(OutcomeOK).Inc()
	m.exportPages.Observe(float64(pages))
}

// ExportFellBack records an export that was served by the printable fallback
func (m *Metrics) ExportFellBack() {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(OutcomeFallback).Inc()
}

func (m *Metrics) StaleResponse() {
	if m == nil {
		return
	}
	m.staleResponses.Inc()
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
