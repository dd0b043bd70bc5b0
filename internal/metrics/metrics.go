// Package metrics exposes Prometheus instrumentation for the engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deadline_engine"

// Metrics owns a private registry; every instance is independent.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	deadlinesCreated *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	sourceErrors     *prometheus.CounterVec
	alertLevels      *prometheus.GaugeVec
	lastSweep        prometheus.Gauge
	httpDuration     *prometheus.HistogramVec
}

// New creates and registers the metrics. withRuntime adds Go and process collectors.
func New(withRuntime bool) *Metrics {
	registry := prometheus.NewRegistry()
	if withRuntime {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		)
	}

	m := &Metrics{
		registry: registry,
		deadlinesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deadlines_created_total",
			Help:      "Deadlines opened, by deadline type.",
		}, []string{"type"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Lifecycle transitions attempted, by action and result.",
		}, []string{"action", "result"}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "holiday_source_errors_total",
			Help:      "Failed holiday source reads, by source.",
		}, []string{"source"}),
		alertLevels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alert_level_deadlines",
			Help:      "Open deadlines per alert level at the last sweep.",
		}, []string{"level"}),
		lastSweep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time of the last completed sweep.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}

	registry.MustRegister(
		m.deadlinesCreated,
		m.transitions,
		m.sourceErrors,
		m.alertLevels,
		m.lastSweep,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) DeadlineCreated(deadlineType string) {
	if m == nil {
		return
	}
	m.deadlinesCreated.WithLabelValues(deadlineType).Inc()
}

// Transition counts a suspend/resume/fulfil/overdue attempt
func (m *Metrics) Transition(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.transitions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) HolidaySourceError(source string) {
	if m == nil {
		return
	}
	m.sourceErrors.WithLabelValues(source).Inc()
}

// SetAlertLevels replaces the per-level gauge values
func (m *Metrics) SetAlertLevels(counts map[string]int, at time.Time) {
	if m == nil {
		return
	}
	m.alertLevels.Reset()
	for level, n := range counts {
		m.alertLevels.WithLabelValues(level).Set(float64(n))
	}
	m.lastSweep.Set(float64(at.Unix()))
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
