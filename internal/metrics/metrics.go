// Package metrics exposes Prometheus counters for the scan path.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/serroba/qr-tracker/internal/analytics"
)

// Scan outcomes.
const (
	OutcomeRedirect = "redirect"
	OutcomeContent  = "content"
	OutcomeNotFound = "not_found"
	OutcomeExpired  = "expired"
	OutcomeInactive = "inactive"
	OutcomeError    = "error"
)

// Metrics owns a private registry so tests and multiple servers never collide.
type Metrics struct {
	registry     *prometheus.Registry
	scans        *prometheus.CounterVec
	scanDuration prometheus.Histogram
	rateLimited  *prometheus.CounterVec
	events       *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		scans: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qr_scans_total",
			Help: "Scans handled, by outcome.",
		}, []string{"outcome"}),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "qr_scan_duration_seconds",
			Help:    "Time spent serving a scan.",
			Buckets: prometheus.DefBuckets,
		}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qr_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by scope.",
		}, []string{"scope"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qr_analytics_events_total",
			Help: "Analytics events stored, by type and uniqueness.",
		}, []string{"type", "unique"}),
	}
}

// ScanServed counts a scan and how long it took.
func (m *Metrics) ScanServed(outcome string, took time.Duration) {
	m.scans.WithLabelValues(outcome).Inc()
	m.scanDuration.Observe(took.Seconds())
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited(scope string) {
	m.rateLimited.WithLabelValues(scope).Inc()
}

// EventRecorded counts a stored analytics event.
func (m *Metrics) EventRecorded(eventType analytics.EventType, unique bool) {
	m.events.WithLabelValues(string(eventType), strconv.FormatBool(unique)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var _ analytics.Observer = (*Metrics)(nil)
