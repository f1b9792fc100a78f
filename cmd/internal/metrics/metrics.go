// Package metrics holds board's Prometheus collectors.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// guard observations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "board"

// Login outcomes.
const (
	LoginSuccess  = "success"
	LoginRejected = "rejected"
	LoginError    = "error"
)

// Registration outcomes.
const (
	RegisterSuccess  = "success"
	RegisterRejected = "rejected"
	RegisterError    = "error"
)

// Metrics groups every collector exported on /metrics.
type Metrics struct {
	gatherer prometheus.Gatherer

	Logins         *prometheus.CounterVec
	Registrations  *prometheus.CounterVec
	Logouts        prometheus.Counter
	ReaperSweeps   *prometheus.CounterVec
	ReapedSessions prometheus.Counter
	HTTPDuration   *prometheus.HistogramVec
}

// New builds the collectors on a private registry, including the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: g,
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		Logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Sessions revoked through logout.",
		}),
		ReaperSweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reaper",
			Name:      "sweeps_total",
			Help:      "Expiry sweeps by result.",
		}, []string{"result"}),
		ReapedSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reaper",
			Name:      "sessions_deleted_total",
			Help:      "Expired sessions physically deleted.",
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	reg.MustRegister(
		m.Logins,
		m.Registrations,
		m.Logouts,
		m.ReaperSweeps,
		m.ReapedSessions,
		m.HTTPDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveLogin counts one login attempt.
func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

// ObserveRegister counts one registration attempt.
func (m *Metrics) ObserveRegister(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

// ObserveLogout counts one revoked session.
func (m *Metrics) ObserveLogout() {
	if m == nil {
		return
	}
	m.Logouts.Inc()
}

// ObserveSweep records a reaper pass. Its signature matches session.ReapHook.
func (m *Metrics) ObserveSweep(deleted int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ReaperSweeps.WithLabelValues("error").Inc()
		return
	}
	m.ReaperSweeps.WithLabelValues("ok").Inc()
	if deleted > 0 {
		m.ReapedSessions.Add(float64(deleted))
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}
