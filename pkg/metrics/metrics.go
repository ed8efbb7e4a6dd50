// Package metrics provides Prometheus metrics for the registration server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Connections
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// Events
	EventsTotal    *prometheus.CounterVec
	EventsDropped  prometheus.Counter
	EventErrors    *prometheus.CounterVec
	EventDuration  prometheus.Histogram
	RenderDuration prometheus.Histogram

	// Submissions
	SubmitsTotal     *prometheus.CounterVec
	PanelValidations *prometheus.CounterVec
}

// New registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	buckets := []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25}

	return &Metrics{
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "regform_sessions_active",
			Help: "Number of connected form sessions",
		}),
		SessionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "regform_sessions_total",
			Help: "Total form sessions established",
		}),
		EventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regform_events_total",
			Help: "Form events handled, by event name",
		}, []string{"event"}),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "regform_events_dropped_total",
			Help: "Events dropped by the per-session rate limit",
		}),
		EventErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regform_event_errors_total",
			Help: "Events rejected by the form, by event name",
		}, []string{"event"}),
		EventDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "regform_event_duration_seconds",
			Help:    "Time spent handling one event",
			Buckets: buckets,
		}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "regform_render_duration_seconds",
			Help:    "Time spent rendering the form",
			Buckets: buckets,
		}),
		SubmitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regform_submits_total",
			Help: "Submit attempts, by outcome (allowed or blocked)",
		}, []string{"outcome"}),
		PanelValidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regform_panel_validation_failures_total",
			Help: "Submit-time validation failures, by panel",
		}, []string{"panel"}),
	}
}

// SessionOpened records a new connection.
func (m *Metrics) SessionOpened() {
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

// SessionClosed records a closed connection.
func (m *Metrics) SessionClosed() {
	m.SessionsActive.Dec()
}

// ObserveEvent records a handled event. Call with time.Now() taken before
// the event ran.
func (m *Metrics) ObserveEvent(event string, start time.Time, err error) {
	m.EventsTotal.WithLabelValues(event).Inc()
	m.EventDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.EventErrors.WithLabelValues(event).Inc()
	}
}

// ObserveRender records a render duration.
func (m *Metrics) ObserveRender(start time.Time) {
	m.RenderDuration.Observe(time.Since(start).Seconds())
}

// ObserveSubmit records a submit outcome and the panels that failed.
func (m *Metrics) ObserveSubmit(allowed bool, failedPanels []string) {
	outcome := "blocked"
	if allowed {
		outcome = "allowed"
	}
	m.SubmitsTotal.WithLabelValues(outcome).Inc()
	for _, p := range failedPanels {
		m.PanelValidations.WithLabelValues(p).Inc()
	}
}

// EventDropped records an event dropped by the rate limit.
func (m *Metrics) EventDropped() {
	m.EventsDropped.Inc()
}
