package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the workflow collectors.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	polls       *prometheus.CounterVec
	pollLatency prometheus.Histogram
	pollRows    prometheus.Gauge
	notices     *prometheus.CounterVec
	submissions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telelab_workflow_transitions_total",
				Help: "Workflow status transitions",
			},
			[]string{"from", "to"},
		),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telelab_truth_table_polls_total",
				Help: "Truth table polls by outcome",
			},
			[]string{"outcome"},
		),
		pollLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "telelab_truth_table_poll_duration_seconds",
				Help:    "Duration of truth table polls",
				Buckets: prometheus.DefBuckets,
			},
		),
		pollRows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "telelab_truth_table_rows",
				Help: "Output rows returned by the last successful poll",
			},
		),
		notices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telelab_notifications_total",
				Help: "User-visible error notifications by operation",
			},
			[]string{"operation"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telelab_submissions_total",
				Help: "Truth table submissions by outcome",
			},
			[]string{"outcome"},
		),
	}
	m.registry.MustRegister(m.transitions, m.polls, m.pollLatency, m.pollRows, m.notices, m.submissions)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks records every lifecycle event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(_ context.Context, e *domain.StateEvent) {
			m.transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
		OnPoll: func(_ context.Context, e *domain.PollEvent) {
			m.pollLatency.Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.polls.WithLabelValues("error").Inc()
				return
			}
			m.polls.WithLabelValues("ok").Inc()
			m.pollRows.Set(float64(e.Rows))
		},
		OnNotify: func(_ context.Context, e *domain.NotifyEvent) {
			m.notices.WithLabelValues(e.Operation).Inc()
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.submissions.WithLabelValues(outcome).Inc()
		},
	}
}
