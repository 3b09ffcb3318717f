package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/ayr/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ayr"

// Metrics records controller transitions and remote calls.
type Metrics struct {
	registry *prometheus.Registry

	transitions  *prometheus.CounterVec
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	problems     *prometheus.GaugeVec
}

// MetricsOption configures Metrics.
type MetricsOption func(*metricsConfig)

type metricsConfig struct {
	runtimeCollectors bool
}

// WithRuntimeCollectors also exports Go runtime and process metrics.
func WithRuntimeCollectors() MetricsOption {
	return func(c *metricsConfig) {
		c.runtimeCollectors = true
	}
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	var cfg metricsConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Controller actions by resulting phase.",
			},
			[]string{"action", "from", "to"},
		),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Runtime calls by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "Latency of runtime calls.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		problems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "problems",
				Help:      "Problems held after the latest transition, by kind.",
			},
			[]string{"kind"},
		),
	}

	m.registry.MustRegister(m.transitions, m.calls, m.callDuration, m.problems)
	if cfg.runtimeCollectors {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(e.Action, string(e.From), string(e.To)).Inc()
			m.problems.WithLabelValues(string(domain.KindError)).Set(float64(e.Summary.TotalErrors))
			m.problems.WithLabelValues(string(domain.KindWarning)).Set(float64(e.Summary.TotalWarnings))
			m.problems.WithLabelValues(string(domain.KindBug)).Set(float64(e.Summary.TotalBugs))
		},
		OnRemoteCall: func(_ context.Context, e *domain.CallEvent) {
			m.calls.WithLabelValues(e.Op, string(e.Outcome)).Inc()
			if e.Outcome != domain.OutcomeStale {
				m.callDuration.WithLabelValues(e.Op).Observe(e.Duration.Seconds())
			}
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
