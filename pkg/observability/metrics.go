package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records plan decisions and lifecycle events as Prometheus metrics.
type Metrics struct {
	gatherer prometheus.Gatherer

	Decisions        *prometheus.CounterVec
	DecisionErrors   *prometheus.CounterVec
	DecisionDuration *prometheus.HistogramVec
	Activations      *prometheus.CounterVec
	Deactivations    *prometheus.CounterVec
	Actions          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := newCollectors()
	reg.MustRegister(m.collectors()...)
	m.gatherer = reg
	return m
}

// NewMetricsWith registers the collectors on reg (e.g. prometheus.DefaultRegisterer).
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	m := newCollectors()
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	m.gatherer = gatherer
	return m, nil
}

func newCollectors() *Metrics {
	return &Metrics{
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plotline_decisions_total",
				Help: "Total number of plan decisions, by plan and reason",
			},
			[]string{"plan", "reason"},
		),
		DecisionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plotline_decision_errors_total",
				Help: "Total number of failed plan decisions",
			},
			[]string{"plan"},
		),
		DecisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plotline_decision_duration_seconds",
				Help:    "Duration of plan decisions",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"plan"},
		),
		Activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plotline_plan_activations_total",
				Help: "Total number of plan activations",
			},
			[]string{"plan"},
		),
		Deactivations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plotline_plan_deactivations_total",
				Help: "Total number of plan deactivations, by outcome",
			},
			[]string{"plan", "outcome"},
		),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plotline_actions_executed_total",
				Help: "Total number of actions executed by the turn loop",
			},
			[]string{"action"},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Decisions, m.DecisionErrors, m.DecisionDuration,
		m.Activations, m.Deactivations, m.Actions,
	}
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDecision: func(_ context.Context, e *domain.DecisionEvent) {
			m.DecisionDuration.WithLabelValues(e.Plan).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.DecisionErrors.WithLabelValues(e.Plan).Inc()
				return
			}
			m.Decisions.WithLabelValues(e.Plan, e.Reason).Inc()
		},
		OnPlanActivated: func(_ context.Context, e *domain.PlanEvent) {
			m.Activations.WithLabelValues(e.Plan).Inc()
		},
		OnPlanDeactivated: func(_ context.Context, e *domain.PlanEvent) {
			outcome := "abandoned"
			if e.Complete {
				outcome = "complete"
			}
			m.Deactivations.WithLabelValues(e.Plan, outcome).Inc()
		},
		OnActionExecuted: func(_ context.Context, e *domain.ActionEvent) {
			m.Actions.WithLabelValues(e.Action).Inc()
		},
	}
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
