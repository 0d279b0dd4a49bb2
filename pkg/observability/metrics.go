package observability

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "concierge"

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	Turns       prometheus.Counter
	StateVisits *prometheus.CounterVec
	ToolCalls   *prometheus.CounterVec
	ToolLatency *prometheus.HistogramVec
	Guidelines  *prometheus.CounterVec
	Journeys    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg (skipped when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of turns started.",
		}),
		StateVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_visits_total",
			Help:      "Total number of journey state visits.",
		}, []string{"journey", "kind"}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls by outcome.",
		}, []string{"tool", "outcome"}),
		ToolLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Duration of tool calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		Guidelines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guidelines_applied_total",
			Help:      "Total number of applied guidelines.",
		}, []string{"guideline", "scope"}),
		Journeys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journey_events_total",
			Help:      "Journeys entered and ended.",
		}, []string{"journey", "event"}),
	}
	if reg != nil {
		reg.MustRegister(m.Turns, m.StateVisits, m.ToolCalls, m.ToolLatency, m.Guidelines, m.Journeys)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			m.Turns.Inc()
		},
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			m.StateVisits.WithLabelValues(e.JourneyID, string(e.Kind)).Inc()
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.ToolCalls.WithLabelValues(e.ToolName, outcome).Inc()
			m.ToolLatency.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
		OnGuideline: func(ctx context.Context, e *domain.GuidelineEvent) {
			m.Guidelines.WithLabelValues(e.GuidelineID, string(e.Scope)).Inc()
		},
		OnJourneyEnter: func(ctx context.Context, e *domain.JourneyEvent) {
			m.Journeys.WithLabelValues(e.JourneyID, "entered").Inc()
		},
		OnJourneyEnd: func(ctx context.Context, e *domain.JourneyEvent) {
			m.Journeys.WithLabelValues(e.JourneyID, "ended").Inc()
		},
	}
}
