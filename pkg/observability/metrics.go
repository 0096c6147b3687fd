package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "switchboard"

// Metrics holds the collectors updated by the lifecycle hooks.
type Metrics struct {
	Turns        *prometheus.CounterVec
	TurnDuration *prometheus.HistogramVec
	Filters      *prometheus.CounterVec
	Handoffs     *prometheus.CounterVec
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	ActiveTurns  prometheus.Gauge
}

// New creates the collectors and registers them on reg.
// A nil reg leaves them unregistered, which is handy in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Turns processed, by final outcome.",
			},
			[]string{"outcome"},
		),
		TurnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Wall time of a turn, including persistence.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		Filters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filter_outcomes_total",
				Help:      "Safety filter verdicts.",
			},
			[]string{"filter", "passed"},
		),
		Handoffs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handoffs_total",
				Help:      "Ownership transfers between handlers.",
			},
			[]string{"from", "to", "degraded"},
		),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Tool executions, by tool and result.",
			},
			[]string{"tool", "is_error"},
		),
		ToolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_duration_seconds",
				Help:      "Duration of tool executions.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		ActiveTurns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_turns",
			Help:      "Turns currently holding a conversation lock.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Turns, m.TurnDuration, m.Filters, m.Handoffs, m.ToolCalls, m.ToolDuration, m.ActiveTurns)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(context.Context, *domain.TurnEvent) {
			m.ActiveTurns.Inc()
		},
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) {
			m.ActiveTurns.Dec()
			m.Turns.WithLabelValues(string(e.Outcome)).Inc()
			m.TurnDuration.WithLabelValues(string(e.Outcome)).Observe(e.Duration.Seconds())
		},
		OnFilter: func(_ context.Context, e *domain.FilterEvent) {
			m.Filters.WithLabelValues(e.Outcome.Name, strconv.FormatBool(e.Outcome.Passed)).Inc()
		},
		OnHandoff: func(_ context.Context, e *domain.HandoffEvent) {
			m.Handoffs.WithLabelValues(e.From, e.To, strconv.FormatBool(e.Degraded)).Inc()
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			m.ToolCalls.WithLabelValues(e.ToolName, strconv.FormatBool(e.IsError)).Inc()
			m.ToolDuration.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
	}
}
