package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.New(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnTurnStart(ctx, &domain.TurnEvent{ConversationID: "c1", Handler: "Triage Agent"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveTurns))

	hooks.OnFilter(ctx, &domain.FilterEvent{Outcome: domain.FilterOutcome{Name: "Relevance Guardrail", Passed: true}})
	hooks.OnFilter(ctx, &domain.FilterEvent{Outcome: domain.FilterOutcome{Name: "Jailbreak Guardrail", Passed: false}})
	hooks.OnHandoff(ctx, &domain.HandoffEvent{From: "Triage Agent", To: "FAQ Agent"})
	hooks.OnHandoff(ctx, &domain.HandoffEvent{From: "FAQ Agent", To: "Triage Agent", Degraded: true})
	hooks.OnToolReturn(ctx, &domain.ToolEvent{ToolName: "faq_lookup_tool", Duration: 20 * time.Millisecond})
	hooks.OnToolReturn(ctx, &domain.ToolEvent{ToolName: "faq_lookup_tool", IsError: true})
	hooks.OnTurnEnd(ctx, &domain.TurnEvent{Outcome: domain.OutcomeRejected, Duration: time.Second})

	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveTurns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Filters.WithLabelValues("Jailbreak Guardrail", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Filters.WithLabelValues("Relevance Guardrail", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Handoffs.WithLabelValues("FAQ Agent", "Triage Agent", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("faq_lookup_tool", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("faq_lookup_tool", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ToolDuration))

	n, err := testutil.GatherAndCount(reg, "switchboard_turns_total", "switchboard_handoffs_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMetrics_NilRegisterer(t *testing.T) {
	m := observability.New(nil)
	m.Hooks().OnTurnEnd(context.Background(), &domain.TurnEvent{Outcome: domain.OutcomeCompleted})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues("completed")))
}
