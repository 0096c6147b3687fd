package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventMessage       EventType = "message"
	EventHandoff       EventType = "handoff"
	EventToolCall      EventType = "tool_call"
	EventToolOutput    EventType = "tool_output"
	EventContextUpdate EventType = "context_update"
	EventError         EventType = "error"
)

// Event is one entry of the operator-facing activity log of a turn.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Handler   string         `json:"handler"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp int64          `json:"timestamp"` // Unix milliseconds
}

func (e Event) clone() Event {
	if e.Metadata != nil {
		meta := make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			meta[k] = v
		}
		e.Metadata = meta
	}
	return e
}

// TurnOutcome classifies how a turn ended.
type TurnOutcome string

const (
	OutcomeCompleted TurnOutcome = "completed"
	OutcomeRejected  TurnOutcome = "rejected"
	OutcomeFailed    TurnOutcome = "failed"
	OutcomeSkipped   TurnOutcome = "skipped"
)

// TurnEvent describes the start or the end of a turn.
type TurnEvent struct {
	ConversationID string
	Handler        string
	Outcome        TurnOutcome // empty on start
	Duration       time.Duration
}

// FilterEvent reports a single filter verdict.
type FilterEvent struct {
	ConversationID string
	Handler        string
	Outcome        FilterOutcome
}

// HandoffEvent reports an ownership transfer.
type HandoffEvent struct {
	ConversationID string
	From           string
	To             string
	// Degraded is true when the requested target was unknown or not declared
	// and ownership fell back to triage.
	Degraded bool
}

// ToolEvent represents a tool execution.
type ToolEvent struct {
	ConversationID string
	Handler        string
	ToolName       string
	Args           map[string]any `json:"args,omitempty"`
	Output         string         `json:"output,omitempty"`
	IsError        bool           `json:"is_error,omitempty"`
	Duration       time.Duration
}

// LifecycleHooks defines callbacks for engine observability.
// Every hook is optional.
type LifecycleHooks struct {
	OnTurnStart  func(context.Context, *TurnEvent)
	OnTurnEnd    func(context.Context, *TurnEvent)
	OnFilter     func(context.Context, *FilterEvent)
	OnHandoff    func(context.Context, *HandoffEvent)
	OnToolCall   func(context.Context, *ToolEvent)
	OnToolReturn func(context.Context, *ToolEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTurnStart:  chain(h.OnTurnStart, other.OnTurnStart),
		OnTurnEnd:    chain(h.OnTurnEnd, other.OnTurnEnd),
		OnFilter:     chain(h.OnFilter, other.OnFilter),
		OnHandoff:    chain(h.OnHandoff, other.OnHandoff),
		OnToolCall:   chain(h.OnToolCall, other.OnToolCall),
		OnToolReturn: chain(h.OnToolReturn, other.OnToolReturn),
	}
}

func chain[T any](a, b func(context.Context, *T)) func(context.Context, *T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *T) {
		a(ctx, e)
		b(ctx, e)
	}
}
