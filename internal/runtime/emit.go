package runtime

import (
	"context"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
)

func (e *Executor) emitTurnStart(ctx context.Context, id, handler string) {
	if e.hooks.OnTurnStart != nil {
		e.hooks.OnTurnStart(ctx, &domain.TurnEvent{ConversationID: id, Handler: handler})
	}
}

func (e *Executor) emitTurnEnd(ctx context.Context, id, handler string, outcome domain.TurnOutcome, started time.Time) {
	if e.hooks.OnTurnEnd != nil {
		e.hooks.OnTurnEnd(ctx, &domain.TurnEvent{
			ConversationID: id,
			Handler:        handler,
			Outcome:        outcome,
			Duration:       time.Since(started),
		})
	}
}

func (e *Executor) emitFilters(ctx context.Context, id, handler string, outcomes []domain.FilterOutcome) {
	if e.hooks.OnFilter == nil {
		return
	}
	for _, o := range outcomes {
		e.hooks.OnFilter(ctx, &domain.FilterEvent{ConversationID: id, Handler: handler, Outcome: o})
	}
}

func (e *Executor) emitHandoff(ctx context.Context, id, from, to string, degraded bool) {
	if e.hooks.OnHandoff != nil {
		e.hooks.OnHandoff(ctx, &domain.HandoffEvent{ConversationID: id, From: from, To: to, Degraded: degraded})
	}
}

func (e *Executor) emitToolCall(ctx context.Context, id, handler string, call domain.ToolCall) {
	if e.hooks.OnToolCall != nil {
		e.hooks.OnToolCall(ctx, &domain.ToolEvent{
			ConversationID: id,
			Handler:        handler,
			ToolName:       call.Name,
			Args:           call.Args,
		})
	}
}

func (e *Executor) emitToolReturn(ctx context.Context, id, handler string, res domain.ToolResult, d time.Duration) {
	if e.hooks.OnToolReturn != nil {
		e.hooks.OnToolReturn(ctx, &domain.ToolEvent{
			ConversationID: id,
			Handler:        handler,
			ToolName:       res.Name,
			Output:         res.Output,
			IsError:        res.IsError,
			Duration:       d,
		})
	}
}
