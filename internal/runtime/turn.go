package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/guardrail"
	"github.com/aretw0/switchboard/pkg/handoff"
	"github.com/aretw0/switchboard/pkg/registry"
)

// turn is the working state of one RunTurn call. Nothing in it is visible to
// the store until the executor commits.
type turn struct {
	e     *Executor
	id    string
	reg   *registry.Registry
	proto *handoff.Protocol

	before  *domain.Conversation
	work    *domain.Conversation
	message string

	// owner is the handler at turn start, current the one the loop is running.
	owner   string
	current string

	messages []domain.Message
	events   []domain.Event
	outcomes []domain.FilterOutcome
}

func newTurn(e *Executor, reg *registry.Registry, before *domain.Conversation, message string) *turn {
	owner := reg.Resolve(before.CurrentHandler).Name
	work := before.Clone()
	work.CurrentHandler = owner
	return &turn{
		e:       e,
		id:      before.ID,
		reg:     reg,
		proto:   handoff.New(reg, handoff.WithLogger(e.logger)),
		before:  before,
		work:    work,
		message: message,
		owner:   owner,
		current: owner,
	}
}

// loop asks the current handler for decisions until it answers.
func (t *turn) loop(ctx context.Context) error {
	for step := 0; step < t.e.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		h := t.reg.Resolve(t.current)
		d, err := t.invoke(ctx, h)
		if err != nil {
			return err
		}

		switch d.Kind {
		case domain.DecisionMessage:
			t.say(h.Name, d.Message)
			return nil
		case domain.DecisionToolCall:
			if len(d.ToolCalls) == 0 {
				return fmt.Errorf("%w: %s requested no tools", domain.ErrInvocation, h.Name)
			}
			for _, call := range d.ToolCalls {
				if err := t.callTool(ctx, h.Name, call); err != nil {
					return err
				}
			}
		case domain.DecisionHandoff:
			if d.Handoff == nil {
				return fmt.Errorf("%w: %s requested a handoff without target", domain.ErrInvocation, h.Name)
			}
			if err := t.transfer(ctx, h.Name, *d.Handoff); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s returned unknown decision %q", domain.ErrInvocation, h.Name, d.Kind)
		}
	}
	return fmt.Errorf("%w: %w after %d steps", domain.ErrInvocation, domain.ErrStepLimit, t.e.maxSteps)
}

func (t *turn) invoke(ctx context.Context, h registry.Handler) (domain.Decision, error) {
	inv := domain.Invocation{
		ConversationID: t.id,
		Handler:        t.info(h.Name),
		Instructions:   h.Render(t.work.Context),
		Tools:          t.reg.ToolSpecs(h.Name),
		Handoffs:       options(t.reg.Edges(h.Name)),
		History:        append([]domain.Entry(nil), t.work.History...),
		Context:        t.work.Context.Clone(),
	}

	ictx, cancel := context.WithTimeout(ctx, t.e.invocationTimeout)
	defer cancel()

	d, err := t.e.reasoner.Next(ictx, inv)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("%w: %s: %w", domain.ErrInvocation, h.Name, err)
	}
	return d, nil
}

func (t *turn) say(handler, content string) {
	t.work.Append(domain.Entry{Role: domain.RoleAssistant, Content: content, Handler: handler})
	t.messages = append(t.messages, domain.Message{Content: content, Handler: handler})
	t.event(domain.EventMessage, handler, content, nil)
}

// callTool runs a tool against a scratch copy of the record. The copy is
// committed only when the tool succeeds.
func (t *turn) callTool(ctx context.Context, handler string, call domain.ToolCall) error {
	if call.ID == "" {
		call.ID = "call_" + t.e.newID()
	}
	tool, err := t.reg.Tool(handler, call.Name)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvocation, err)
	}

	t.work.Append(domain.Entry{Role: domain.RoleAssistant, Handler: handler, ToolName: call.Name, ToolCallID: call.ID})
	t.event(domain.EventToolCall, handler, call.Name, map[string]any{"tool_args": call.Args})
	t.e.emitToolCall(ctx, t.id, handler, call)

	scratch := t.work.Context.Clone()
	started := time.Now()
	out, err := runTool(ctx, tool.Fn, scratch, call.Args)
	res := domain.ToolResult{ID: call.ID, Name: call.Name, Output: out}

	var pre *domain.PreconditionError
	switch {
	case errors.As(err, &pre):
		t.e.logger.DebugContext(ctx, "Tool precondition not met", "tool", call.Name, "field", pre.Field)
		res.Output = err.Error()
		res.IsError = true
	case err != nil:
		res.Output = err.Error()
		res.IsError = true
		t.e.emitToolReturn(ctx, t.id, handler, res, time.Since(started))
		return fmt.Errorf("%w: tool %s: %w", domain.ErrInvocation, call.Name, err)
	default:
		t.work.Context = scratch
	}

	t.work.Append(domain.Entry{
		Role:       domain.RoleTool,
		Content:    res.Output,
		Handler:    handler,
		ToolName:   call.Name,
		ToolCallID: call.ID,
		IsError:    res.IsError,
	})
	meta := map[string]any{"tool_result": res.Output}
	if res.IsError {
		meta["is_error"] = true
	}
	t.event(domain.EventToolOutput, handler, res.Output, meta)
	t.e.emitToolReturn(ctx, t.id, handler, res, time.Since(started))
	return nil
}

func runTool(ctx context.Context, fn registry.ToolFunc, rec domain.Record, args map[string]any) (out string, err error) {
	if fn == nil {
		return "", errors.New("tool has no implementation")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return fn(ctx, rec, args)
}

// transfer applies a handoff decision. Argument errors go back to the
// requesting handler as a failed tool output.
func (t *turn) transfer(ctx context.Context, from string, req domain.HandoffRequest) error {
	tr, err := t.proto.Transfer(ctx, from, req.Target, t.work.Context, req.Args)

	var argErr *handoff.ArgumentError
	if errors.As(err, &argErr) {
		t.toolError(from, argErr.Edge, err.Error())
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvocation, err)
	}

	if tr.To == from {
		// Triage asked for an unknown target and degraded onto itself.
		t.toolError(from, tr.Tool, fmt.Sprintf("handler %q is not available", req.Target))
		return nil
	}

	t.work.Append(domain.Entry{Role: domain.RoleAssistant, Handler: from, ToolName: tr.Tool})
	t.event(domain.EventHandoff, from, from+" -> "+tr.To, map[string]any{
		"source_handler": from,
		"target_handler": tr.To,
	})
	if tr.Setup != "" {
		t.event(domain.EventToolCall, tr.To, tr.Setup, nil)
	}

	t.e.logger.DebugContext(ctx, "Handoff", "conversation_id", t.id, "from", from, "to", tr.To, "degraded", tr.Degraded)
	t.e.emitHandoff(ctx, t.id, from, tr.To, tr.Degraded)

	t.current = tr.To
	t.work.CurrentHandler = tr.To
	return nil
}

func (t *turn) toolError(handler, tool, msg string) {
	t.work.Append(domain.Entry{Role: domain.RoleTool, Content: msg, Handler: handler, ToolName: tool, IsError: true})
	t.event(domain.EventToolOutput, handler, msg, map[string]any{"tool_result": msg, "is_error": true})
}

// contextUpdate reports the fields the turn changed, if any.
func (t *turn) contextUpdate() {
	if changes := domain.Diff(t.before.Context, t.work.Context); changes != nil {
		t.event(domain.EventContextUpdate, t.current, "", map[string]any{"changes": changes})
	}
}

// refuse replaces the turn output with the fixed refusal and records it in conv.
func (t *turn) refuse(conv *domain.Conversation) {
	conv.Append(domain.Entry{Role: domain.RoleAssistant, Content: domain.RefusalMessage, Handler: t.owner})
	t.messages = []domain.Message{{Content: domain.RefusalMessage, Handler: t.owner}}
	t.events = nil
}

// tripped builds the conversation to keep after a mid-invocation tripwire:
// the pre-turn state plus the user message and the refusal.
func (t *turn) tripped(ctx context.Context, trip *guardrail.TripwireError) *domain.Conversation {
	failed := domain.FilterOutcome{
		ID:        t.e.newID(),
		Name:      trip.Filter,
		Input:     t.message,
		Rationale: trip.Rationale,
		Passed:    false,
		Timestamp: t.e.now().UnixMilli(),
	}
	replaced := false
	for i, o := range t.outcomes {
		if o.Name == failed.Name {
			t.outcomes[i] = failed
			replaced = true
		}
	}
	if !replaced {
		t.outcomes = append(t.outcomes, failed)
	}

	kept := t.before.Clone()
	kept.CurrentHandler = t.owner
	kept.Append(domain.Entry{Role: domain.RoleUser, Content: t.message})
	kept.Filters = t.outcomes
	t.refuse(kept)

	t.e.emitFilters(ctx, t.id, t.owner, []domain.FilterOutcome{failed})
	return kept
}

// fail reports a generic invocation failure. Nothing is persisted.
func (t *turn) fail(err error) {
	t.messages = []domain.Message{{Content: domain.RefusalMessage, Handler: t.owner}}
	t.events = nil
	t.event(domain.EventError, t.owner, err.Error(), nil)
}

func (t *turn) event(typ domain.EventType, handler, content string, meta map[string]any) {
	t.events = append(t.events, domain.Event{
		ID:        t.e.newID(),
		Type:      typ,
		Handler:   handler,
		Content:   content,
		Metadata:  meta,
		Timestamp: t.e.now().UnixMilli(),
	})
}

func (t *turn) info(name string) domain.HandlerInfo {
	for _, h := range t.reg.Describe() {
		if h.Name == name {
			return h
		}
	}
	return domain.HandlerInfo{Name: name}
}

// view is the conversation the result reports on.
func (t *turn) view(committed *domain.Conversation) *domain.Conversation {
	if committed == nil {
		return t.before
	}
	return committed
}

func (t *turn) result(conv *domain.Conversation) *domain.TurnResult {
	return &domain.TurnResult{
		ConversationID: t.id,
		CurrentHandler: t.reg.Resolve(conv.CurrentHandler).Name,
		Messages:       nonNil(t.messages),
		Events:         nonNil(t.events),
		Context:        conv.Context.Snapshot(),
		Handlers:       t.reg.Describe(),
		FilterOutcomes: nonNil(t.outcomes),
	}
}

func options(edges []handoff.Handoff) []domain.HandoffOption {
	out := make([]domain.HandoffOption, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Option())
	}
	return out
}
