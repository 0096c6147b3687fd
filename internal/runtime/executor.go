package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/guardrail"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/google/uuid"
)

// Executor runs conversation turns: filters, handler invocation, tools,
// handoffs and persistence, one turn per conversation at a time.
type Executor struct {
	sessions   *session.Manager
	registries *registry.Set
	filters    *guardrail.Pipeline
	reasoner   ports.Reasoner

	hooks             domain.LifecycleHooks
	logger            *slog.Logger
	maxSteps          int
	invocationTimeout time.Duration
	now               func() time.Time
	newID             func() string
}

// New creates an Executor. The canonical safety filters are installed unless
// WithPipeline replaces them.
func New(sessions *session.Manager, registries *registry.Set, reasoner ports.Reasoner, opts ...Option) *Executor {
	e := &Executor{
		sessions:          sessions,
		registries:        registries,
		reasoner:          reasoner,
		logger:            logging.NewNop(),
		maxSteps:          DefaultMaxSteps,
		invocationTimeout: DefaultInvocationTimeout,
		now:               time.Now,
		newID:             uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.filters == nil {
		e.filters = guardrail.NewPipeline(guardrail.WithLogger(e.logger))
	}
	return e
}

// Registries exposes the registry set, for transports listing handlers.
func (e *Executor) Registries() *registry.Set {
	return e.registries
}

// Handlers describes the handlers of the current registry version.
func (e *Executor) Handlers() []domain.HandlerInfo {
	return e.registries.Current().Describe()
}

// Bootstrap starts a new conversation without running any filter or handler.
func (e *Executor) Bootstrap(ctx context.Context) (*domain.TurnResult, error) {
	return e.RunTurn(ctx, "", "")
}

// RunTurn processes one inbound message. An empty or unknown conversationID
// starts a new conversation under a fresh identifier.
//
// Filter rejections and handler failures are reported in the result, never
// as an error. The error return is reserved for store failures and for a
// canceled ctx, in which case nothing from the turn is persisted.
func (e *Executor) RunTurn(ctx context.Context, conversationID, message string) (*domain.TurnResult, error) {
	id, err := e.resolveID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	var res *domain.TurnResult
	err = e.sessions.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		res, err = e.runLocked(ctx, id, message)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// resolveID keeps known identifiers and replaces unknown ones.
func (e *Executor) resolveID(ctx context.Context, id string) (string, error) {
	if id == "" {
		return e.newID(), nil
	}
	_, err := e.sessions.Store().Load(ctx, id)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, domain.ErrConversationNotFound):
		e.logger.DebugContext(ctx, "Unknown conversation, starting a new one", "requested", id)
		return e.newID(), nil
	default:
		return "", fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
}

func (e *Executor) start(id string) *domain.Conversation {
	reg := e.registries.Current()
	conv := domain.NewConversation(id, reg.Triage(), reg.NewContext())
	conv.RegistryVersion = reg.Version()
	return conv
}

func (e *Executor) runLocked(ctx context.Context, id, message string) (*domain.TurnResult, error) {
	started := e.now()

	before, created, err := e.sessions.LoadOrStartLocked(ctx, id, e.start)
	if err != nil {
		return nil, err
	}
	if created {
		e.logger.InfoContext(ctx, "Conversation started", "conversation_id", id, "registry", before.RegistryVersion)
	}

	reg := e.registries.Get(before.RegistryVersion)
	t := newTurn(e, reg, before, message)
	e.emitTurnStart(ctx, id, t.owner)

	if message == "" {
		e.emitTurnEnd(ctx, id, t.owner, domain.OutcomeSkipped, started)
		return t.result(before), nil
	}

	outcome, commit, err := e.play(ctx, t)
	if err == nil && commit != nil {
		commit.UpdatedAt = e.now().UTC()
		if serr := e.sessions.Store().Save(ctx, id, commit); serr != nil {
			err = fmt.Errorf("failed to save conversation %s: %w", id, serr)
		}
	}
	if err != nil {
		e.emitTurnEnd(ctx, id, t.owner, domain.OutcomeFailed, started)
		return nil, err
	}

	res := t.result(t.view(commit))
	res.Failed = outcome == domain.OutcomeFailed

	e.logger.InfoContext(ctx, "Turn finished",
		"conversation_id", id,
		"handler", res.CurrentHandler,
		"outcome", outcome,
		"messages", len(res.Messages),
	)
	e.emitTurnEnd(ctx, id, res.CurrentHandler, outcome, started)
	return res, nil
}

// play runs filters and the handler loop. It returns the conversation to
// persist, or nil when nothing from the turn may be written.
func (e *Executor) play(ctx context.Context, t *turn) (domain.TurnOutcome, *domain.Conversation, error) {
	handler := t.reg.Resolve(t.owner)
	t.work.Append(domain.Entry{Role: domain.RoleUser, Content: t.message})

	t.outcomes = e.filters.Run(ctx, handler.Filters, t.message, t.work.Context)
	t.work.Filters = t.outcomes
	e.emitFilters(ctx, t.id, handler.Name, t.outcomes)
	if ctx.Err() != nil {
		return "", nil, fmt.Errorf("turn abandoned: %w", ctx.Err())
	}

	if failed, ok := domain.FirstFailure(t.outcomes); ok {
		e.logger.InfoContext(ctx, "Message rejected",
			"conversation_id", t.id,
			"handler", handler.Name,
			"filter", failed.Name,
			"rationale", failed.Rationale,
		)
		t.refuse(t.work)
		return domain.OutcomeRejected, t.work, nil
	}

	err := t.loop(ctx)
	if err == nil {
		t.contextUpdate()
		t.work.Events = append(t.work.Events, t.events...)
		return domain.OutcomeCompleted, t.work, nil
	}

	if ctx.Err() != nil {
		return "", nil, fmt.Errorf("turn abandoned: %w", ctx.Err())
	}

	var trip *guardrail.TripwireError
	if errors.As(err, &trip) {
		e.logger.InfoContext(ctx, "Guardrail tripped during invocation",
			"conversation_id", t.id,
			"filter", trip.Filter,
			"rationale", trip.Rationale,
		)
		kept := t.tripped(ctx, trip)
		return domain.OutcomeRejected, kept, nil
	}

	e.logger.ErrorContext(ctx, "Turn failed", "conversation_id", t.id, "handler", t.current, "err", err)
	t.fail(err)
	return domain.OutcomeFailed, nil, nil
}

// Snapshot returns the full replayable view of a stored conversation.
func (e *Executor) Snapshot(ctx context.Context, conversationID string) (*domain.Snapshot, error) {
	conv, err := e.sessions.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	reg := e.registries.Get(conv.RegistryVersion)
	return &domain.Snapshot{
		ConversationID: conv.ID,
		CurrentHandler: reg.Resolve(conv.CurrentHandler).Name,
		History:        nonNil(conv.History),
		Context:        conv.Context.Snapshot(),
		Handlers:       reg.Describe(),
		Events:         nonNil(conv.Events),
		FilterOutcomes: nonNil(conv.Filters),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
