package switchboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/guardrail"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/reasoner"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/aretw0/switchboard/pkg/session"
)

// Version is the release of the library, overridden at build time with
// -ldflags "-X github.com/aretw0/switchboard.Version=...".
var Version = "0.1.0-dev"

// Engine is the high-level entry point for the switchboard library.
// It wraps the internal turn executor and provides a simplified API for consumers.
type Engine struct {
	exec       *runtime.Executor
	sessions   *session.Manager
	registries *registry.Set

	store         ports.ConversationStore
	locker        ports.DistributedLocker
	lockTTL       time.Duration
	registry      *registry.Registry
	reasoner      ports.Reasoner
	filterTimeout time.Duration
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	runtimeOpts   []runtime.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the conversation store. Defaults to an in-memory store.
func WithStore(s ports.ConversationStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker serializes turns across processes sharing the store.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithRegistry replaces the airline handler registry.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithReasoner replaces the rule-based reasoner.
func WithReasoner(r ports.Reasoner) Option {
	return func(e *Engine) {
		e.reasoner = r
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls chain.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxSteps bounds the reasoner calls of a single turn.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxSteps(n))
	}
}

// WithInvocationTimeout bounds a single reasoner call.
func WithInvocationTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithInvocationTimeout(d))
	}
}

// WithFilterTimeout bounds each safety filter evaluation.
func WithFilterTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.filterTimeout = d
	}
}

// New initializes an Engine serving the airline handlers unless told otherwise.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.registry == nil {
		reg, err := registry.Airline()
		if err != nil {
			return nil, fmt.Errorf("failed to build airline registry: %w", err)
		}
		eng.registry = reg
	}
	if eng.reasoner == nil {
		eng.reasoner = reasoner.NewRules(reasoner.WithTriage(eng.registry.Triage()), reasoner.WithLogger(eng.logger))
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker), session.WithLockTTL(eng.lockTTL))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)
	eng.registries = registry.NewSet(eng.registry)

	pipelineOpts := []guardrail.Option{guardrail.WithLogger(eng.logger)}
	if eng.filterTimeout > 0 {
		pipelineOpts = append(pipelineOpts, guardrail.WithTimeout(eng.filterTimeout))
	}

	runtimeOpts := []runtime.Option{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithPipeline(guardrail.NewPipeline(pipelineOpts...)),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)

	eng.exec = runtime.New(eng.sessions, eng.registries, eng.reasoner, runtimeOpts...)
	return eng, nil
}

// RunTurn processes one inbound message. An empty or unknown conversationID
// starts a new conversation.
func (e *Engine) RunTurn(ctx context.Context, conversationID, message string) (*domain.TurnResult, error) {
	return e.exec.RunTurn(ctx, conversationID, message)
}

// Bootstrap starts a conversation without processing a message.
func (e *Engine) Bootstrap(ctx context.Context) (*domain.TurnResult, error) {
	return e.exec.Bootstrap(ctx)
}

// Snapshot returns the stored state of a conversation.
func (e *Engine) Snapshot(ctx context.Context, conversationID string) (*domain.Snapshot, error) {
	return e.exec.Snapshot(ctx, conversationID)
}

// Handlers describes the current handler roster.
func (e *Engine) Handlers() []domain.HandlerInfo {
	return e.exec.Handlers()
}

// Registry returns the registry new conversations are pinned to.
func (e *Engine) Registry() *registry.Registry {
	return e.registries.Current()
}

// Override publishes a new registry version with changed handler text.
// Running conversations keep the version they started with.
func (e *Engine) Override(o registry.Overrides) error {
	reg, err := e.registries.Override(o)
	if err != nil {
		return err
	}
	e.logger.Info("Registry overridden", "version", reg.Version())
	return nil
}

// Sessions exposes conversation management (list, delete, inspect).
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}
