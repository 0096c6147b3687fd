package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/guardrail"
)

const (
	// DefaultMaxSteps bounds reasoner calls per turn.
	DefaultMaxSteps = 10
	// DefaultInvocationTimeout bounds a single reasoner call.
	DefaultInvocationTimeout = 30 * time.Second
)

// Option configures the Executor.
type Option func(*Executor)

// WithLogger sets the executor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks. Calling it more than
// once chains the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Executor) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithPipeline replaces the safety filter pipeline.
func WithPipeline(p *guardrail.Pipeline) Option {
	return func(e *Executor) {
		e.filters = p
	}
}

// WithMaxSteps sets the step budget of a turn.
func WithMaxSteps(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithInvocationTimeout sets the timeout of one reasoner call.
func WithInvocationTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.invocationTimeout = d
		}
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// WithIDGenerator overrides conversation and event id generation.
func WithIDGenerator(gen func() string) Option {
	return func(e *Executor) {
		e.newID = gen
	}
}
