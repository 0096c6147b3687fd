package guardrail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single filter evaluation.
const DefaultTimeout = 10 * time.Second

// Pipeline evaluates declared filters against a message.
type Pipeline struct {
	filters map[string]Filter
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimeout sets the per-filter timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithFilter installs or replaces a filter.
func WithFilter(f Filter) Option {
	return func(p *Pipeline) {
		p.filters[f.Name()] = f
	}
}

// NewPipeline creates a pipeline with the canonical filters installed.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		filters: make(map[string]Filter),
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, f := range []Filter{NewRelevance(), NewJailbreak()} {
		p.filters[f.Name()] = f
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Installed reports whether a filter with that name is available.
func (p *Pipeline) Installed(name string) bool {
	_, ok := p.filters[name]
	return ok
}

// Run evaluates the named filters concurrently and returns one outcome per name,
// in the given order.
func (p *Pipeline) Run(ctx context.Context, names []string, input string, rec domain.Record) []domain.FilterOutcome {
	outcomes := make([]domain.FilterOutcome, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			outcomes[i] = p.evaluate(ctx, name, input, rec.Clone())
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (p *Pipeline) evaluate(ctx context.Context, name, input string, rec domain.Record) (out domain.FilterOutcome) {
	out = domain.FilterOutcome{
		ID:    uuid.NewString(),
		Name:  name,
		Input: input,
	}
	defer func() {
		if r := recover(); r != nil {
			out.Passed = false
			out.Rationale = fmt.Sprintf("filter panicked: %v", r)
		}
		out.Timestamp = p.now().UnixMilli()
	}()

	f, ok := p.filters[name]
	if !ok {
		p.logger.Error("Declared filter is not installed", "filter", name)
		out.Rationale = "filter not available"
		return out
	}

	fctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	v, err := f.Evaluate(fctx, input, rec)
	if err != nil {
		p.logger.Warn("Filter evaluation failed", "filter", name, "err", err)
		out.Rationale = "filter error: " + err.Error()
		return out
	}
	out.Passed = v.Passed
	out.Rationale = v.Rationale
	return out
}
