package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Reasoner is the handler invocation boundary. Given the handler's view of the
// conversation it decides the next step: answer, call tools, or hand off.
//
// Implementations must not mutate the invocation; the Context field is a copy.
// Returning an error aborts the turn as an invocation failure, unless the error
// is a *guardrail.TripwireError raised by a filter the reasoner consulted.
type Reasoner interface {
	Next(ctx context.Context, inv domain.Invocation) (domain.Decision, error)
}

// ReasonerFunc adapts a function to the Reasoner interface.
type ReasonerFunc func(ctx context.Context, inv domain.Invocation) (domain.Decision, error)

// Next implements Reasoner.
func (f ReasonerFunc) Next(ctx context.Context, inv domain.Invocation) (domain.Decision, error) {
	return f(ctx, inv)
}

// Classifier answers a yes/no question about a single message, with a rationale.
// It is the boundary for model-backed safety filters.
type Classifier interface {
	Classify(ctx context.Context, instructions, input string) (flagged bool, rationale string, err error)
}
