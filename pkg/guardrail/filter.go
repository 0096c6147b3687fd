package guardrail

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Verdict is the answer of one filter.
type Verdict struct {
	Passed    bool
	Rationale string
}

// Pass is a passing verdict.
func Pass(rationale string) Verdict { return Verdict{Passed: true, Rationale: rationale} }

// Fail is a failing verdict.
func Fail(rationale string) Verdict { return Verdict{Passed: false, Rationale: rationale} }

// Filter is an independent pass/fail classifier over the latest user message.
// rec is a read-only copy of the conversation's Record.
type Filter interface {
	Name() string
	Evaluate(ctx context.Context, input string, rec domain.Record) (Verdict, error)
}

// FilterFunc adapts a function into a Filter.
type FilterFunc struct {
	FilterName string
	Fn         func(ctx context.Context, input string, rec domain.Record) (Verdict, error)
}

func (f FilterFunc) Name() string { return f.FilterName }

func (f FilterFunc) Evaluate(ctx context.Context, input string, rec domain.Record) (Verdict, error) {
	return f.Fn(ctx, input, rec)
}

// TripwireError is raised when a filter fails while a handler is already running,
// for example a model-side guardrail. The executor turns it into a refusal.
type TripwireError struct {
	Filter    string
	Rationale string
}

func (e *TripwireError) Error() string {
	return fmt.Sprintf("guardrail %q tripped: %s", e.Filter, e.Rationale)
}
