package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/switchboard/internal/runtime"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/aretw0/switchboard/pkg/session"
)

type fixture struct {
	exec  *runtime.Executor
	store *memory.Store
	regs  *registry.Set
}

func newFixture(t *testing.T, reg *registry.Registry, r ports.Reasoner, opts ...runtime.Option) *fixture {
	t.Helper()
	if reg == nil {
		reg = registry.MustAirline()
	}
	store := memory.NewStore()
	regs := registry.NewSet(reg)
	return &fixture{
		exec:  runtime.New(session.NewManager(store), regs, r, opts...),
		store: store,
		regs:  regs,
	}
}

func (f *fixture) load(t *testing.T, id string) *domain.Conversation {
	t.Helper()
	conv, err := f.store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	return conv
}

// script replays decisions in order and counts invocations.
type script struct {
	mu        sync.Mutex
	decisions []func(domain.Invocation) (domain.Decision, error)
	calls     int
	seen      []domain.Invocation
}

func scripted(steps ...func(domain.Invocation) (domain.Decision, error)) *script {
	return &script{decisions: steps}
}

func (s *script) Next(ctx context.Context, inv domain.Invocation) (domain.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, inv)
	if s.calls >= len(s.decisions) {
		return domain.Decision{}, errors.New("script exhausted")
	}
	step := s.decisions[s.calls]
	s.calls++
	return step(inv)
}

func (s *script) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func decide(d domain.Decision) func(domain.Invocation) (domain.Decision, error) {
	return func(domain.Invocation) (domain.Decision, error) { return d, nil }
}

func failWith(err error) func(domain.Invocation) (domain.Decision, error) {
	return func(domain.Invocation) (domain.Decision, error) { return domain.Decision{}, err }
}

func eventsOf(events []domain.Event, typ domain.EventType) []domain.Event {
	var out []domain.Event
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// singleHandler builds a one-handler registry whose triage owns the given tools.
func singleHandler(t *testing.T, tools []registry.Tool, initial domain.Record) *registry.Registry {
	t.Helper()
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	reg, err := registry.New("Desk", tools, []registry.Handler{
		{Name: "Desk", Description: "Front desk", Instructions: registry.Static("help"), Tools: names},
	}, registry.WithInitialContext(func() domain.Record { return initial.Clone() }))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}
