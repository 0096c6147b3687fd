package handoff

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
)

// Topology is the read-only view of the handler graph the protocol needs.
type Topology interface {
	// Edges returns the handoffs declared on source, in declaration order.
	Edges(source string) []Handoff
	// Has reports whether a handler is registered.
	Has(name string) bool
	// Triage returns the default handler.
	Triage() string
}

// ArgumentError reports a transfer request that does not match the edge's input shape.
// The executor hands it back to the requesting handler.
type ArgumentError struct {
	Edge    string
	Missing string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: missing required argument %q", e.Edge, e.Missing)
}

// Transfer describes a completed ownership change.
type Transfer struct {
	From string
	To   string

	// Requested is the target as named by the handler.
	Requested string

	// Tool is the name of the edge that fired.
	Tool string

	// Degraded is set when Requested was unknown or not reachable from From.
	Degraded bool

	// Setup names the routine that ran, if any.
	Setup string

	// Changes is the Record diff produced by the setup routine.
	Changes map[string]any
}

// Protocol applies handoffs against a Topology.
type Protocol struct {
	topo   Topology
	logger *slog.Logger
}

// Option configures the Protocol.
type Option func(*Protocol)

// WithLogger sets the protocol logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Protocol) {
		p.logger = logger
	}
}

// New creates a Protocol over the given topology.
func New(topo Topology, opts ...Option) *Protocol {
	p := &Protocol{
		topo:   topo,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve finds the edge source would follow for target, without running it.
// ok is false when the request degrades to triage.
func (p *Protocol) Resolve(source, target string) (edge Handoff, ok bool) {
	for _, e := range p.topo.Edges(source) {
		if e.Matches(target) && p.topo.Has(e.To) {
			return e, true
		}
	}
	// Degrade: prefer the declared edge back to triage so its setup still applies.
	triage := p.topo.Triage()
	for _, e := range p.topo.Edges(source) {
		if e.To == triage {
			return e, false
		}
	}
	return Handoff{From: source, To: triage}, false
}

// Transfer moves ownership from source to target, running the edge's setup
// routine once. rec is only modified when the transfer succeeds.
func (p *Protocol) Transfer(ctx context.Context, source, target string, rec domain.Record, args map[string]any) (Transfer, error) {
	edge, ok := p.Resolve(source, target)

	t := Transfer{
		From:      source,
		To:        edge.To,
		Requested: target,
		Tool:      edge.Tool(),
		Degraded:  !ok,
	}
	if !ok {
		p.logger.Warn("Unknown handoff target, degrading to triage",
			"source", source,
			"requested", target,
		)
	}

	if ok {
		for _, key := range required(edge.InputSchema) {
			if _, present := args[key]; !present {
				return Transfer{}, &ArgumentError{Edge: edge.Tool(), Missing: key}
			}
		}
	}

	if edge.Setup == nil {
		return t, nil
	}

	scratch := rec.Clone()
	if err := edge.Setup(ctx, scratch); err != nil {
		return Transfer{}, fmt.Errorf("handoff setup %s failed: %w", edge.Tool(), err)
	}

	t.Setup = edge.SetupName
	if t.Setup == "" {
		t.Setup = "on_" + edge.Tool()
	}
	t.Changes = domain.Diff(rec, scratch)
	commit(rec, scratch)
	return t, nil
}

// commit makes dst equal to src in place.
func commit(dst, src domain.Record) {
	for k := range dst {
		if _, ok := src[k]; !ok {
			delete(dst, k)
		}
	}
	for k, v := range src {
		dst[k] = v
	}
}
