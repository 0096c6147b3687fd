package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/handoff"
)

// InstructionFunc renders a handler's instructions. It receives a copy of the
// Record and must treat it as read-only.
type InstructionFunc func(rec domain.Record) string

// Static returns an InstructionFunc for fixed text.
func Static(text string) InstructionFunc {
	return func(domain.Record) string { return text }
}

// ToolFunc implements a tool. It may read and write the Record.
// A *domain.PreconditionError is recoverable; any other error aborts the turn.
type ToolFunc func(ctx context.Context, rec domain.Record, args map[string]any) (string, error)

// Tool is a catalog entry.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Fn          ToolFunc
}

// Spec returns the metadata a reasoner sees.
func (t Tool) Spec() domain.Tool {
	return domain.Tool{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
}

// Handler is a named capability.
type Handler struct {
	Name         string
	Description  string
	Instructions InstructionFunc
	Tools        []string
	Filters      []string
	Handoffs     []handoff.Handoff
}

// Render produces the handler's instructions from a copy of rec.
func (h Handler) Render(rec domain.Record) string {
	if h.Instructions == nil {
		return ""
	}
	return h.Instructions(rec.Clone())
}

// Registry is an immutable catalog of handlers and tools.
type Registry struct {
	version  string
	triage   string
	order    []string
	handlers map[string]Handler
	tools    map[string]Tool
	initial  func() domain.Record
}

// Option configures a Registry at construction.
type Option func(*Registry)

// WithVersion pins the registry version instead of deriving it from content.
func WithVersion(v string) Option {
	return func(r *Registry) {
		r.version = v
	}
}

// WithInitialContext sets the factory for the Record of new conversations.
func WithInitialContext(fn func() domain.Record) Option {
	return func(r *Registry) {
		r.initial = fn
	}
}

// New builds and validates a registry. handlers are kept in the given order
// and triage names the default handler.
func New(triage string, tools []Tool, handlers []Handler, opts ...Option) (*Registry, error) {
	r := &Registry{
		triage:   triage,
		handlers: make(map[string]Handler, len(handlers)),
		tools:    make(map[string]Tool, len(tools)),
		initial:  domain.NewRecord,
	}
	for _, t := range tools {
		if _, dup := r.tools[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		r.tools[t.Name] = t
	}
	for _, h := range handlers {
		if h.Name == "" {
			return nil, fmt.Errorf("handler with empty name")
		}
		if _, dup := r.handlers[h.Name]; dup {
			return nil, fmt.Errorf("duplicate handler %q", h.Name)
		}
		h.Handoffs = append([]handoff.Handoff(nil), h.Handoffs...)
		for i := range h.Handoffs {
			h.Handoffs[i].From = h.Name
		}
		r.handlers[h.Name] = h
		r.order = append(r.order, h.Name)
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.version == "" {
		r.version = r.fingerprint()
	}
	return r, nil
}

// Version identifies the registry content.
func (r *Registry) Version() string { return r.version }

// Triage returns the name of the default handler.
func (r *Registry) Triage() string { return r.triage }

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Resolve returns the named handler, or triage when the name is unknown or empty.
func (r *Registry) Resolve(name string) Handler {
	if h, ok := r.handlers[name]; ok {
		return h
	}
	return r.handlers[r.triage]
}

// Lookup is the strict variant of Resolve.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// List returns handlers in declaration order.
func (r *Registry) List() []Handler {
	out := make([]Handler, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.handlers[name])
	}
	return out
}

// NewContext creates the Record for a new conversation.
func (r *Registry) NewContext() domain.Record {
	return r.initial()
}

// Edges implements handoff.Topology. Edges without a description inherit the
// target's description.
func (r *Registry) Edges(source string) []handoff.Handoff {
	h, ok := r.handlers[source]
	if !ok {
		return nil
	}
	out := make([]handoff.Handoff, len(h.Handoffs))
	copy(out, h.Handoffs)
	for i := range out {
		if out[i].Description == "" {
			out[i].Description = r.handlers[out[i].To].Description
		}
	}
	return out
}

// Tool returns the tool a handler may call.
func (r *Registry) Tool(handler, name string) (Tool, error) {
	t, exists := r.tools[name]
	if !exists {
		return Tool{}, fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
	}
	h, ok := r.handlers[handler]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", domain.ErrUnknownHandler, handler)
	}
	for _, declared := range h.Tools {
		if declared == name {
			return t, nil
		}
	}
	return Tool{}, fmt.Errorf("%w: %s cannot call %s", domain.ErrToolNotAllowed, handler, name)
}

// ToolSpecs returns metadata for the tools a handler declares, in order.
func (r *Registry) ToolSpecs(handler string) []domain.Tool {
	h := r.Resolve(handler)
	out := make([]domain.Tool, 0, len(h.Tools))
	for _, name := range h.Tools {
		out = append(out, r.tools[name].Spec())
	}
	return out
}

// Describe renders the roster for clients.
func (r *Registry) Describe() []domain.HandlerInfo {
	out := make([]domain.HandlerInfo, 0, len(r.order))
	for _, h := range r.List() {
		info := domain.HandlerInfo{
			Name:            h.Name,
			Description:     h.Description,
			TransfersTo:     make([]string, 0, len(h.Handoffs)),
			Tools:           append([]string{}, h.Tools...),
			RequiredFilters: append([]string{}, h.Filters...),
		}
		for _, e := range h.Handoffs {
			info.TransfersTo = append(info.TransfersTo, e.To)
		}
		out = append(out, info)
	}
	return out
}

// Validate checks references and the star topology around triage:
// triage reaches every other handler, every other handler transfers back to
// triage, and non-triage handlers transfer nowhere else.
func (r *Registry) Validate() error {
	if _, ok := r.handlers[r.triage]; !ok {
		return fmt.Errorf("triage handler %q is not registered", r.triage)
	}

	for _, h := range r.List() {
		seen := make(map[string]bool)
		for _, t := range h.Tools {
			if _, ok := r.tools[t]; !ok {
				return fmt.Errorf("handler %q declares unknown tool %q", h.Name, t)
			}
			seen[t] = true
		}
		for _, e := range h.Handoffs {
			if _, ok := r.handlers[e.To]; !ok {
				return fmt.Errorf("handler %q transfers to unknown handler %q", h.Name, e.To)
			}
			if e.To == h.Name {
				return fmt.Errorf("handler %q transfers to itself", h.Name)
			}
			if seen[e.Tool()] {
				return fmt.Errorf("handler %q declares %q twice", h.Name, e.Tool())
			}
			seen[e.Tool()] = true
		}
	}

	triage := r.handlers[r.triage]
	for _, name := range r.order {
		if name == r.triage {
			continue
		}
		if !hasEdge(triage, name) {
			return fmt.Errorf("triage cannot reach %q", name)
		}
		h := r.handlers[name]
		if !hasEdge(h, r.triage) {
			return fmt.Errorf("handler %q cannot transfer back to triage", name)
		}
		for _, e := range h.Handoffs {
			if e.To != r.triage {
				return fmt.Errorf("handler %q transfers to %q: only triage may route between specialists", name, e.To)
			}
		}
	}
	return nil
}

func hasEdge(h Handler, target string) bool {
	for _, e := range h.Handoffs {
		if e.To == target {
			return true
		}
	}
	return false
}

// fingerprint hashes the presentation and instruction text of every handler.
func (r *Registry) fingerprint() string {
	type entry struct {
		Info         domain.HandlerInfo
		Instructions string
	}
	entries := make([]entry, 0, len(r.order))
	for i, info := range r.Describe() {
		entries = append(entries, entry{Info: info, Instructions: r.handlers[r.order[i]].Render(domain.NewRecord())})
	}
	b, _ := json.Marshal(entries)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:6])
}
