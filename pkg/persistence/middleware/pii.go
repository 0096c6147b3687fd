package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// Mask replaces the value of every masked field.
const Mask = "***"

type piiMiddleware struct {
	next     ports.ConversationStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks Record fields whose name
// matches one of the patterns, both in the Context and in the "changes"
// metadata of context_update events.
//
// Masking is lossy: a conversation loaded back carries the mask, so use it on
// stores meant for audit or analytics, or on fields no tool reads back.
//
// It panics if a pattern does not compile; config.Validate reports bad
// patterns before the store is opened.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.ConversationStore) ports.ConversationStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, id string, conv *domain.Conversation) error {
	// Clone so the executor's in-memory conversation is left untouched.
	cloned := conv.Clone()

	for k := range cloned.Context {
		if m.matches(k) {
			cloned.Context[k] = Mask
		}
	}
	for i, e := range cloned.Events {
		if changes, ok := e.Metadata["changes"].(map[string]any); ok {
			cloned.Events[i].Metadata["changes"] = m.maskMap(changes)
		}
	}

	return m.next.Save(ctx, id, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// maskMap returns a masked copy; nested maps are handled recursively.
func (m *piiMiddleware) maskMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch {
		case m.matches(k) && v != nil:
			out[k] = Mask
		default:
			if sub, ok := v.(map[string]any); ok {
				out[k] = m.maskMap(sub)
			} else {
				out[k] = v
			}
		}
	}
	return out
}
