package handoff

import (
	"context"
	"strings"
	"unicode"

	"github.com/aretw0/switchboard/pkg/domain"
)

// SetupFunc runs when a transfer fires. It may read and write the record.
type SetupFunc func(ctx context.Context, rec domain.Record) error

// Handoff is a directed edge from one handler to another.
type Handoff struct {
	From        string
	To          string
	ToolName    string // defaults to DefaultToolName(To)
	Description string

	// Setup is optional. SetupName is reported in the activity log.
	Setup     SetupFunc
	SetupName string

	// InputSchema is a JSON-schema style object. Only "required" is enforced.
	InputSchema map[string]any
}

// Tool returns the name a handler uses to request this transfer.
func (h Handoff) Tool() string {
	if h.ToolName != "" {
		return h.ToolName
	}
	return DefaultToolName(h.To)
}

// Option renders the edge for a handler invocation.
func (h Handoff) Option() domain.HandoffOption {
	return domain.HandoffOption{
		ToolName:    h.Tool(),
		Target:      h.To,
		Description: h.Description,
		InputSchema: h.InputSchema,
	}
}

// Matches reports whether target names this edge, by handler or by tool name.
func (h Handoff) Matches(target string) bool {
	return target == h.To || target == h.Tool()
}

// DefaultToolName derives "transfer_to_seat_booking_agent" from "Seat Booking Agent".
func DefaultToolName(target string) string {
	var b strings.Builder
	b.WriteString("transfer_to_")
	lastUnderscore := true
	for _, r := range strings.TrimSpace(target) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// required extracts the "required" list of an input schema.
func required(schema map[string]any) []string {
	switch v := schema["required"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
