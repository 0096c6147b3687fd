package domain

import (
	"errors"
	"fmt"
)

// ErrConversationNotFound is returned when a conversation ID cannot be found in the store.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrUnknownHandler is returned by strict lookups of a handler that is not registered.
var ErrUnknownHandler = errors.New("unknown handler")

// ErrToolNotAllowed is returned when a handler calls a tool it does not declare.
var ErrToolNotAllowed = errors.New("tool not allowed for handler")

// ErrToolNotFound is returned when a tool name is not in the catalog.
var ErrToolNotFound = errors.New("tool not found")

// ErrInvocation wraps failures of the handler invocation boundary
// (timeouts, transport errors, exhausted step budget).
var ErrInvocation = errors.New("handler invocation failed")

// ErrStepLimit is returned when a handler keeps calling tools without answering.
var ErrStepLimit = errors.New("handler exceeded step limit")

// PreconditionError is raised by a tool when a Record field it needs is missing.
// It is recoverable: the handler sees it as an error tool output.
type PreconditionError struct {
	Tool  string
	Field string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: required field %q is missing", e.Tool, e.Field)
}

// Require returns a PreconditionError when the field is unset.
func Require(tool string, rec Record, field string) (string, error) {
	v, ok := rec.Get(field)
	if !ok {
		return "", &PreconditionError{Tool: tool, Field: field}
	}
	return v, nil
}
