package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// ConversationStore defines the interface for persisting conversation state between turns.
// Implementations must store a full copy: callers are free to mutate the value
// after Save and the result of Load without affecting the stored state.
type ConversationStore interface {
	// Save persists the conversation under the given ID.
	Save(ctx context.Context, id string, conv *domain.Conversation) error

	// Load retrieves the conversation for a given ID.
	// Returns domain.ErrConversationNotFound if the conversation does not exist.
	Load(ctx context.Context, id string) (*domain.Conversation, error)

	// Delete removes the conversation for a given ID.
	Delete(ctx context.Context, id string) error

	// List returns all active conversation IDs.
	List(ctx context.Context) ([]string, error)
}
