package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunConversationStoreContract runs a suite of tests to verify that a ConversationStore
// implementation adheres to the defined interface contract.
func RunConversationStoreContract(t *testing.T, store ConversationStore) {
	ctx := context.Background()
	convID := "contract-test-conv-" + time.Now().Format("20060102150405")

	t.Run("Round Trip", func(t *testing.T) {
		conv := sampleConversation(convID)

		err := store.Save(ctx, convID, conv)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err, "Load should not return error")

		assert.Equal(t, conv.ID, loaded.ID)
		assert.Equal(t, conv.CurrentHandler, loaded.CurrentHandler)
		assert.Equal(t, conv.RegistryVersion, loaded.RegistryVersion)
		if diff := cmp.Diff(conv.History, loaded.History); diff != "" {
			t.Errorf("history mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(conv.Context, loaded.Context, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("context mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(conv.Filters, loaded.Filters, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("filters mismatch (-want +got):\n%s", diff)
		}
		require.Len(t, loaded.Events, len(conv.Events))
		assert.Equal(t, conv.Events[0].Metadata["target_handler"], loaded.Events[0].Metadata["target_handler"])
	})

	t.Run("Isolation", func(t *testing.T) {
		conv := sampleConversation(convID + "-iso")
		require.NoError(t, store.Save(ctx, conv.ID, conv))
		defer func() { _ = store.Delete(ctx, conv.ID) }()

		// Mutating the saved value must not leak into the store.
		conv.Context.Set(domain.FieldSeatNumber, "99Z")
		conv.Append(domain.Entry{Role: domain.RoleUser, Content: "late"})

		loaded, err := store.Load(ctx, conv.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "99Z", loaded.Context[domain.FieldSeatNumber])
		assert.Len(t, loaded.History, 2)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+convID)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, convID, domain.NewConversation(convID, "Triage Agent", nil))
		require.NoError(t, err)

		err = store.Delete(ctx, convID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, convID)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound, "Load after Delete should return ErrConversationNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := convID + "-1"
		id2 := convID + "-2"
		_ = store.Save(ctx, id1, domain.NewConversation(id1, "Triage Agent", nil))
		_ = store.Save(ctx, id2, domain.NewConversation(id2, "Triage Agent", nil))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

func sampleConversation(id string) *domain.Conversation {
	conv := domain.NewConversation(id, "Seat Booking Agent", domain.Record{
		domain.FieldAccountNumber:      "12345678",
		domain.FieldConfirmationNumber: "AB12CD",
		domain.FieldFlightNumber:       "FLT-123",
	})
	conv.RegistryVersion = "v1"
	conv.Append(
		domain.Entry{Role: domain.RoleUser, Content: "I want to change my seat"},
		domain.Entry{Role: domain.RoleAssistant, Content: "Sure.", Handler: "Seat Booking Agent"},
	)
	conv.Events = []domain.Event{{
		ID:        "evt-1",
		Type:      domain.EventHandoff,
		Handler:   "Triage Agent",
		Content:   "Triage Agent -> Seat Booking Agent",
		Metadata:  map[string]any{"source_handler": "Triage Agent", "target_handler": "Seat Booking Agent"},
		Timestamp: 1700000000000,
	}}
	conv.Filters = []domain.FilterOutcome{{
		ID: "f-1", Name: "Relevance Guardrail", Input: "I want to change my seat",
		Rationale: "", Passed: true, Timestamp: 1700000000000,
	}}
	return conv
}
