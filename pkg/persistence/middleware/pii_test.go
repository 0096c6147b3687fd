package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewPIIMiddleware([]string{"passenger_name", "account"})(underlying)
	ctx := context.Background()

	conv := domain.NewConversation("pii", "Triage Agent", domain.Record{
		domain.FieldPassengerName: "Ada Lovelace",
		domain.FieldAccountNumber: "12345678",
		domain.FieldSeatNumber:    "12A",
	})
	conv.Events = []domain.Event{{
		ID:   "e1",
		Type: domain.EventContextUpdate,
		Metadata: map[string]any{"changes": map[string]any{
			domain.FieldPassengerName: "Ada Lovelace",
			domain.FieldSeatNumber:    "12A",
		}},
	}}

	require.NoError(t, store.Save(ctx, "pii", conv))

	// In-memory conversation is untouched.
	assert.Equal(t, "Ada Lovelace", conv.Context[domain.FieldPassengerName])
	assert.Equal(t, "Ada Lovelace", conv.Events[0].Metadata["changes"].(map[string]any)[domain.FieldPassengerName])

	stored, err := underlying.Load(ctx, "pii")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, stored.Context[domain.FieldPassengerName])
	assert.Equal(t, middleware.Mask, stored.Context[domain.FieldAccountNumber])
	assert.Equal(t, "12A", stored.Context[domain.FieldSeatNumber])

	changes := stored.Events[0].Metadata["changes"].(map[string]any)
	assert.Equal(t, middleware.Mask, changes[domain.FieldPassengerName])
	assert.Equal(t, "12A", changes[domain.FieldSeatNumber])
}

func TestChain_Order(t *testing.T) {
	underlying := memory.NewStore()
	key := make([]byte, 32)
	store := middleware.Chain(underlying,
		middleware.NewPIIMiddleware([]string{"passenger_name"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)
	ctx := context.Background()

	conv := domain.NewConversation("c", "Triage Agent", domain.Record{domain.FieldPassengerName: "Ada"})
	require.NoError(t, store.Save(ctx, "c", conv))

	// PII runs first, so the decrypted value is already masked.
	loaded, err := store.Load(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Context[domain.FieldPassengerName])
}
