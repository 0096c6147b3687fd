package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/persistence/middleware"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunConversationStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)

	ctx := context.Background()
	conv := domain.NewConversation("c1", "Seat Booking Agent", domain.Record{domain.FieldPassengerName: "Ada"})
	conv.Append(domain.Entry{Role: domain.RoleUser, Content: "my seat please"})

	require.NoError(t, secure.Save(ctx, "c1", conv))

	stored, err := underlying.Load(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, stored.Context.Has(domain.FieldPassengerName), "plaintext leaked into envelope")
	assert.Empty(t, stored.History)
	assert.True(t, stored.Context.Has(middleware.EnvelopeKey))
	assert.Equal(t, "Seat Booking Agent", stored.CurrentHandler)

	loaded, err := secure.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", loaded.Context[domain.FieldPassengerName])
	assert.Equal(t, conv.History, loaded.History)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	conv := domain.NewConversation("r1", "Triage Agent", domain.Record{domain.FieldSeatNumber: "1A"})
	require.NoError(t, oldStore.Save(ctx, "r1", conv))

	newStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := newStore.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "1A", loaded.Context[domain.FieldSeatNumber])

	// Re-saving moves the conversation to the new key.
	require.NoError(t, newStore.Save(ctx, "r1", loaded))
	_, err = oldStore.Load(ctx, "r1")
	assert.Error(t, err, "old key alone must no longer decrypt")
}

func TestEncryptionMiddleware_RejectsPlaintext(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "p1", domain.NewConversation("p1", "Triage Agent", nil)))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "p1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}
