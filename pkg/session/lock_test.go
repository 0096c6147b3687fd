package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, id string, conv *domain.Conversation) error { return nil }
func (nopStore) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	return nil, domain.ErrConversationNotFound
}
func (nopStore) Delete(ctx context.Context, id string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)  { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("conv-%d", i)
		_ = mgr.Save(ctx, id, &domain.Conversation{})
		_ = mgr.Delete(ctx, id)
	}

	if n := len(mgr.locks); n != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", n)
	}
}

type recordingLocker struct {
	locked   []string
	unlocked int
	ttl      time.Duration
	err      error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, key)
	l.ttl = ttl
	return func(ctx context.Context) error {
		l.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	mgr := NewManager(nopStore{}, WithLocker(locker), WithLockTTL(5*time.Second))

	err := mgr.WithLock(context.Background(), "c1", func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, []string{"c1"}, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
	assert.Equal(t, 5*time.Second, locker.ttl)
}

func TestManager_DistributedLockFailure(t *testing.T) {
	boom := errors.New("redis down")
	mgr := NewManager(nopStore{}, WithLocker(&recordingLocker{err: boom}))

	called := false
	err := mgr.WithLock(context.Background(), "c1", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
	assert.Empty(t, mgr.locks)
}
