package session_test

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Conversation
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, id string, conv *domain.Conversation) error {
	time.Sleep(2 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Conversation)
	}
	s.data[id] = conv.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	time.Sleep(2 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.data[id]; ok {
		return conv.Clone(), nil
	}
	return nil, domain.ErrConversationNotFound
}

func (s *SlowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_ReadModifyWrite(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Save(ctx, id, domain.NewConversation(id, "Triage Agent", nil)))

	var wg sync.WaitGroup
	concurrentTurns := 20

	// Without serialization some appends would be lost.
	for i := 0; i < concurrentTurns; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			err := manager.WithLock(ctx, id, func(ctx context.Context) error {
				conv, err := manager.Store().Load(ctx, id)
				if err != nil {
					return err
				}
				conv.Append(domain.Entry{Role: domain.RoleUser, Content: strconv.Itoa(val)})
				return manager.Store().Save(ctx, id, conv)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	conv, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, conv.History, concurrentTurns)
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var starts atomic.Int32
	start := func(id string) *domain.Conversation {
		starts.Add(1)
		return domain.NewConversation(id, "Triage Agent", nil)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv, _, err := manager.LoadOrStart(ctx, id, start)
			assert.NoError(t, err)
			assert.NotNil(t, conv)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), starts.Load(), "conversation must be created exactly once")

	conv, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Triage Agent", conv.CurrentHandler)
}

func TestManager_IndependentKeys(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	held := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = manager.WithLock(ctx, "a", func(ctx context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	// A different key must not wait for "a".
	finished := make(chan struct{})
	go func() {
		_ = manager.WithLock(ctx, "b", func(ctx context.Context) error { return nil })
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	close(done)
}
