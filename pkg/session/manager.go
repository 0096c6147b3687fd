package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates conversation access, ensuring that a conversation has at
// most one read-modify-write cycle in flight. It uses reference counting to
// garbage collect unused locks.
type Manager struct {
	store ports.ConversationStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL for distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager with the given persistence store.
func NewManager(store ports.ConversationStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Load retrieves an existing conversation from the store.
func (m *Manager) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv *domain.Conversation
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		conv, err = m.store.Load(ctx, id)
		return err
	})
	return conv, err
}

// LoadOrStart tries to load a conversation. If not found, it creates one with
// start and persists it immediately to reserve the ID.
func (m *Manager) LoadOrStart(ctx context.Context, id string, start func(id string) *domain.Conversation) (*domain.Conversation, bool, error) {
	var (
		conv    *domain.Conversation
		created bool
	)
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		conv, created, err = m.loadOrStart(ctx, id, start)
		return err
	})
	return conv, created, err
}

// LoadOrStartLocked is LoadOrStart for callers already inside WithLock.
func (m *Manager) LoadOrStartLocked(ctx context.Context, id string, start func(id string) *domain.Conversation) (*domain.Conversation, bool, error) {
	return m.loadOrStart(ctx, id, start)
}

func (m *Manager) loadOrStart(ctx context.Context, id string, start func(id string) *domain.Conversation) (*domain.Conversation, bool, error) {
	conv, err := m.store.Load(ctx, id)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, domain.ErrConversationNotFound) {
		return nil, false, fmt.Errorf("failed to check conversation existence: %w", err)
	}

	conv = start(id)
	if err := m.store.Save(ctx, id, conv); err != nil {
		return nil, false, fmt.Errorf("failed to initialize conversation: %w", err)
	}
	return conv, true, nil
}

// Save persists the conversation.
func (m *Manager) Save(ctx context.Context, id string, conv *domain.Conversation) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Save(ctx, id, conv)
	})
}

// Delete removes the conversation from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying conversation store.
// Callers inside WithLock use it directly to avoid re-entering the lock.
func (m *Manager) Store() ports.ConversationStore {
	return m.store
}

// WithLock executes fn while holding the lock for the conversation.
// The lock is not re-entrant: fn must use Store() rather than the Manager methods.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Release with a fresh context: the caller's may already be canceled.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"conversation_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
