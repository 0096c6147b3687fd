package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/config"
	"github.com/aretw0/switchboard/pkg/adapters/file"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/adapters/redis"
	"github.com/aretw0/switchboard/pkg/adapters/sqlite"
	"github.com/aretw0/switchboard/pkg/persistence/middleware"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
)

// Stack is an engine together with the resources it owns.
type Stack struct {
	Engine *switchboard.Engine
	Store  ports.ConversationStore
	closer io.Closer
}

// Close releases the store connection, if any.
func (s *Stack) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// OpenStore builds the configured store, wrapped with PII masking and
// encryption when configured. The locker is non-nil for shared stores.
func OpenStore(cfg *config.Config) (ports.ConversationStore, ports.DistributedLocker, io.Closer, error) {
	var (
		store  ports.ConversationStore
		locker ports.DistributedLocker
		closer io.Closer
	)

	switch cfg.Store.Driver {
	case config.DriverMemory:
		store = memory.NewStore()
	case config.DriverFile:
		store = file.New(cfg.Store.Path)
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Store.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		store, closer = s, s
	case config.DriverRedis:
		opts := []redis.Option{}
		if cfg.Store.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Store.Redis.Prefix))
		}
		if cfg.Store.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Store.Redis.TTL))
		}
		s := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB, opts...)
		store, closer = s, s
		locker = redis.NewLocker(s.Client(), s.Prefix())
	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	var mws []middleware.Middleware
	if len(cfg.Security.PIIPatterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Security.PIIPatterns))
	}
	if cfg.Security.EncryptionKey != "" {
		active, err := parseKey(cfg.Security.EncryptionKey)
		if err != nil {
			return nil, nil, nil, errors.Join(err, closeQuietly(closer))
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.Security.FallbackKeys {
			fk, err := parseKey(k)
			if err != nil {
				return nil, nil, nil, errors.Join(err, closeQuietly(closer))
			}
			enc.FallbackKeys = append(enc.FallbackKeys, fk)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}

	return middleware.Chain(store, mws...), locker, closer, nil
}

// Open builds the full engine described by cfg.
func Open(cfg *config.Config, logger *slog.Logger, opts ...switchboard.Option) (*Stack, error) {
	store, locker, closer, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	engineOpts := []switchboard.Option{
		switchboard.WithLogger(logger),
		switchboard.WithStore(store),
		switchboard.WithMaxSteps(cfg.Engine.MaxSteps),
		switchboard.WithInvocationTimeout(cfg.Engine.InvocationTimeout),
		switchboard.WithFilterTimeout(cfg.Engine.FilterTimeout),
	}
	if locker != nil {
		engineOpts = append(engineOpts, switchboard.WithLocker(locker, cfg.Store.LockTTL))
	}
	engineOpts = append(engineOpts, opts...)

	eng, err := switchboard.New(engineOpts...)
	if err != nil {
		return nil, errors.Join(err, closeQuietly(closer))
	}

	if cfg.Overrides != "" {
		o, err := registry.LoadOverrides(cfg.Overrides)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to load overrides: %w", err), closeQuietly(closer))
		}
		if err := eng.Override(o); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to apply overrides: %w", err), closeQuietly(closer))
		}
	}

	logger.Debug("Engine ready", "store", cfg.Store.Driver, "registry", eng.Registry().Version())
	return &Stack{Engine: eng, Store: store, closer: closer}, nil
}

// parseKey accepts 64 hex characters or 32 raw bytes.
func parseKey(s string) ([]byte, error) {
	if len(s) == 64 {
		if b, err := hex.DecodeString(s); err == nil {
			return b, nil
		}
	}
	if len(s) == 32 {
		return []byte(s), nil
	}
	return nil, errors.New("encryption key must be 32 bytes or 64 hex characters")
}

func closeQuietly(c io.Closer) error {
	if c == nil {
		return nil
	}
	return c.Close()
}
