// Package config loads switchboard settings.
//
// Precedence, lowest first: built-in defaults, the YAML file, SWITCHBOARD_*
// environment variables, then command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. SWITCHBOARD_STORE_DRIVER.
const EnvPrefix = "SWITCHBOARD"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Store     StoreConfig    `yaml:"store"`
	Engine    EngineConfig   `yaml:"engine"`
	Security  SecurityConfig `yaml:"security"`
	Log       LogConfig      `yaml:"log"`
	Overrides string         `yaml:"overrides"` // path to a handler overrides file
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigin      string        `yaml:"cors_origin"`
	RateLimit       float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst       int           `yaml:"rate_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver string      `yaml:"driver"`
	Path   string      `yaml:"path"` // directory for file, database file for sqlite
	Redis  RedisConfig `yaml:"redis"`
	// LockTTL bounds distributed locks when the driver supports them.
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type EngineConfig struct {
	MaxSteps          int           `yaml:"max_steps"`
	InvocationTimeout time.Duration `yaml:"invocation_timeout"`
	FilterTimeout     time.Duration `yaml:"filter_timeout"`
}

type SecurityConfig struct {
	// EncryptionKey is a 32-byte AES key, hex or raw. Empty disables encryption at rest.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
	PIIPatterns   []string `yaml:"pii_patterns"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			CORSOrigin:      "http://localhost:3000",
			RateBurst:       20,
			ShutdownTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Driver:  DriverMemory,
			Path:    ".switchboard/conversations",
			LockTTL: time.Minute,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "switchboard:conversation:",
			},
		},
		Engine: EngineConfig{
			MaxSteps:          10,
			InvocationTimeout: 30 * time.Second,
			FilterTimeout:     10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if (c.Store.Driver == DriverFile || c.Store.Driver == DriverSQLite) && c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required for the %s driver", c.Store.Driver))
	}
	if c.Engine.MaxSteps <= 0 {
		errs = append(errs, errors.New("engine.max_steps must be positive"))
	}
	if c.Engine.InvocationTimeout <= 0 {
		errs = append(errs, errors.New("engine.invocation_timeout must be positive"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	for i, p := range c.Security.PIIPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("security.pii_patterns[%d] %q: %w", i, p, err))
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
