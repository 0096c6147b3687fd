package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Engine.MaxSteps)
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
store:
  driver: sqlite
  path: /tmp/switchboard.db
engine:
  invocation_timeout: 5s
log:
  format: json
`), 0o600))

	cfg, err := Load(path, []string{
		"SWITCHBOARD_SERVER_ADDR=:9100",
		"SWITCHBOARD_ENGINE_MAX_STEPS=4",
		"SWITCHBOARD_STORE_REDIS_TTL=2h",
		"SWITCHBOARD_SECURITY_PII_PATTERNS=passenger_name,account_number",
		"UNRELATED=1",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Engine.InvocationTimeout)
	assert.Equal(t, 4, cfg.Engine.MaxSteps)
	assert.Equal(t, 2*time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, []string{"passenger_name", "account_number"}, cfg.Security.PIIPatterns)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr, "untouched defaults survive")
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load("", []string{"SWITCHBOARD_STORE_DRIVER=etcd", "SWITCHBOARD_ENGINE_MAX_STEPS=0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store driver "etcd"`)
	assert.Contains(t, err.Error(), "max_steps")
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestValidate_PIIPatterns(t *testing.T) {
	cfg := Default()
	cfg.Security.PIIPatterns = []string{"^account_number$", "[", "passenger_(name"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `security.pii_patterns[1] "["`)
	assert.Contains(t, err.Error(), `security.pii_patterns[2] "passenger_(name"`)
	assert.NotContains(t, err.Error(), "pii_patterns[0]")

	cfg.Security.PIIPatterns = []string{"^account_number$", "passenger_name"}
	assert.NoError(t, cfg.Validate())
}
