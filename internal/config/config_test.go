package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
api:
  url: https://api.example.com/
  key: secret-key
  timeout: 10s
webserver:
  host: 192.168.1.20
  port: 8800
cabinet:
  name: left-cab
  group: arcade-a
broadcast:
  enabled: true
  interval: 30s
auth:
  email: op@example.com
  password: hunter2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/", cfg.API.URL)
	assert.Equal(t, "secret-key", cfg.API.Key)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "192.168.1.20:8800", cfg.Webserver.Addr())
	assert.Equal(t, "left-cab", cfg.Cabinet.Name)
	assert.True(t, cfg.Broadcast.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Broadcast.Interval)
	assert.Equal(t, "op@example.com", cfg.Auth.Email)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  key: secret-key
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.padmiss.com", cfg.API.URL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "127.0.0.1", cfg.Webserver.Host)
	assert.Equal(t, 9090, cfg.Webserver.Port)
	assert.Equal(t, 60*time.Second, cfg.Broadcast.Interval)
	assert.NotEmpty(t, cfg.Cabinet.Name)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("PADMISS_API_KEY", "from-env")

	path := writeConfig(t, `
api:
  key: ${PADMISS_API_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.Key)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Broadcast.Enabled)
	assert.Equal(t, 9090, cfg.Webserver.Port)
	assert.Equal(t, "127.0.0.1:9090", cfg.Webserver.Addr())
}
