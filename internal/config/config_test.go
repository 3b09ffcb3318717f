package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ayr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestResolve_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Resolve("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Server.URL)
	assert.Equal(t, 15*time.Second, cfg.Server.Timeout)
	assert.Equal(t, StoreFile, cfg.Store.Kind)
	assert.Equal(t, filepath.Join(".ayr", "sessions"), cfg.Store.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestResolve_Precedence(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AYR_SERVER_URL", "http://env:8000")
	t.Setenv("AYR_LOG_LEVEL", "warn")
	t.Setenv("AYR_STORE", "memory")

	path := writeFile(t, `
server:
  url: http://file:8000
  timeout: 3s
store:
  kind: redis
  redis:
    addr: redis:6379
    ttl: 1h
`)

	tests := []struct {
		name      string
		overrides Overrides
		wantURL   string
		wantStore string
	}{
		{"file beats env", Overrides{}, "http://file:8000", StoreRedis},
		{"flags beat file", Overrides{ServerURL: "http://flag:8000", StoreKind: StoreMemory}, "http://flag:8000", StoreMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(path, tt.overrides)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, cfg.Server.URL)
			assert.Equal(t, tt.wantStore, cfg.Store.Kind)
			assert.Equal(t, 3*time.Second, cfg.Server.Timeout)
			assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
			// Not in the file, so the environment value holds.
			assert.Equal(t, "warn", cfg.Log.Level)
		})
	}
}

func TestResolve_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("log:\n  level: debug\n"), 0644))
	t.Chdir(dir)

	cfg, err := Resolve("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestResolve_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name      string
		path      string
		env       map[string]string
		overrides Overrides
	}{
		{name: "explicit missing file", path: filepath.Join(t.TempDir(), "absent.yaml")},
		{name: "relative server url", overrides: Overrides{ServerURL: "localhost:8000"}},
		{name: "unknown store", overrides: Overrides{StoreKind: "s3"}},
		{name: "bad env timeout", env: map[string]string{"AYR_TIMEOUT": "soon"}},
		{name: "bad env redis db", env: map[string]string{"AYR_REDIS_DB": "zero"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Resolve(tt.path, tt.overrides)
			assert.Error(t, err)
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "server: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_RedisNeedsAddr(t *testing.T) {
	cfg := Default()
	cfg.Store.Kind = StoreRedis
	cfg.Store.Redis.Addr = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestStoreKeys(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	old := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))

	t.Chdir(t.TempDir())
	t.Setenv("AYR_STORE_KEY", key)
	path := writeFile(t, "store:\n  fallback_keys: [\""+old+"\"]\n  mask: [\"(?i)password\"]\n")

	cfg, err := Resolve(path, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, []string{"(?i)password"}, cfg.Store.Mask)

	active, fallback, err := cfg.Store.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte(1), fallback[0][0])

	none, _, err := Default().Store.Keys()
	require.NoError(t, err)
	assert.Nil(t, none)

	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short"))
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg.Store.EncryptionKey = "%%%"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}
