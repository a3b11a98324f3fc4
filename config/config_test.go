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

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 1000, cfg.Render.MinContentLength)
	assert.Equal(t, 90*time.Second, cfg.Render.Timeout)
	assert.Equal(t, 3, cfg.RateLimit.MaxRetries)
	assert.Equal(t, 0.5, cfg.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "en", cfg.Search.Language)
	assert.Equal(t, "Sort by:", cfg.Search.StartAfter)
	assert.Equal(t, "more flights", cfg.Search.StopAt)
	assert.False(t, cfg.Search.RequireClosingMarker)
	assert.Equal(t, []string{"Price graph", "Price history", "Date grid", "Track prices"}, cfg.Aggregate.Placeholders)
	assert.Equal(t, "fare-service", cfg.Telemetry.ServiceName)
	assert.Same(t, cfg, Get())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
render:
  endpoint: http://file-renderer:3000/render
  wait: 8s
search:
  currency: eur
  stop_at: more flights
rate_limit:
  max_retries: 5
aggregate:
  placeholders: ["Sponsored"]
`)
	t.Setenv("PORT", "9090")
	t.Setenv("RENDER_ENDPOINT", "http://env-renderer:3000/render")
	t.Setenv("DATABASE_URL", "postgres://localhost/fares")
	t.Setenv("FARE_SERVICE_CACHE_MAX_AGE", "2h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://env-renderer:3000/render", cfg.Render.Endpoint)
	assert.Equal(t, 8*time.Second, cfg.Render.Wait)
	assert.Equal(t, "eur", cfg.Search.Currency)
	assert.Equal(t, "more flights", cfg.Search.StopAt)
	assert.Equal(t, 5, cfg.RateLimit.Retry().MaxRetries)
	assert.Equal(t, []string{"Sponsored"}, cfg.Aggregate.Placeholders)
	assert.Equal(t, "postgres://localhost/fares", GetDatabaseURL())
	assert.Equal(t, 2*time.Hour, cfg.Cache.MaxAge)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnvFileKeepsExistingVars(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nFARE_TEST_A=\"from-file\"\nexport FARE_TEST_B=b\nFARE_TEST_C=file\nnot a pair\n"), 0o644))

	t.Setenv("FARE_TEST_C", "from-env")
	t.Setenv("FARE_TEST_A", "")
	os.Unsetenv("FARE_TEST_A")
	t.Setenv("FARE_TEST_B", "")
	os.Unsetenv("FARE_TEST_B")

	require.NoError(t, loadDotEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("FARE_TEST_A"))
	assert.Equal(t, "b", os.Getenv("FARE_TEST_B"))
	assert.Equal(t, "from-env", os.Getenv("FARE_TEST_C"))
}
