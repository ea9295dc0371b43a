package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoad(t *testing.T, args []string, files ...string) (*Config, error) {
	t.Helper()
	return loadConfig(aconfig.Config{
		Args:      args,
		SkipFlags: args == nil,
		Files:     files,
		SkipFiles: len(files) == 0,
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CHECKOUT_BACKEND_URL", "https://api.example.com")
	t.Setenv("PORT", "")

	cfg, err := testLoad(t, nil)
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, "https://api.example.com", cfg.Backend.URL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 10000, cfg.Session.MaxSessions)
	assert.Equal(t, 30*time.Second, cfg.Catalog.CacheTTL)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, 10*time.Second, cfg.Health.Interval)
	assert.Equal(t, 2*time.Second, cfg.Health.GCPauseThreshold)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)

	opts := cfg.BackendOptions()
	assert.Equal(t, "/coupons/validate", opts.Paths.ValidateCoupon)
	assert.Equal(t, "/guest/orders", opts.Paths.GuestOrders)
	assert.Equal(t, 30*time.Second, opts.CatalogTTL)
}

func TestLoadConfigRequiresBackend(t *testing.T) {
	t.Setenv("CHECKOUT_BACKEND_URL", "")
	t.Setenv("BACKEND_URL", "")

	_, err := testLoad(t, nil)
	require.ErrorContains(t, err, "backend URL is required")
}

func TestLoadConfigInvalidBackend(t *testing.T) {
	t.Setenv("CHECKOUT_BACKEND_URL", "not a url")

	_, err := testLoad(t, nil)
	require.ErrorContains(t, err, "invalid backend URL")
}

func TestLoadConfigPlatformDefaults(t *testing.T) {
	t.Setenv("CHECKOUT_BACKEND_URL", "")
	t.Setenv("BACKEND_URL", "http://backend:5000")
	t.Setenv("PORT", "9000")

	cfg, err := testLoad(t, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:5000", cfg.Backend.URL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("CHECKOUT_BACKEND_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: 127.0.0.1:7000
backend:
  url: https://laundry.example.com/api
  timeout: 2s
session:
  max_sessions: 5
`), 0o600))

	cfg, err := testLoad(t, nil, path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, "https://laundry.example.com/api", cfg.Backend.URL)
	assert.Equal(t, 2*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Session.MaxSessions)
}

func TestLoadConfigFlags(t *testing.T) {
	t.Setenv("CHECKOUT_BACKEND_URL", "https://api.example.com")

	cfg, err := testLoad(t, []string{"-addr=:8181", "-backend.timeout=3s"})
	require.NoError(t, err)
	assert.Equal(t, ":8181", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
}
