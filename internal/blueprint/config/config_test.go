package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	require.True(t, cfg.Market.UseSnapshots())
	require.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
db_path: /data/bp.db
log_level: debug
market:
  base_url: http://market.local
  timeout: 3s
  cache_ttl: 1m
  concurrency: 4
`)
	t.Setenv("BP_DB_PATH", "/override/bp.db")
	t.Setenv("BP_MARKET_MAX_AGE", "36h")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/override/bp.db", cfg.DBPath)
	require.Equal(t, "http://market.local", cfg.Market.BaseURL)
	require.Equal(t, 3*time.Second, cfg.Market.Timeout)
	require.Equal(t, time.Minute, cfg.Market.CacheTTL)
	require.Equal(t, 36*time.Hour, cfg.Market.MaxAge)
	require.Equal(t, 4, cfg.Market.Concurrency)
	require.False(t, cfg.Market.UseSnapshots())
	require.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "market:\n  concurrency: 0\n"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "level.yaml", "log_level: loud\n"))
	require.Error(t, err)

	t.Setenv("BP_MARKET_TIMEOUT", "soon")
	_, err = Load("")
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "BP_MARKET_OFFLINE=true\nBP_HTTP_ADDR=:9000\n")
	t.Setenv("BP_HTTP_ADDR", ":8080")
	t.Setenv("BP_MARKET_OFFLINE", "")
	require.NoError(t, os.Unsetenv("BP_MARKET_OFFLINE"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))

	cfg, err := Load("")
	require.NoError(t, err)
	require.True(t, cfg.Market.Offline)
	require.Equal(t, ":8080", cfg.HTTPAddr)
}
