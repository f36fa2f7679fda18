package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"POSTGRES_URL", "PORT", "REFRESH_INTERVAL", "REDIS_URL", "QUOTE_TTL", "LOG_LEVEL",
		"CURRENCY", "QUOTE_PROVIDER_URL", "QUOTE_LAST_PATH", "QUOTE_PREV_PATH", "NAVBOARD_CONFIG"} {
		t.Setenv(k, "")
	}
}

func TestLoad_RequiresPostgresURL(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, ErrMissingPostgresURL)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "navboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
postgres_url: postgres://file
port: "9090"
refresh_seconds: 15
currency: usd
quote_provider:
  url: https://quotes.example/{ticker}
  last_path: $.price
`), 0o600))
	t.Setenv("PORT", "7070")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://file", cfg.PostgresURL)
	assert.Equal(t, "7070", cfg.Port, "env wins over file")
	assert.Equal(t, 15*time.Second, cfg.RefreshInterval())
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "https://quotes.example/{ticker}", cfg.QuoteProvider.URL)
	assert.Equal(t, "$.price", cfg.QuoteProvider.LastPath)
	assert.Equal(t, "$.previous_close", cfg.QuoteProvider.PrevPath, "default kept")
	assert.Equal(t, logrus.WarnLevel, cfg.Level())
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "navboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestRefreshInterval_Clamped(t *testing.T) {
	c := Default()
	c.RefreshSeconds = 1
	assert.Equal(t, MinRefresh, c.RefreshInterval())
	c.RefreshSeconds = 3600
	assert.Equal(t, MaxRefresh, c.RefreshInterval())
	c.RefreshSeconds = 30
	assert.Equal(t, 30*time.Second, c.RefreshInterval())
}

func TestLevel_Fallback(t *testing.T) {
	c := Default()
	c.LogLevel = "loud"
	assert.Equal(t, logrus.DebugLevel, c.Level())
}
