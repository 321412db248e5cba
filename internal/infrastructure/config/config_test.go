package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadTOMLDefaults(t *testing.T) {
	t.Setenv(EnvCoinGeckoAPIKey, "")
	path := writeFile(t, "config.toml", `
[assets]
list = [" Bitcoin ", "ethereum", "bitcoin", ""]

[storage.sqlite]
enabled = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"bitcoin", "ethereum"}, cfg.Assets.List)
	assert.Equal(t, "usd", cfg.App.Currency)
	assert.Equal(t, 20, cfg.App.MaxAlerts)
	assert.Equal(t, 50, cfg.App.PerPage)
	assert.Equal(t, "binance", cfg.Stream.Provider)
	assert.Equal(t, "wss://stream.binance.com:9443", cfg.Stream.WsURL)
	assert.Equal(t, 3*time.Second, cfg.ReconnectBase())
	assert.Equal(t, 10, cfg.Stream.MaxReconnectAttempts)
	assert.Equal(t, 30*time.Second, cfg.Heartbeat())
	assert.Equal(t, 30*time.Second, cfg.PollInterval())
	assert.Equal(t, 5*time.Minute, cfg.ReconcileEvery())
	assert.Equal(t, "data/cryptotracker.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoadYAML(t *testing.T) {
	t.Setenv(EnvCoinGeckoAPIKey, "")
	path := writeFile(t, "config.yaml", `
app:
  currency: EUR
  max_alerts: 5
assets:
  list: [solana]
stream:
  provider: coincap
fallback:
  api_key: from-file
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "eur", cfg.App.Currency)
	assert.Equal(t, 5, cfg.App.MaxAlerts)
	assert.Equal(t, "wss://ws.coincap.io/prices", cfg.Stream.WsURL)
	assert.Equal(t, "from-file", cfg.Fallback.APIKey)
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	t.Setenv(EnvCoinGeckoAPIKey, "from-env")
	path := writeFile(t, "config.toml", `
[assets]
list = ["bitcoin"]
[fallback]
api_key = "from-file"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Fallback.APIKey)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no assets", `[assets]
list = []`},
		{"unknown provider", `[assets]
list = ["bitcoin"]
[stream]
provider = "kraken"`},
		{"redis without addr", `[assets]
list = ["bitcoin"]
[storage.redis]
enabled = true`},
		{"postgres without dsn", `[assets]
list = ["bitcoin"]
[storage.postgres]
enabled = true`},
		{"redis notify without redis storage", `[assets]
list = ["bitcoin"]
[notify.redis]
enabled = true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.toml", tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
