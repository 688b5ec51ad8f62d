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

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "credentials:\n  api_key: k\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://www.okx.com", cfg.BaseURL)
	assert.Equal(t, "wss://ws.okx.com:8443/ws/v5/public", cfg.PublicWsURL)
	assert.Equal(t, ModeWS, cfg.Mode)
	assert.Equal(t, PriceSourceTickers, cfg.PriceSource)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 20*time.Second, cfg.Heartbeat)
	assert.Equal(t, "logs/orders", cfg.OrderLogDir)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
mode: REST
price_source: mark-price
timeout: 3s
heartbeat: 15s
simulated: true
credentials:
  api_key: file-key
  secret_key: file-secret
  passphrase: file-pass
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ModeREST, cfg.Mode)
	assert.Equal(t, PriceSourceMarkPrice, cfg.PriceSource)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.True(t, cfg.Simulated)
	assert.Equal(t, "file-key", cfg.Credentials.APIKey)
}

func TestLoadConfigEnvWins(t *testing.T) {
	path := writeConfig(t, "credentials:\n  api_key: file-key\n")
	t.Setenv("OKX_API_KEY", " env-key ")
	t.Setenv("OKX_SECRET_KEY", "env-secret")
	t.Setenv("OKX_PASSPHRASE", "env-pass")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Credentials.APIKey)
	assert.Equal(t, "env-secret", cfg.Credentials.SecretKey)
	assert.Equal(t, "env-pass", cfg.Credentials.Passphrase)
}

func TestLoadConfigInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad mode", "mode: TCP\n"},
		{"bad price source", "price_source: trades\n"},
		{"bad heartbeat", "heartbeat: fast\n"},
		{"zero timeout", "timeout: 0s\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
