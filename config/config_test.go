package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.NotEmpty(t, cfg.Bitcoin.ExplorerURL)
	require.NotEmpty(t, cfg.Bitcoin.HistoryURL)
	require.NotEmpty(t, cfg.Bitcoin.FeeURL)
	require.False(t, cfg.Bitcoin.SpendUnconfirmed)
	require.Equal(t, int64(1), cfg.EVM["ethereum"].ChainID)
	require.Equal(t, 2*time.Minute, cfg.ReceiptTimeout.Duration)
	require.Equal(t, 2*time.Second, cfg.ReceiptInterval.Duration)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift.toml")
	content := `
receipt_timeout = "45s"
receipt_interval = "500ms"
log_level = "debug"

[server]
port = 9090

[bitcoin]
api_key = "file-key"
spend_unconfirmed = true

[evm.polygon]
endpoint = "https://polygon-rpc.example"
chain_id = 137
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "file-key", cfg.Bitcoin.APIKey)
	require.True(t, cfg.Bitcoin.SpendUnconfirmed)
	require.Equal(t, 45*time.Second, cfg.ReceiptTimeout.Duration)
	require.Equal(t, 500*time.Millisecond, cfg.ReceiptInterval.Duration)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, int64(137), cfg.EVM["polygon"].ChainID)

	// Fields the file does not set keep their defaults.
	require.NotEmpty(t, cfg.Bitcoin.ExplorerURL)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift.toml")
	require.NoError(t, os.WriteFile(path, []byte("[bitcoin]\napi_key = \"file-key\"\n"), 0o600))

	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvExplorerAPIKey, "env-key")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "env-key", cfg.Bitcoin.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestValidateRejectsBadPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = -1\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsChainWithoutEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift.toml")
	require.NoError(t, os.WriteFile(path, []byte("[evm.bad]\nchain_id = 5\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestDurationParsing(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	require.Equal(t, 90*time.Second, d.Duration)

	require.Error(t, d.UnmarshalText([]byte("soon")))
}
