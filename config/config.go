// Package config loads the service configuration from a TOML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// EnvConfigPath overrides the --config flag when set.
	EnvConfigPath = "DRIFT_CONFIG_PATH"
	// EnvExplorerAPIKey overrides the bitcoin explorer API key from the file.
	EnvExplorerAPIKey = "DRIFT_EXPLORER_API_KEY"
)

// Duration wraps time.Duration for TOML decoding ("30s", "2m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Server holds the HTTP listener settings.
type Server struct {
	Port int `toml:"port"`
}

// Bitcoin holds the UTXO explorer and fee estimator settings.
type Bitcoin struct {
	// ExplorerURL is the dashboard/push explorer base URL.
	ExplorerURL string `toml:"explorer_url"`
	// HistoryURL is the full-history explorer base URL used for prior-output
	// resolution.
	HistoryURL string `toml:"history_url"`
	// FeeURL is the recommended-fee feed base URL.
	FeeURL string `toml:"fee_url"`
	// APIKey authenticates dashboard and push requests.
	APIKey string `toml:"api_key"`
	// DefaultFeeRate (sat/byte) is used when the fee feed returns zero.
	DefaultFeeRate int64 `toml:"default_fee_rate"`
	// SpendUnconfirmed counts unconfirmed funds toward the affordability
	// check. Off by default: spending unconfirmed credit is what causes
	// mempool conflicts.
	SpendUnconfirmed bool `toml:"spend_unconfirmed"`
}

// EVMChain holds the per-chain RPC parameters for an EVM network.
type EVMChain struct {
	Endpoint string `toml:"endpoint"`
	ChainID  int64  `toml:"chain_id"`
}

// Config is the root configuration structure.
type Config struct {
	Server  Server              `toml:"server"`
	Bitcoin Bitcoin             `toml:"bitcoin"`
	EVM     map[string]EVMChain `toml:"evm"`

	// ReceiptTimeout bounds the post-broadcast receipt wait.
	ReceiptTimeout Duration `toml:"receipt_timeout"`
	// ReceiptInterval is the receipt polling period.
	ReceiptInterval Duration `toml:"receipt_interval"`

	LogLevel string `toml:"log_level"`
	LogJSON  bool   `toml:"log_json"`
}

// Default returns the built-in configuration used when no file is supplied.
func Default() Config {
	return Config{
		Server: Server{Port: 8080},
		Bitcoin: Bitcoin{
			ExplorerURL:    "https://api.blockchair.com/bitcoin",
			HistoryURL:     "https://api.blockcypher.com/v1/btc/main",
			FeeURL:         "https://mempool.space/api/v1",
			DefaultFeeRate: 10,
		},
		EVM: map[string]EVMChain{
			"ethereum": {Endpoint: "https://ethereum-rpc.publicnode.com", ChainID: 1},
			"sepolia":  {Endpoint: "https://ethereum-sepolia.publicnode.com", ChainID: 11155111},
		},
		ReceiptTimeout:  Duration{2 * time.Minute},
		ReceiptInterval: Duration{2 * time.Second},
		LogLevel:        "info",
	}
}

// Load reads the configuration from path, falling back to defaults for any
// unset field. An empty path loads DRIFT_CONFIG_PATH, or pure defaults when
// that is unset too.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if key := os.Getenv(EnvExplorerAPIKey); key != "" {
		cfg.Bitcoin.APIKey = key
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Bitcoin.DefaultFeeRate <= 0 {
		return fmt.Errorf("default fee rate must be positive")
	}
	for name, chain := range c.EVM {
		if chain.Endpoint == "" {
			return fmt.Errorf("evm chain %s has no endpoint", name)
		}
		if chain.ChainID <= 0 {
			return fmt.Errorf("evm chain %s has invalid chain id %d", name, chain.ChainID)
		}
	}
	if c.ReceiptTimeout.Duration <= 0 {
		c.ReceiptTimeout = Duration{2 * time.Minute}
	}
	if c.ReceiptInterval.Duration <= 0 {
		c.ReceiptInterval = Duration{2 * time.Second}
	}
	return nil
}
