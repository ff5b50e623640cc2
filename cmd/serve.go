package cmd

import (
	"fmt"

	"github.com/driftwallet/drift/api"
	"github.com/driftwallet/drift/config"
	"github.com/driftwallet/drift/log"
	"github.com/driftwallet/drift/server"
	"github.com/driftwallet/drift/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wallet HTTP service",
	Long: `Start the wallet HTTP service.

The configuration file is TOML; see config.Default for the built-in values.
The explorer API key can also come from DRIFT_EXPLORER_API_KEY.

Examples:
  drift serve
  drift serve --config /etc/drift/drift.toml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Init(cfg.LogLevel, cfg.LogJSON)

	bitcoinEngine := service.NewBitcoinEngine(api.NewBitcoinClient(cfg.Bitcoin), cfg.Bitcoin)
	ethereumEngine := service.NewEthereumEngine(cfg.EVM, cfg.ReceiptTimeout.Duration, cfg.ReceiptInterval.Duration)

	color.Cyan("Drift v%s", version)
	fmt.Printf("   EVM chains: %v\n", ethereumEngine.Chains())
	fmt.Printf("   Listening on port %d\n", cfg.Server.Port)
	fmt.Println()

	srv := server.New(cfg.Server.Port, bitcoinEngine, ethereumEngine)
	return srv.Run()
}

func init() {
	serveCmd.Flags().String("config", "", "path to the TOML configuration file")
}
