package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "drift",
	Short: "A multi-chain wallet HTTP service",
	Long: `Drift is a stateless multi-chain wallet service. It exposes HTTP
endpoints to create wallets, query balances, send funds, and inspect
transactions on Bitcoin and EVM-compatible chains.

Features:
  • Wallet creation (BIP-39 mnemonic, BIP-44 derivation)
  • Bitcoin UTXO transactions with size-based fee settlement
  • EVM native coin and ERC20 token transfers
  • Normalized results and errors across chain families
  • Per-chain configuration via TOML

Nothing is stored server-side: every request carries its own key material
and every lookup goes to live chain state.

Examples:
  drift serve                     # Start with built-in defaults
  drift serve --config drift.toml # Start with a config file
  drift version                   # Print the version`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Drift v%s\n", version)
	},
}
