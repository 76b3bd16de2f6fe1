package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wallet-core",
	Short: "Transfer and swap core of a multi-chain wallet",
	Long: `wallet-core decides whether an asset can be transferred on its chain, builds
the unsigned transfer call, estimates its fee, and drives cross-chain swaps
through a venue from quote to settlement.

Examples:
  wallet-core resolve karura-LOCAL-KSM
  wallet-core build polkadot-NATIVE-DOT --from <addr> --to <addr> --amount 10
  wallet-core fee polkadot-NATIVE-DOT --from <addr> --to <addr> --all
  wallet-core swap quote 50 DOT to USDC@ethereum for 0x123...
  wallet-core swap plan 50 DOT to USDC@ethereum for 0x123...
  wallet-core swap submit <swap-id> --from <addr>
  wallet-core swap status <swap-id> --watch`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
