package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wallet-core/pkg/fee"
	"wallet-core/pkg/parser"
	"wallet-core/pkg/swap"
	"wallet-core/pkg/transfer"
	"wallet-core/pkg/types"
)

var (
	transferFrom   string
	transferTo     string
	transferAmount string
	transferAll    bool
	rpcTimeout     time.Duration
)

var buildCmd = &cobra.Command{
	Use:   "build <asset-slug>",
	Short: "Build an unsigned transfer call",
	Long: `Build the unsigned call that transfers an asset on its origin chain.

The amount is given in display units of the asset. Contract tokens are
simulated first, so their chain must be configured under networks.

Examples:
  wallet-core build polkadot-NATIVE-DOT --from <addr> --to <addr> --amount 1.5
  wallet-core build interlay-LOCAL-KBTC --from <addr> --to <addr> --all
  wallet-core build karura-LOCAL-KSM --from <addr> --to <addr> --all --amount 12.5`,
	Args: cobra.ExactArgs(1),
	Run:  runBuild,
}

var feeCmd = &cobra.Command{
	Use:   "fee <asset-slug>",
	Short: "Estimate the fee of a transfer",
	Long: `Build the transfer call and ask the chain what submitting it would cost.

Examples:
  wallet-core fee polkadot-NATIVE-DOT --from <addr> --to <addr> --amount 1.5
  wallet-core fee ethereum-ERC20-USDC --from 0x123... --to 0x456... --all`,
	Args: cobra.ExactArgs(1),
	Run:  runFee,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(feeCmd)

	for _, c := range []*cobra.Command{buildCmd, feeCmd} {
		c.Flags().StringVar(&transferFrom, "from", "", "Sender address (REQUIRED)")
		c.Flags().StringVar(&transferTo, "to", "", "Recipient address (REQUIRED)")
		c.Flags().StringVar(&transferAmount, "amount", "", "Amount in display units")
		c.Flags().BoolVar(&transferAll, "all", false, "Transfer the whole balance")
		c.Flags().DurationVar(&rpcTimeout, "timeout", 30*time.Second, "RPC timeout")
		_ = c.MarkFlagRequired("from")
		_ = c.MarkFlagRequired("to")
	}
}

// builtTransfer is the result of building a transfer from the command line
type builtTransfer struct {
	chain *types.ChainDescriptor
	asset *types.AssetDescriptor
	call  *types.UnsignedCall
	fee   *types.FeeQuote
}

func buildTransfer(cmd *cobra.Command, slug string, estimate bool) *builtTransfer {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := mustLoadConfig()
	reg := mustLoadRegistry(cfg)
	chain, asset := mustLookup(reg, slug)

	if !transferAll && transferAmount == "" {
		printError(fmt.Errorf("--amount is required unless --all is set"))
		os.Exit(1)
	}

	// with --all, chains lacking an all-funds call still need the balance as amount
	amount := ""
	if transferAmount != "" {
		var err error
		amount, err = parser.ToBaseUnits(transferAmount, asset.Decimals)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	clients := dialClients(ctx, cfg, verbose)
	s := startSpinner("Building call...", jsonOutput)
	call, err := transfer.NewBuilder(reg, clients).Build(ctx, chain, asset, transferFrom, transferTo, amount, transferAll)
	if err != nil {
		s.Stop()
		printError(err)
		os.Exit(1)
	}

	result := &builtTransfer{chain: chain, asset: asset, call: call}
	if estimate && call != nil {
		s.Suffix = " Estimating fee..."
		result.fee, err = fee.NewEstimator(clients).Estimate(ctx, chain, asset, call, transferFrom)
	}
	s.Stop()

	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return result
}

func runBuild(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	built := buildTransfer(cmd, args[0], false)

	if jsonOutput {
		printJSON(map[string]interface{}{
			"asset": built.asset.Slug,
			"chain": built.chain.Slug,
			"call":  built.call,
		})
		return
	}

	if built.call == nil {
		color.Yellow("\n%s cannot be transferred this way on %s.\n", built.asset.Symbol, built.chain.Name)
		os.Exit(1)
	}
	displayTransfer(built)
}

func runFee(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	built := buildTransfer(cmd, args[0], true)

	if built.call == nil {
		if jsonOutput {
			printJSON(map[string]interface{}{"asset": built.asset.Slug, "call": nil})
			return
		}
		color.Yellow("\n%s cannot be transferred this way on %s.\n", built.asset.Symbol, built.chain.Name)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"asset": built.asset.Slug,
			"chain": built.chain.Slug,
			"call":  built.call,
			"fee":   built.fee,
		})
		return
	}
	displayTransfer(built)
}

func displayTransfer(built *builtTransfer) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        TRANSFER CALL")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Asset:   %s\n", color.YellowString(built.asset.Slug))
	fmt.Printf("  Chain:   %s\n", built.chain.Name)
	fmt.Printf("  Call:    %s\n", color.CyanString(built.call.String()))

	if built.fee != nil {
		fmt.Printf("  Fee:     %s %s\n",
			swap.FormatBaseUnits(built.fee.Amount, built.chain.NativeDecimals), built.fee.FeeAssetSymbol)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
