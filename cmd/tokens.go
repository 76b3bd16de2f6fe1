package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wallet-core/pkg/swap"
)

var (
	filterChain  string
	filterSymbol string
	mappedOnly   bool
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List the tokens the swap venue trades",
	Long: `List all tokens supported by the swap venue, with the wallet asset each one
maps to.

You can filter tokens by blockchain or symbol.

Examples:
  wallet-core list-tokens
  wallet-core list-tokens --chain eth
  wallet-core list-tokens --symbol USDC --mapped`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterChain, "chain", "", "Filter by blockchain")
	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
	tokensCmd.Flags().BoolVar(&mappedOnly, "mapped", false, "Only show tokens mapped to a wallet asset")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")

	ctx := context.Background()
	app := mustLoadSwapApp(ctx, verbose)

	s := startSpinner("Fetching supported tokens...", jsonOutput)
	tokens, err := app.venue.GetSupportedTokens(ctx)
	s.Stop()

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Apply filters
	var filtered []oneclick.TokenResponse
	for _, token := range tokens {
		if filterChain != "" && !strings.EqualFold(token.GetBlockchain(), filterChain) {
			continue
		}
		if filterSymbol != "" && !strings.Contains(strings.ToUpper(token.GetSymbol()), strings.ToUpper(filterSymbol)) {
			continue
		}
		if _, ok := app.mapping.FromVenue(token.GetBlockchain(), token.GetSymbol()); mappedOnly && !ok {
			continue
		}
		filtered = append(filtered, token)
	}

	if jsonOutput {
		output := make([]map[string]interface{}, len(filtered))
		for i, token := range filtered {
			slug, _ := app.mapping.FromVenue(token.GetBlockchain(), token.GetSymbol())
			output[i] = map[string]interface{}{
				"blockchain": token.GetBlockchain(),
				"symbol":     token.GetSymbol(),
				"asset_id":   token.GetAssetId(),
				"decimals":   token.GetDecimals(),
				"wallet":     slug,
			}
		}
		printJSON(output)
		return
	}

	displayTokens(filtered, app.mapping)
}

func displayTokens(tokens []oneclick.TokenResponse, mapping *swap.AssetMapping) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	// Group tokens by blockchain
	tokensByChain := make(map[string][]oneclick.TokenResponse)
	for _, token := range tokens {
		chain := token.GetBlockchain()
		tokensByChain[chain] = append(tokensByChain[chain], token)
	}

	chains := make([]string, 0, len(tokensByChain))
	for chain := range tokensByChain {
		chains = append(chains, chain)
	}
	sort.Strings(chains)

	for _, chain := range chains {
		color.Cyan("\n%s", strings.ToUpper(chain))
		fmt.Println(strings.Repeat("-", 90))

		for _, token := range tokensByChain[chain] {
			wallet := "-"
			if slug, ok := mapping.FromVenue(chain, token.GetSymbol()); ok {
				wallet = slug
			}

			fmt.Printf("  %-10s  %2.0f decimals  %s\n",
				color.YellowString(token.GetSymbol()),
				token.GetDecimals(),
				color.HiBlackString(wallet))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens across %d blockchains\n\n", len(tokens), len(chains))
}
