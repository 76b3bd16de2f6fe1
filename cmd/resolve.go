package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wallet-core/pkg/swap"
	"wallet-core/pkg/transfer"
)

var resolveAll bool

var resolveCmd = &cobra.Command{
	Use:   "resolve [asset-slug...]",
	Short: "Show whether assets can be transferred on their chain",
	Long: `Resolve the transfer capability of one or more assets from the registry.

Examples:
  wallet-core resolve polkadot-NATIVE-DOT
  wallet-core resolve karura-LOCAL-KSM acala-LOCAL-LDOT
  wallet-core resolve --all`,
	Run: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().BoolVar(&resolveAll, "all", false, "Resolve every asset in the registry")
}

func runResolve(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := mustLoadConfig()
	reg := mustLoadRegistry(cfg)
	resolver := transfer.NewResolver(reg)

	slugs := args
	if resolveAll {
		slugs = nil
		for _, asset := range reg.Assets() {
			slugs = append(slugs, asset.Slug)
		}
	}
	if len(slugs) == 0 {
		printError(fmt.Errorf("specify at least one asset slug or --all"))
		os.Exit(1)
	}

	resolutions := make([]*transfer.Resolution, 0, len(slugs))
	for _, slug := range slugs {
		res, err := resolver.ResolveAsset(slug)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		resolutions = append(resolutions, res)
	}

	if jsonOutput {
		output := make([]map[string]interface{}, len(resolutions))
		for i, res := range resolutions {
			output[i] = map[string]interface{}{
				"asset":                 res.Asset.Slug,
				"chain":                 res.Chain.Slug,
				"rule":                  res.Rule,
				"supports_transfer":     res.Capability.SupportsTransfer,
				"supports_transfer_all": res.Capability.SupportsTransferAll,
				"existential_deposit":   res.Asset.MinAmount,
			}
		}
		printJSON(output)
		return
	}

	displayResolutions(resolutions)
}

func displayResolutions(resolutions []*transfer.Resolution) {
	fmt.Println("\n" + strings.Repeat("=", 100))
	color.Green("                                    TRANSFER CAPABILITY")
	fmt.Println(strings.Repeat("=", 100))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nASSET\tCHAIN\tRULE\tTRANSFER\tTRANSFER ALL\tEXISTENTIAL DEPOSIT")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, res := range resolutions {
		rule := res.Rule
		if rule == "" {
			rule = "-"
		}
		ed := "-"
		if res.Asset.MinAmount != "" {
			ed = fmt.Sprintf("%s %s", swap.FormatBaseUnits(res.Asset.MinAmount, res.Asset.Decimals), res.Asset.Symbol)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			res.Asset.Slug, res.Chain.Slug, rule,
			yesNo(res.Capability.SupportsTransfer), yesNo(res.Capability.SupportsTransferAll), ed)
	}

	w.Flush()
	fmt.Println("\n" + strings.Repeat("=", 100) + "\n")
}

func yesNo(ok bool) string {
	if ok {
		return color.GreenString("yes")
	}
	return color.RedString("no")
}
