package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wallet-core/pkg/deposit"
	"wallet-core/pkg/parser"
	"wallet-core/pkg/swap"
	"wallet-core/pkg/types"
)

var (
	senderAddr  string
	noConfirm   bool
	autoDeposit bool
	stateFilter string
	swapTimeout time.Duration
)

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Quote, plan and execute cross-chain swaps",
	Long: `Swap assets across chains through the configured venue.

A swap is planned from a quote, then submitted: submitting opens a deposit
channel at the venue and builds the transfer that funds it. The transfer can
be broadcast here for EVM and Solana chains with a configured key, or signed
elsewhere and reported with 'swap broadcast'.

Examples:
  wallet-core swap quote 50 DOT to USDC@ethereum for 0x123...
  wallet-core swap plan 50 DOT to USDC@ethereum for 0x123...
  wallet-core swap submit <swap-id> --from <addr>
  wallet-core swap submit <swap-id> --auto-deposit --yes
  wallet-core swap broadcast <swap-id> <tx-hash>
  wallet-core swap list --state submitted
  wallet-core swap remove <swap-id>`,
}

var swapQuoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token> [for <recipient>]",
	Short: "Get the latest quote for a swap",
	Args:  cobra.MinimumNArgs(4),
	Run:   runSwapQuote,
}

var swapPlanCmd = &cobra.Command{
	Use:   "plan <amount> <source-token> to <dest-token> [for <recipient>]",
	Short: "Quote a swap and store it as a new process",
	Args:  cobra.MinimumNArgs(4),
	Run:   runSwapPlan,
}

var swapSubmitCmd = &cobra.Command{
	Use:   "submit <swap-id>",
	Short: "Open the deposit channel and build the funding transfer",
	Args:  cobra.ExactArgs(1),
	Run:   runSwapSubmit,
}

var swapBroadcastCmd = &cobra.Command{
	Use:   "broadcast <swap-id> <tx-hash>",
	Short: "Record a deposit transaction signed elsewhere",
	Args:  cobra.ExactArgs(2),
	Run:   runSwapBroadcast,
}

var swapRemoveCmd = &cobra.Command{
	Use:     "remove <swap-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a planned, completed or failed swap",
	Args:    cobra.ExactArgs(1),
	Run:     runSwapRemove,
}

var swapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored swap processes",
	Run:   runSwapList,
}

func init() {
	rootCmd.AddCommand(swapCmd)
	swapCmd.AddCommand(swapQuoteCmd, swapPlanCmd, swapSubmitCmd, swapBroadcastCmd, swapRemoveCmd, swapListCmd)

	swapCmd.PersistentFlags().DurationVar(&swapTimeout, "timeout", 2*time.Minute, "Timeout for venue and RPC calls")

	swapSubmitCmd.Flags().StringVar(&senderAddr, "from", "", "Sender address (defaults to the configured deposit key)")
	swapSubmitCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	swapSubmitCmd.Flags().BoolVar(&autoDeposit, "auto-deposit", false, "Sign and broadcast the deposit (requires a configured key)")

	swapListCmd.Flags().StringVar(&stateFilter, "state", "", "Filter by state (planned, awaiting_deposit, submitted, completed, failed)")
}

func parseRequest(app *swapApp, args []string) types.SwapRequest {
	command, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := parser.ValidateSwapCommand(command); err != nil {
		printError(err)
		os.Exit(1)
	}

	req, err := command.Request(app.registry)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return *req
}

func runSwapQuote(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := context.WithTimeout(context.Background(), swapTimeout)
	defer cancel()

	app := mustLoadSwapApp(ctx, verbose)
	req := parseRequest(app, args)

	s := startSpinner("Fetching quote...", jsonOutput)
	resp, err := app.service.GetLatestQuote(ctx, req)
	s.Stop()

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(resp)
		return
	}

	if resp.Error != nil {
		color.Red("\n%s\n", resp.Error.Message)
		if verbose && resp.Error.Err != nil {
			fmt.Printf("Cause: %v\n", resp.Error.Err)
		}
		fmt.Printf("Try again after %s\n\n", resp.AliveUntil.Format("15:04:05"))
		os.Exit(1)
	}
	displayQuote(app, resp.Quote)
}

func runSwapPlan(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := context.WithTimeout(context.Background(), swapTimeout)
	defer cancel()

	app := mustLoadSwapApp(ctx, verbose)
	req := parseRequest(app, args)

	s := startSpinner("Planning swap...", jsonOutput)
	p, err := app.service.Plan(ctx, req)
	s.Stop()

	if err != nil {
		if swapErr, ok := swap.AsSwapError(err); ok {
			err = fmt.Errorf("%s", swapErr.Message)
		}
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(p)
		return
	}

	displayQuote(app, p.Quote)
	printSuccess(fmt.Sprintf("Swap planned: %s", color.CyanString(p.ID)))
	fmt.Println("Submit it before the quote expires with:")
	color.Cyan("  wallet-core swap submit %s --from <address>\n", p.ID)
}

func runSwapSubmit(cmd *cobra.Command, args []string) {
	id := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := context.WithTimeout(context.Background(), swapTimeout)
	defer cancel()

	app := mustLoadSwapApp(ctx, verbose)

	var depositMgr *deposit.Manager
	if autoDeposit {
		var err error
		depositMgr, err = deposit.NewManagerFromConfig(ctx, app.cfg.Networks)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		defer depositMgr.Close()
	}

	sender := senderAddr
	if sender == "" && depositMgr != nil {
		if p, err := app.service.Get(id); err == nil {
			if asset, err := app.registry.Asset(p.Request.Pair.From); err == nil {
				sender, _ = depositMgr.Address(asset.OriginChain)
			}
		}
	}
	if sender == "" {
		printError(fmt.Errorf("--from is required"))
		os.Exit(1)
	}

	s := startSpinner("Opening deposit channel...", jsonOutput)
	p, err := app.service.Submit(ctx, id, sender)
	s.Stop()

	if err != nil {
		if swapErr, ok := swap.AsSwapError(err); ok {
			err = fmt.Errorf("%s", swapErr.Message)
		}
		printError(err)
		os.Exit(1)
	}

	if jsonOutput && depositMgr == nil {
		printJSON(p)
		return
	}
	if !jsonOutput {
		displayDepositInstructions(app, p)
	}

	if depositMgr != nil && p.State == swap.StateAwaitingDeposit {
		if err := handleAutoDeposit(ctx, app, depositMgr, p, verbose); err != nil {
			color.Red("\nAuto-deposit failed: %v", err)
			color.Yellow("Please send the deposit manually to: %s\n", p.Submission.TxData.DepositAddress)
			os.Exit(1)
		}
	}

	if jsonOutput {
		updated, _ := app.service.Get(id)
		printJSON(updated)
		return
	}

	fmt.Println("\nYou can monitor the swap status using:")
	color.Cyan("  wallet-core swap status %s --watch\n", p.ID)
}

func handleAutoDeposit(ctx context.Context, app *swapApp, depositMgr *deposit.Manager, p *swap.SwapProcess, verbose bool) error {
	submission := p.Submission
	if !depositMgr.IsEnabledForChain(submission.TxChain) {
		return fmt.Errorf("auto-deposit not enabled for chain: %s", submission.TxChain)
	}

	color.Yellow("\nInitiating auto-deposit...\n")
	fmt.Printf("  Chain:   %s\n", submission.TxChain)
	fmt.Printf("  Call:    %s\n", submission.Extrinsic)
	fmt.Printf("  To:      %s\n", submission.TxData.DepositAddress)

	if !noConfirm && !confirm("Proceed with auto-deposit?") {
		return fmt.Errorf("auto-deposit cancelled by user")
	}

	s := startSpinner("Sending deposit...", false)
	txHash, err := depositMgr.Broadcast(ctx, submission)
	s.Stop()
	if err != nil {
		return err
	}

	if _, err := app.service.RecordBroadcast(ctx, p.ID, txHash); err != nil {
		return fmt.Errorf("deposit %s sent but not recorded: %w", txHash, err)
	}

	color.Green("\nDeposit sent successfully!")
	fmt.Printf("  Transaction ID: %s\n", color.CyanString(txHash))

	if verbose {
		fmt.Printf("\nDeposit transaction details:\n")
		fmt.Printf("  Chain:      %s\n", submission.TxChain)
		fmt.Printf("  To:         %s\n", submission.TxData.DepositAddress)
		fmt.Printf("  Tx Hash:    %s\n", txHash)
	}
	return nil
}

func runSwapBroadcast(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := context.WithTimeout(context.Background(), swapTimeout)
	defer cancel()

	app := mustLoadSwapApp(ctx, verbose)
	p, err := app.service.RecordBroadcast(ctx, args[0], args[1])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(p)
		return
	}
	printSuccess(fmt.Sprintf("Deposit %s recorded for swap %s", color.CyanString(p.TxHash), p.ID))
}

func runSwapRemove(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	app := mustLoadSwapApp(context.Background(), verbose)
	if err := app.service.Remove(args[0]); err != nil {
		printError(err)
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Swap %s removed", args[0]))
}

func runSwapList(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	app := mustLoadSwapApp(context.Background(), verbose)

	processes := app.service.List()
	if stateFilter != "" {
		processes = app.service.ListByState(swap.ProcessState(stateFilter))
	}

	if jsonOutput {
		printJSON(processes)
		return
	}

	if len(processes) == 0 {
		color.Yellow("No swaps found.\n")
		fmt.Println("\nPlan a new swap with:")
		color.Cyan("  wallet-core swap plan <amount> <token> to <token> for <recipient>\n")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 120))
	color.Green("                                                   SWAPS")
	fmt.Println(strings.Repeat("=", 120))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nID\tPAIR\tAMOUNT\tSTATE\tTX\tUPDATED")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, p := range processes {
		pair := fmt.Sprintf("%s -> %s", p.Request.Pair.From, p.Request.Pair.To)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, pair, displayAmount(app, p.Request.Pair.From, p.Request.FromAmount),
			getStateColor(p.State), truncateString(p.TxHash, 18), p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	w.Flush()
	fmt.Println("\n" + strings.Repeat("=", 120) + "\n")
}

// displayAmount renders base units of an asset in display units with its symbol
func displayAmount(app *swapApp, slug, amount string) string {
	asset, err := app.registry.Asset(slug)
	if err != nil {
		return amount
	}
	return fmt.Sprintf("%s %s", swap.FormatBaseUnits(amount, asset.Decimals), asset.Symbol)
}

func displayQuote(app *swapApp, quote *types.SwapQuote) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Provider:          %s\n", quote.Provider.Name)
	fmt.Printf("  From:              %s\n", color.YellowString(displayAmount(app, quote.Pair.From, quote.FromAmount)))
	fmt.Printf("  To:                ~%s\n", color.YellowString(displayAmount(app, quote.Pair.To, quote.ToAmount)))
	fmt.Printf("  Rate:              %s\n", quote.Rate)
	fmt.Printf("  Route:             %s\n", strings.Join(quote.Route.Path, " -> "))
	fmt.Printf("  Minimum:           %s\n", displayAmount(app, quote.Pair.From, quote.MinSwap))
	if quote.MaxSwap != "" {
		fmt.Printf("  Maximum:           %s\n", displayAmount(app, quote.Pair.From, quote.MaxSwap))
	}
	for _, fee := range quote.FeeInfo.FeeComponent {
		fmt.Printf("  %-18s %s\n", string(fee.FeeType)+":", displayAmount(app, fee.TokenSlug, fee.Amount))
	}
	fmt.Printf("  Valid Until:       %s\n", quote.AliveUntil.Format("15:04:05"))

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displayDepositInstructions(app *swapApp, p *swap.SwapProcess) {
	submission := p.Submission

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Yellow("                 DEPOSIT INSTRUCTIONS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\nTo complete the swap, send %s to:\n\n", displayAmount(app, p.Request.Pair.From, p.Request.FromAmount))
	color.Cyan("  %s\n", submission.TxData.DepositAddress)

	if submission.TxData.DepositMemo != "" {
		fmt.Printf("\nMemo (REQUIRED): %s\n", color.MagentaString(submission.TxData.DepositMemo))
	}

	fmt.Printf("\nUnsigned call (%s on %s):\n", submission.ExtrinsicType, submission.TxChain)
	color.HiBlack("  %s\n", submission.Extrinsic)

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func getStateColor(state swap.ProcessState) string {
	switch state {
	case swap.StateCompleted:
		return color.GreenString(string(state))
	case swap.StateFailed:
		return color.RedString(string(state))
	case swap.StateSubmitted, swap.StateAwaitingDeposit:
		return color.YellowString(string(state))
	default:
		return string(state)
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
