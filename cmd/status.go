package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wallet-core/pkg/swap"
)

var (
	watchStatus   bool
	watchInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status <swap-id>",
	Short: "Check the status of a swap",
	Long: `Check the execution status of a submitted swap at the venue and update
the stored process.

Examples:
  wallet-core swap status <swap-id>
  wallet-core swap status <swap-id> --watch
  wallet-core swap status <swap-id> --watch --interval 10s`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	swapCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates until the swap completes or fails")
	statusCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "Polling interval (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	id := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	app := mustLoadSwapApp(context.Background(), verbose)

	if watchStatus {
		watchSwapStatus(app, id, jsonOutput)
		return
	}
	checkSwapStatus(app, id, jsonOutput)
}

func checkSwapStatus(app *swapApp, id string, jsonOutput bool) {
	ctx, cancel := context.WithTimeout(context.Background(), swapTimeout)
	defer cancel()

	s := startSpinner("Checking swap status...", jsonOutput)
	p, status, err := app.service.Refresh(ctx, id)
	s.Stop()

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"process": p,
			"venue":   status,
		})
		return
	}
	displayStatus(app, p, status)
}

func watchSwapStatus(app *swapApp, id string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nWatching swap %s\n", color.CyanString(id))
	fmt.Printf("Checking every %s. Press Ctrl+C to stop.\n\n", watchInterval)

	tracker := swap.NewTracker(app.service, watchInterval)
	p, err := tracker.Track(ctx, id, func(p *swap.SwapProcess, status *swap.SwapStatus) {
		displayStatus(app, p, status)
	})
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nStopped watching.")
		return
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if p.State == swap.StateCompleted {
		printSuccess(fmt.Sprintf("Swap %s completed", p.ID))
		return
	}
	color.Red("\nSwap %s failed: %s\n", p.ID, p.Error)
}

func displayStatus(app *swapApp, p *swap.SwapProcess, status *swap.SwapStatus) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        SWAP STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Swap ID:         %s\n", color.CyanString(p.ID))
	fmt.Printf("  State:           %s\n", getStateColor(p.State))
	if p.Submission != nil {
		fmt.Printf("  Deposit Address: %s\n", color.CyanString(p.Submission.TxData.DepositAddress))
	}
	if p.TxHash != "" {
		fmt.Printf("  Deposit Tx:      %s\n", color.HiBlackString(p.TxHash))
	}

	if status != nil {
		fmt.Printf("  Venue Status:    %s\n", getColoredStatus(string(status.Status)))
		if status.DestinationHash != "" {
			fmt.Printf("  Withdrawal Tx:   %s\n", color.HiBlackString(status.DestinationHash))
		}
		if !status.UpdatedAt.IsZero() {
			fmt.Printf("  Last Updated:    %s\n", status.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
	}

	fmt.Printf("  Amount In:       %s\n", displayAmount(app, p.Request.Pair.From, p.Request.FromAmount))
	if p.AmountOut != "" {
		fmt.Printf("  Amount Out:      %s\n", displayAmount(app, p.Request.Pair.To, p.AmountOut))
	}
	if p.Error != "" {
		fmt.Printf("  Error:           %s\n", color.RedString(p.Error))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	status = strings.ToUpper(status)

	switch swap.ExecutionStatus(status) {
	case swap.StatusSuccess:
		return color.GreenString(status)
	case swap.StatusPendingDeposit, swap.StatusProcessing:
		return color.YellowString(status)
	case swap.StatusFailed, swap.StatusRefunded:
		return color.RedString(status)
	case swap.StatusIncompleteDeposit:
		return color.MagentaString(status)
	default:
		return status
	}
}
