package fee

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wallet-core/pkg/chainrpc"
	"wallet-core/pkg/types"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "fee").Logger()
}

var ErrInvalidFee = errors.New("invalid fee value")

// ClientSource hands out chain clients by slug
type ClientSource interface {
	Get(chain string) (chainrpc.Client, error)
}

// Estimator queries the cost of submitting an unsigned call
type Estimator struct {
	clients ClientSource
}

// NewEstimator creates a fee estimator
func NewEstimator(clients ClientSource) *Estimator {
	return &Estimator{clients: clients}
}

// Estimate returns the fee of call in base units of the chain's native asset.
// Runtimes that cannot assert the call weight report a zero fee.
func (e *Estimator) Estimate(ctx context.Context, chain *types.ChainDescriptor, asset *types.AssetDescriptor, call *types.UnsignedCall, payer string) (*types.FeeQuote, error) {
	quote := &types.FeeQuote{Amount: "0", FeeAssetSymbol: chain.NativeSymbol}
	if call == nil {
		return quote, nil
	}

	client, err := e.clients.Get(chain.Slug)
	if err != nil {
		return nil, err
	}

	if err := client.IsReady(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", chain.Slug, err)
	}

	amount, err := client.PaymentInfo(ctx, call, payer)
	if err != nil {
		if chainrpc.IsWeightAssertion(err) {
			log.Warn().
				Err(err).
				Str("chain", chain.Slug).
				Str("asset", asset.Slug).
				Msg("Weight assertion failed, reporting zero fee")
			return quote, nil
		}
		return nil, fmt.Errorf("failed to estimate fee: %w", err)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFee, amount)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: negative fee %s", ErrInvalidFee, amount)
	}

	quote.Amount = d.String()
	log.Debug().
		Str("chain", chain.Slug).
		Str("call", call.String()).
		Str("fee", quote.Amount).
		Msg("Fee estimated")
	return quote, nil
}
