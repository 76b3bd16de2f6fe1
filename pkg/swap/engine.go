package swap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"wallet-core/pkg/registry"
	"wallet-core/pkg/types"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "swap").Logger()
}

// DefaultQuoteTimeout applies to venues that do not state how long quotes live
const DefaultQuoteTimeout = 30 * time.Second

// Engine validates swap requests and turns venue quotes into wallet quotes
type Engine struct {
	venue    Venue
	registry registry.Registry
	mapping  *AssetMapping
	now      func() time.Time
}

// NewEngine creates a quote engine
func NewEngine(venue Venue, reg registry.Registry, mapping *AssetMapping) *Engine {
	return &Engine{
		venue:    venue,
		registry: reg,
		mapping:  mapping,
		now:      time.Now,
	}
}

// ValidatedRequest is a request whose pair and amount the venue accepts
type ValidatedRequest struct {
	Request     types.SwapRequest
	FromAsset   *types.AssetDescriptor
	ToAsset     *types.AssetDescriptor
	FromChain   *types.ChainDescriptor
	ToChain     *types.ChainDescriptor
	Source      VenueAsset
	Destination VenueAsset
}

// ValidateSwapRequest checks that the venue lists both assets and that the
// amount is within the venue bounds. Failures are returned as *SwapError.
func (e *Engine) ValidateSwapRequest(ctx context.Context, req types.SwapRequest) (*ValidatedRequest, error) {
	v := &ValidatedRequest{Request: req}

	var err error
	if v.FromAsset, v.FromChain, err = e.lookup(req.Pair.From); err != nil {
		return nil, e.reject(req, NewSwapError(ErrorAssetNotSupported, nil).wrap(err))
	}
	if v.ToAsset, v.ToChain, err = e.lookup(req.Pair.To); err != nil {
		return nil, e.reject(req, NewSwapError(ErrorAssetNotSupported, nil).wrap(err))
	}

	srcChain, srcAsset, ok := e.mapping.ToVenue(req.Pair.From)
	if !ok {
		return nil, e.reject(req, NewSwapError(ErrorAssetNotSupported, nil))
	}
	dstChain, dstAsset, ok := e.mapping.ToVenue(req.Pair.To)
	if !ok {
		return nil, e.reject(req, NewSwapError(ErrorAssetNotSupported, nil))
	}

	var (
		chains    []string
		srcAssets []VenueAsset
		dstAssets []VenueAsset
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chains, err = e.venue.GetChains(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		srcAssets, err = e.venue.GetAssets(gctx, srcChain)
		return err
	})
	g.Go(func() error {
		var err error
		dstAssets, err = e.venue.GetAssets(gctx, dstChain)
		return err
	})
	if err := g.Wait(); err != nil {
		meta := &PreValidationMetadata{Chain: v.FromChain.Name}
		return nil, e.reject(req, NewSwapError(ErrorUnknown, meta).wrap(err))
	}

	if !containsString(chains, srcChain) || !containsString(chains, dstChain) {
		return nil, e.reject(req, NewSwapError(ErrorAssetNotSupported, nil))
	}

	source, ok := findVenueAsset(srcAssets, srcChain, srcAsset)
	if !ok {
		return nil, e.reject(req, NewSwapError(ErrorAssetNotSupported, nil))
	}
	destination, ok := findVenueAsset(dstAssets, dstChain, dstAsset)
	if !ok {
		return nil, e.reject(req, NewSwapError(ErrorAssetNotSupported, nil))
	}
	v.Source = source
	v.Destination = destination

	amount, err := decimal.NewFromString(req.FromAmount)
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("invalid swap amount %q", req.FromAmount)
	}

	meta := &PreValidationMetadata{
		MinSwap:  source.MinimumSwapAmount,
		MaxSwap:  source.MaximumSwapAmount,
		Chain:    v.FromChain.Name,
		Symbol:   v.FromAsset.Symbol,
		Decimals: v.FromAsset.Decimals,
	}
	if below(amount, source.MinimumSwapAmount) {
		return nil, e.reject(req, NewSwapError(ErrorNotMeetMinSwap, meta))
	}
	if above(amount, source.MaximumSwapAmount) {
		return nil, e.reject(req, NewSwapError(ErrorExceedMaxSwap, meta))
	}

	if req.Recipient != "" {
		if err := ValidateRecipient(v.ToChain, req.Recipient); err != nil {
			return nil, e.reject(req, NewSwapError(ErrorInvalidRecipient, nil).wrap(err))
		}
	}

	return v, nil
}

// GetSwapQuote validates the request and assembles a quote from the venue's answer
func (e *Engine) GetSwapQuote(ctx context.Context, req types.SwapRequest) (*types.SwapQuote, error) {
	v, err := e.ValidateSwapRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	recipient := req.Recipient
	if recipient == "" {
		recipient = PlaceholderAddress(v.ToChain)
	}

	vq, err := e.venue.GetQuote(ctx, QuoteRequest{
		Source:      v.Source,
		Destination: v.Destination,
		Amount:      req.FromAmount,
		Recipient:   recipient,
		RefundTo:    PlaceholderAddress(v.FromChain),
	})
	if err != nil {
		log.Warn().Err(err).Str("from", req.Pair.From).Str("to", req.Pair.To).Msg("Quote request failed")
		return nil, NewSwapError(ErrorFetchingQuote, nil).wrap(err)
	}
	if out, err := decimal.NewFromString(vq.AmountOut); err != nil || !out.IsPositive() {
		log.Debug().Str("from", req.Pair.From).Str("to", req.Pair.To).Str("amount_out", vq.AmountOut).Msg("Venue has no quote for amount")
		return nil, NewSwapError(ErrorQuoteNotAvailable, nil)
	}

	rate, err := CalculateRate(req.FromAmount, vq.AmountOut, v.FromAsset.Decimals, v.ToAsset.Decimals)
	if err != nil {
		return nil, NewSwapError(ErrorFetchingQuote, nil).wrap(fmt.Errorf("invalid quote amounts: %w", err))
	}

	provider := e.venue.Provider()
	timeout := provider.QuoteTimeout
	if timeout <= 0 {
		timeout = DefaultQuoteTimeout
	}

	feeToken := e.nativeAssetSlug(v.FromChain.Slug, req.Pair.From)
	minSwap := v.Source.MinimumSwapAmount
	if minSwap == "" {
		minSwap = "0"
	}

	quote := &types.SwapQuote{
		Pair:       req.Pair,
		FromAmount: req.FromAmount,
		ToAmount:   vq.AmountOut,
		Rate:       rate,
		Provider:   types.SwapProvider{ID: provider.ID, Name: provider.Name},
		AliveUntil: e.now().Add(timeout),
		MinSwap:    minSwap,
		MaxSwap:    v.Source.MaximumSwapAmount,
		FeeInfo: types.FeeInfo{
			FeeComponent:    classifyFees(vq.Fees, e.mapping),
			DefaultFeeToken: feeToken,
			FeeOptions:      []string{feeToken},
		},
		Route: BuildRoute(req.Pair, provider.IntermediaryAsset),
	}

	log.Debug().
		Str("from", req.Pair.From).
		Str("to", req.Pair.To).
		Str("amount_in", quote.FromAmount).
		Str("amount_out", quote.ToAmount).
		Str("rate", quote.Rate).
		Msg("Quote assembled")
	return quote, nil
}

func (e *Engine) lookup(slug string) (*types.AssetDescriptor, *types.ChainDescriptor, error) {
	asset, err := e.registry.Asset(slug)
	if err != nil {
		return nil, nil, err
	}
	chain, err := e.registry.Chain(asset.OriginChain)
	if err != nil {
		return nil, nil, err
	}
	return asset, chain, nil
}

// nativeAssetSlug returns the native asset of a chain, or fallback when the
// registry lists none
func (e *Engine) nativeAssetSlug(chain, fallback string) string {
	for _, asset := range e.registry.Assets() {
		if asset.OriginChain == chain && asset.Native {
			return asset.Slug
		}
	}
	return fallback
}

// reject logs an expected validation failure and returns it
func (e *Engine) reject(req types.SwapRequest, swapErr *SwapError) error {
	log.Debug().
		Str("from", req.Pair.From).
		Str("to", req.Pair.To).
		Str("amount", req.FromAmount).
		Str("reason", string(swapErr.Type)).
		Err(swapErr.Err).
		Msg("Swap request rejected")
	return swapErr
}

func findVenueAsset(assets []VenueAsset, chain, asset string) (VenueAsset, bool) {
	for _, a := range assets {
		if a.Chain == chain && a.Asset == asset {
			return a, true
		}
	}
	return VenueAsset{}, false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// below reports amount < bound; an empty or malformed bound never rejects
func below(amount decimal.Decimal, bound string) bool {
	b, err := decimal.NewFromString(bound)
	return err == nil && amount.LessThan(b)
}

func above(amount decimal.Decimal, bound string) bool {
	b, err := decimal.NewFromString(bound)
	return err == nil && amount.GreaterThan(b)
}
