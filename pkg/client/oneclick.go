package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wallet-core/pkg/swap"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "oneclick").Logger()
}

const (
	ProviderID   = "ONE_CLICK"
	ProviderName = "NEAR Intents 1Click"

	DefaultSlippageBps = 100
	// Deposit channels stay open this long
	depositDeadline = 24 * time.Hour
)

// Bounds limits the amount accepted for one venue asset, in base units
type Bounds struct {
	Min string
	Max string
}

// Config configures the 1Click venue adapter
type Config struct {
	JWTToken          string
	BaseURL           string
	IntermediaryAsset string
	QuoteTimeout      time.Duration
	SlippageBps       float32
	// Bounds are keyed by BoundsKey(chain, symbol)
	Bounds map[string]Bounds
}

// OneClickClient adapts the 1Click API to the swap venue interfaces
type OneClickClient struct {
	client *oneclick.APIClient
	cfg    Config
}

// NewOneClickClient creates a new 1Click API client
func NewOneClickClient(cfg Config) *OneClickClient {
	config := oneclick.NewConfiguration()
	if cfg.BaseURL != "" {
		config.Servers = oneclick.ServerConfigurations{{URL: cfg.BaseURL}}
	}
	if cfg.SlippageBps <= 0 {
		cfg.SlippageBps = DefaultSlippageBps
	}

	return &OneClickClient{
		client: oneclick.NewAPIClient(config),
		cfg:    cfg,
	}
}

// BoundsKey returns the key of a venue asset in Config.Bounds
func BoundsKey(chain, symbol string) string {
	return strings.ToLower(chain) + ":" + strings.ToUpper(symbol)
}

// authed returns ctx carrying the access token
func (c *OneClickClient) authed(ctx context.Context) context.Context {
	if c.cfg.JWTToken == "" {
		return ctx
	}
	return context.WithValue(ctx, oneclick.ContextAccessToken, c.cfg.JWTToken)
}

// Provider describes the venue
func (c *OneClickClient) Provider() swap.ProviderInfo {
	return swap.ProviderInfo{
		ID:                ProviderID,
		Name:              ProviderName,
		IntermediaryAsset: c.cfg.IntermediaryAsset,
		QuoteTimeout:      c.cfg.QuoteTimeout,
	}
}

// GetSupportedTokens retrieves all supported tokens
func (c *OneClickClient) GetSupportedTokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetTokens(c.authed(ctx)).Execute()
	if err != nil {
		return nil, apiError("failed to get tokens", httpResp, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return resp, nil
}

// GetChains lists the blockchains the venue trades on
func (c *OneClickClient) GetChains(ctx context.Context) ([]string, error) {
	tokens, err := c.GetSupportedTokens(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var chains []string
	for _, token := range tokens {
		chain := token.GetBlockchain()
		if !seen[chain] {
			seen[chain] = true
			chains = append(chains, chain)
		}
	}
	sort.Strings(chains)
	return chains, nil
}

// GetAssets lists the assets tradable on chain
func (c *OneClickClient) GetAssets(ctx context.Context, chain string) ([]swap.VenueAsset, error) {
	tokens, err := c.GetSupportedTokens(ctx)
	if err != nil {
		return nil, err
	}

	var assets []swap.VenueAsset
	for _, token := range tokens {
		if !strings.EqualFold(token.GetBlockchain(), chain) {
			continue
		}
		assets = append(assets, c.venueAsset(token.GetBlockchain(), token.GetSymbol(), token.GetAssetId(), int32(token.GetDecimals())))
	}
	return assets, nil
}

func (c *OneClickClient) venueAsset(chain, symbol, id string, decimals int32) swap.VenueAsset {
	bounds := c.cfg.Bounds[BoundsKey(chain, symbol)]
	return swap.VenueAsset{
		Chain:             chain,
		Asset:             symbol,
		ID:                id,
		Decimals:          decimals,
		MinimumSwapAmount: bounds.Min,
		MaximumSwapAmount: bounds.Max,
	}
}

// GetQuote prices a swap without opening a deposit channel.
// 1Click folds its fees into the output amount, so no fee lines are reported.
func (c *OneClickClient) GetQuote(ctx context.Context, req swap.QuoteRequest) (*swap.VenueQuote, error) {
	quote, err := c.requestQuote(ctx, true, req.Source, req.Destination, req.Amount, req.Recipient, req.RefundTo)
	if err != nil {
		return nil, err
	}

	amountOut, err := baseUnits(quote.GetAmountOutFormatted(), req.Destination.Decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid quote output %q: %w", quote.GetAmountOutFormatted(), err)
	}

	return &swap.VenueQuote{
		AmountIn:     req.Amount,
		AmountOut:    amountOut,
		Fees:         []swap.VenueFee{},
		TimeEstimate: time.Duration(float64(quote.GetTimeEstimate()) * float64(time.Second)),
	}, nil
}

// RequestDepositAddress requests a binding quote, which opens a deposit channel
func (c *OneClickClient) RequestDepositAddress(ctx context.Context, req swap.DepositRequest) (*swap.DepositChannel, error) {
	quote, err := c.requestQuote(ctx, false, req.Source, req.Destination, req.Amount, req.Recipient, req.RefundTo)
	if err != nil {
		return nil, err
	}

	address := quote.GetDepositAddress()
	if address == "" {
		return nil, fmt.Errorf("quote carries no deposit address")
	}

	memo := ""
	if quote.HasDepositMemo() {
		memo = quote.GetDepositMemo()
	}

	log.Info().
		Str("deposit_address", address).
		Str("amount_in", quote.GetAmountInFormatted()).
		Str("amount_out", quote.GetAmountOutFormatted()).
		Msg("Deposit channel opened")
	return depositChannel(address, memo), nil
}

func (c *OneClickClient) requestQuote(ctx context.Context, dry bool, source, destination swap.VenueAsset, amount, recipient, refundTo string) (*oneclick.Quote, error) {
	if recipient == "" {
		return nil, fmt.Errorf("recipient address is required")
	}
	if refundTo == "" {
		refundTo = recipient
	}

	quoteReq := oneclick.NewQuoteRequest(
		dry,                             // dry - true only prices the swap
		"EXACT_INPUT",                   // swapType
		c.cfg.SlippageBps,               // slippageTolerance in basis points
		source.ID,                       // originAsset
		"ORIGIN_CHAIN",                  // depositType
		destination.ID,                  // destinationAsset
		amount,                          // amount in smallest unit
		refundTo,                        // refundTo
		"ORIGIN_CHAIN",                  // refundType
		recipient,                       // recipient
		"DESTINATION_CHAIN",             // recipientType
		time.Now().Add(depositDeadline), // deadline
	)

	resp, httpResp, err := c.client.OneClickAPI.GetQuote(c.authed(ctx)).QuoteRequest(*quoteReq).Execute()
	if err != nil {
		return nil, apiError("failed to get quote", httpResp, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}
	if resp == nil {
		return nil, fmt.Errorf("empty quote response")
	}

	quote := resp.GetQuote()
	return &quote, nil
}

// GetStatus checks the execution status of a deposit channel
func (c *OneClickClient) GetStatus(ctx context.Context, depositAddress string) (*swap.SwapStatus, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetExecutionStatus(c.authed(ctx)).DepositAddress(depositAddress).Execute()
	if err != nil {
		return nil, apiError("failed to get status", httpResp, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	status := &swap.SwapStatus{
		Status:    mapStatus(resp.GetStatus()),
		UpdatedAt: resp.GetUpdatedAt(),
	}

	details := resp.GetSwapDetails()
	if details.HasAmountOutFormatted() {
		status.AmountOut = details.GetAmountOutFormatted()
	}
	if hashes := details.GetDestinationChainTxHashes(); len(hashes) > 0 {
		status.DestinationHash = hashes[0].GetHash()
	}
	return status, nil
}

// SubmitDepositTx submits the deposit transaction hash
func (c *OneClickClient) SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error {
	req := oneclick.SubmitDepositTxRequest{TxHash: txHash, DepositAddress: depositAddress}

	_, httpResp, err := c.client.OneClickAPI.SubmitDepositTx(c.authed(ctx)).SubmitDepositTxRequest(req).Execute()
	if err != nil {
		return apiError("failed to submit deposit", httpResp, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusCreated {
		return fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}
	return nil
}

// mapStatus normalizes 1Click statuses
func mapStatus(status string) swap.ExecutionStatus {
	switch strings.ToUpper(status) {
	case "SUCCESS", "COMPLETED":
		return swap.StatusSuccess
	case "REFUNDED":
		return swap.StatusRefunded
	case "FAILED":
		return swap.StatusFailed
	case "PENDING_DEPOSIT", "PENDING":
		return swap.StatusPendingDeposit
	case "INCOMPLETE_DEPOSIT":
		return swap.StatusIncompleteDeposit
	default:
		return swap.StatusProcessing
	}
}

// depositChannel identifies a channel by its memo when the venue uses a shared address
func depositChannel(address, memo string) *swap.DepositChannel {
	id := address
	if memo != "" {
		id = memo
	}
	return &swap.DepositChannel{ID: id, Address: address, Memo: memo}
}

// baseUnits converts a display amount to base units
func baseUnits(formatted string, decimals int32) (string, error) {
	d, err := decimal.NewFromString(formatted)
	if err != nil {
		return "", err
	}
	return d.Shift(decimals).Truncate(0).String(), nil
}

// apiError extracts the API's own error message from a failed response
func apiError(msg string, httpResp *http.Response, err error) error {
	if httpResp == nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	defer httpResp.Body.Close()

	bodyBytes, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil || len(bodyBytes) == 0 {
		return fmt.Errorf("%s (status: %d): %w", msg, httpResp.StatusCode, err)
	}

	var errorResp map[string]interface{}
	if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
		if message, ok := errorResp["message"].(string); ok {
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, message)
		}
		if errors, ok := errorResp["errors"]; ok {
			return fmt.Errorf("API error (status %d): %v", httpResp.StatusCode, errors)
		}
	}
	return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(bodyBytes))
}
