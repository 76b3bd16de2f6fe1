package swap

import (
	"context"
	"time"

	"wallet-core/pkg/registry"
)

// Fee kinds reported by venues
const (
	FeeKindIngress   = "ingress"
	FeeKindNetwork   = "network"
	FeeKindEgress    = "egress"
	FeeKindLiquidity = "liquidity"
)

// VenueAsset is an asset as listed by a venue
type VenueAsset struct {
	Chain    string `json:"chain"`
	Asset    string `json:"asset"`
	ID       string `json:"id,omitempty"`
	Decimals int32  `json:"decimals"`
	// Bounds in base units; empty means unbounded
	MinimumSwapAmount string `json:"minimum_swap_amount,omitempty"`
	MaximumSwapAmount string `json:"maximum_swap_amount,omitempty"`
}

// VenueFee is a fee line as reported by a venue
type VenueFee struct {
	Kind   string `json:"kind"`
	Chain  string `json:"chain"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// QuoteRequest asks a venue to price a swap
type QuoteRequest struct {
	Source      VenueAsset
	Destination VenueAsset
	Amount      string // Base units of the source asset
	Recipient   string
	RefundTo    string
}

// VenueQuote is the venue's answer to a quote request
type VenueQuote struct {
	AmountIn  string
	AmountOut string
	Fees      []VenueFee
	// Estimated settlement time reported by the venue
	TimeEstimate time.Duration
}

// DepositRequest opens a deposit channel for a quoted swap
type DepositRequest struct {
	Source      VenueAsset
	Destination VenueAsset
	Amount      string
	Recipient   string
	RefundTo    string
}

// DepositChannel is where the user sends funds to start a swap
type DepositChannel struct {
	ID      string
	Address string
	Memo    string
}

// Venue is a cross-chain liquidity provider
type Venue interface {
	// Provider identifies the venue in quotes
	Provider() ProviderInfo
	GetChains(ctx context.Context) ([]string, error)
	GetAssets(ctx context.Context, chain string) ([]VenueAsset, error)
	GetQuote(ctx context.Context, req QuoteRequest) (*VenueQuote, error)
	RequestDepositAddress(ctx context.Context, req DepositRequest) (*DepositChannel, error)
}

// ProviderInfo describes a venue
type ProviderInfo struct {
	ID   string
	Name string
	// IntermediaryAsset is the wallet slug every route goes through
	IntermediaryAsset string
	// QuoteTimeout is how long a quote from this venue stays valid
	QuoteTimeout time.Duration
}

// Execution statuses of a deposit channel
type ExecutionStatus string

const (
	StatusPendingDeposit    ExecutionStatus = "PENDING_DEPOSIT"
	StatusIncompleteDeposit ExecutionStatus = "INCOMPLETE_DEPOSIT"
	StatusProcessing        ExecutionStatus = "PROCESSING"
	StatusSuccess           ExecutionStatus = "SUCCESS"
	StatusRefunded          ExecutionStatus = "REFUNDED"
	StatusFailed            ExecutionStatus = "FAILED"
)

// IsFinal reports whether no further status change is expected
func (s ExecutionStatus) IsFinal() bool {
	switch s {
	case StatusSuccess, StatusRefunded, StatusFailed:
		return true
	}
	return false
}

// SwapStatus is the venue's view of a swap
type SwapStatus struct {
	Status          ExecutionStatus
	AmountOut       string
	DestinationHash string
	UpdatedAt       time.Time
}

// StatusSource reports the execution status of a deposit channel
type StatusSource interface {
	GetStatus(ctx context.Context, depositAddress string) (*SwapStatus, error)
}

// DepositNotifier tells a venue about a broadcast deposit transaction
type DepositNotifier interface {
	SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error
}

type venueKey struct {
	chain string
	asset string
}

// AssetMapping translates wallet asset slugs to venue identifiers and back
type AssetMapping struct {
	forward map[string]venueKey
	reverse map[venueKey]string
}

// NewAssetMapping builds a mapping from registry entries
func NewAssetMapping(entries []registry.VenueAsset) *AssetMapping {
	m := &AssetMapping{
		forward: make(map[string]venueKey, len(entries)),
		reverse: make(map[venueKey]string, len(entries)),
	}
	for _, e := range entries {
		key := venueKey{chain: e.VenueChain, asset: e.VenueAsset}
		m.forward[e.Asset] = key
		m.reverse[key] = e.Asset
	}
	return m
}

// ToVenue returns the venue chain and asset for a wallet slug
func (m *AssetMapping) ToVenue(slug string) (chain, asset string, ok bool) {
	key, ok := m.forward[slug]
	return key.chain, key.asset, ok
}

// FromVenue returns the wallet slug for a venue chain and asset
func (m *AssetMapping) FromVenue(chain, asset string) (string, bool) {
	slug, ok := m.reverse[venueKey{chain: chain, asset: asset}]
	return slug, ok
}
