package swap

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wallet-core/pkg/registry"
	"wallet-core/pkg/transfer"
	"wallet-core/pkg/types"
)

const (
	dotSlug  = "polkadot-NATIVE-DOT"
	ethSlug  = "ethereum-NATIVE-ETH"
	usdcSlug = "ethereum-ERC20-USDC"
	ksmSlug  = "kusama-NATIVE-KSM"

	alice   = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	evmAddr = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
)

type fakeVenue struct {
	mu sync.Mutex

	provider   ProviderInfo
	chains     []string
	assets     map[string][]VenueAsset
	chainsErr  error
	quote      *VenueQuote
	quoteErr   error
	channel    *DepositChannel
	depositErr error

	quoteRequests   []QuoteRequest
	depositRequests []DepositRequest
}

func newFakeVenue() *fakeVenue {
	return &fakeVenue{
		provider: ProviderInfo{
			ID:                "FAKE",
			Name:              "Fake venue",
			IntermediaryAsset: usdcSlug,
			QuoteTimeout:      30 * time.Second,
		},
		chains: []string{"Polkadot", "Ethereum"},
		assets: map[string][]VenueAsset{
			"Polkadot": {
				{Chain: "Polkadot", Asset: "DOT", ID: "dot", Decimals: 10, MinimumSwapAmount: "100000000000", MaximumSwapAmount: "1000000000000000"},
			},
			"Ethereum": {
				{Chain: "Ethereum", Asset: "ETH", ID: "eth", Decimals: 18},
				{Chain: "Ethereum", Asset: "USDC", ID: "usdc", Decimals: 6},
			},
		},
		quote: &VenueQuote{
			AmountIn:  "500000000000",
			AmountOut: "250000000",
			Fees: []VenueFee{
				{Kind: FeeKindIngress, Chain: "Polkadot", Asset: "DOT", Amount: "1000"},
				{Kind: FeeKindLiquidity, Chain: "Ethereum", Asset: "USDC", Amount: "200"},
				{Kind: FeeKindEgress, Chain: "Ethereum", Asset: "USDC", Amount: "300"},
				{Kind: "boost", Chain: "Ethereum", Asset: "USDC", Amount: "1"},
				{Kind: FeeKindNetwork, Chain: "Bitcoin", Asset: "BTC", Amount: "5"},
			},
		},
		channel: &DepositChannel{ID: "channel-1", Address: "14E5nqKAp3oAJcmzgZhUD2RcptBeUBScxKHgJKU4HPNcKVf3"},
	}
}

func (f *fakeVenue) Provider() ProviderInfo { return f.provider }

func (f *fakeVenue) GetChains(ctx context.Context) ([]string, error) {
	return f.chains, f.chainsErr
}

func (f *fakeVenue) GetAssets(ctx context.Context, chain string) ([]VenueAsset, error) {
	return f.assets[chain], nil
}

func (f *fakeVenue) GetQuote(ctx context.Context, req QuoteRequest) (*VenueQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteRequests = append(f.quoteRequests, req)
	return f.quote, f.quoteErr
}

func (f *fakeVenue) RequestDepositAddress(ctx context.Context, req DepositRequest) (*DepositChannel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.depositRequests = append(f.depositRequests, req)
	return f.channel, f.depositErr
}

type fakeStatus struct {
	status   *SwapStatus
	notified []string
}

func (f *fakeStatus) GetStatus(ctx context.Context, depositAddress string) (*SwapStatus, error) {
	return f.status, nil
}

func (f *fakeStatus) SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error {
	f.notified = append(f.notified, depositAddress+":"+txHash)
	return nil
}

type nilBuilder struct{}

func (nilBuilder) Build(ctx context.Context, chain *types.ChainDescriptor, asset *types.AssetDescriptor, from, to, amount string, transferAll bool) (*types.UnsignedCall, error) {
	return nil, nil
}

func testRegistry(t *testing.T) *registry.Static {
	t.Helper()
	reg, err := registry.New(
		[]types.ChainDescriptor{
			{Slug: "polkadot", Name: "Polkadot", Type: types.ChainTypeSubstrate, Modules: []string{"balances"}, NativeSymbol: "DOT", NativeDecimals: 10},
			{Slug: "kusama", Name: "Kusama", Type: types.ChainTypeSubstrate, Modules: []string{"balances"}, NativeSymbol: "KSM", NativeDecimals: 12},
			{Slug: "ethereum", Name: "Ethereum", Type: types.ChainTypeEVM, NativeSymbol: "ETH", NativeDecimals: 18},
		},
		[]types.AssetDescriptor{
			{Slug: dotSlug, OriginChain: "polkadot", Symbol: "DOT", Decimals: 10, Native: true},
			{Slug: ksmSlug, OriginChain: "kusama", Symbol: "KSM", Decimals: 12, Native: true},
			{Slug: ethSlug, OriginChain: "ethereum", Symbol: "ETH", Decimals: 18, Native: true},
			{Slug: usdcSlug, OriginChain: "ethereum", Symbol: "USDC", Decimals: 6, ContractAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
		},
		[]registry.VenueAsset{
			{Asset: dotSlug, VenueChain: "Polkadot", VenueAsset: "DOT"},
			{Asset: ethSlug, VenueChain: "Ethereum", VenueAsset: "ETH"},
			{Asset: usdcSlug, VenueChain: "Ethereum", VenueAsset: "USDC"},
		},
	)
	require.NoError(t, err)
	return reg
}

type harness struct {
	venue        *fakeVenue
	registry     *registry.Static
	engine       *Engine
	orchestrator *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg := testRegistry(t)
	venue := newFakeVenue()
	engine := NewEngine(venue, reg, NewAssetMapping(reg.VenueAssets()))
	return &harness{
		venue:        venue,
		registry:     reg,
		engine:       engine,
		orchestrator: NewOrchestrator(engine, venue, transfer.NewBuilder(reg, nil)),
	}
}

func dotToUSDC() types.SwapRequest {
	return types.SwapRequest{
		Pair:       types.SwapPair{From: dotSlug, To: usdcSlug},
		FromAmount: "500000000000",
		Recipient:  evmAddr,
	}
}
