package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-core/pkg/swap"
)

func TestMapStatus(t *testing.T) {
	tests := map[string]swap.ExecutionStatus{
		"SUCCESS":            swap.StatusSuccess,
		"completed":          swap.StatusSuccess,
		"REFUNDED":           swap.StatusRefunded,
		"FAILED":             swap.StatusFailed,
		"PENDING_DEPOSIT":    swap.StatusPendingDeposit,
		"INCOMPLETE_DEPOSIT": swap.StatusIncompleteDeposit,
		"PROCESSING":         swap.StatusProcessing,
		"SOMETHING_NEW":      swap.StatusProcessing,
	}

	for in, want := range tests {
		assert.Equal(t, want, mapStatus(in), in)
	}
}

func TestDepositChannel(t *testing.T) {
	assert.Equal(t, &swap.DepositChannel{ID: "addr", Address: "addr"}, depositChannel("addr", ""))
	assert.Equal(t, &swap.DepositChannel{ID: "12345", Address: "shared", Memo: "12345"}, depositChannel("shared", "12345"))
}

func TestBaseUnits(t *testing.T) {
	got, err := baseUnits("249.5", 6)
	require.NoError(t, err)
	assert.Equal(t, "249500000", got)

	got, err = baseUnits("0.0000001", 6)
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	_, err = baseUnits("n/a", 6)
	assert.Error(t, err)
}

func TestVenueAssetBounds(t *testing.T) {
	c := NewOneClickClient(Config{
		IntermediaryAsset: "ethereum-ERC20-USDC",
		QuoteTimeout:      time.Minute,
		Bounds: map[string]Bounds{
			BoundsKey("ETH", "eth"): {Min: "1000", Max: "9000"},
		},
	})

	asset := c.venueAsset("eth", "ETH", "nep141:eth.omft.near", 18)
	assert.Equal(t, swap.VenueAsset{
		Chain:             "eth",
		Asset:             "ETH",
		ID:                "nep141:eth.omft.near",
		Decimals:          18,
		MinimumSwapAmount: "1000",
		MaximumSwapAmount: "9000",
	}, asset)

	unbounded := c.venueAsset("sol", "SOL", "nep141:sol.omft.near", 9)
	assert.Empty(t, unbounded.MinimumSwapAmount)

	provider := c.Provider()
	assert.Equal(t, ProviderID, provider.ID)
	assert.Equal(t, "ethereum-ERC20-USDC", provider.IntermediaryAsset)
	assert.Equal(t, time.Minute, provider.QuoteTimeout)
	assert.Equal(t, float32(DefaultSlippageBps), c.cfg.SlippageBps)
}
