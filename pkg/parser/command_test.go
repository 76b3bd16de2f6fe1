package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-core/pkg/registry"
	"wallet-core/pkg/types"
)

func testRegistry(t *testing.T) *registry.Static {
	t.Helper()
	reg, err := registry.New(
		[]types.ChainDescriptor{
			{Slug: "polkadot", Name: "Polkadot", NativeSymbol: "DOT", NativeDecimals: 10},
			{Slug: "ethereum", Name: "Ethereum", Type: types.ChainTypeEVM, NativeSymbol: "ETH", NativeDecimals: 18},
			{Slug: "moonbeam", Name: "Moonbeam", EVMCompatible: true, NativeSymbol: "GLMR", NativeDecimals: 18},
		},
		[]types.AssetDescriptor{
			{Slug: "polkadot-NATIVE-DOT", OriginChain: "polkadot", Symbol: "DOT", Decimals: 10, Native: true},
			{Slug: "ethereum-NATIVE-ETH", OriginChain: "ethereum", Symbol: "ETH", Decimals: 18, Native: true},
			{Slug: "ethereum-ERC20-USDC", OriginChain: "ethereum", Symbol: "USDC", Decimals: 6},
			{Slug: "moonbeam-ERC20-USDC", OriginChain: "moonbeam", Symbol: "USDC", Decimals: 6},
		},
		nil,
	)
	require.NoError(t, err)
	return reg
}

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		command string
		want    SwapCommand
	}{
		{"swap 1 DOT to USDC", SwapCommand{Amount: "1", SourceToken: "DOT", DestToken: "USDC"}},
		{"1.5 eth TO dot", SwapCommand{Amount: "1.5", SourceToken: "eth", DestToken: "dot"}},
		{"  SWAP 100 USDC@ethereum to polkadot-NATIVE-DOT  ", SwapCommand{Amount: "100", SourceToken: "USDC@ethereum", DestToken: "polkadot-NATIVE-DOT"}},
		{"swap 2 DOT to ETH for 0x1111111111111111111111111111111111111111", SwapCommand{Amount: "2", SourceToken: "DOT", DestToken: "ETH", Recipient: "0x1111111111111111111111111111111111111111"}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got, err := ParseSwapCommand(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
			assert.NoError(t, ValidateSwapCommand(got))
		})
	}

	for _, bad := range []string{"swap DOT to USDC", "swap 1 DOT USDC", "swap -1 DOT to USDC", ""} {
		_, err := ParseSwapCommand(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolveAsset(t *testing.T) {
	reg := testRegistry(t)

	asset, err := ResolveAsset(reg, "polkadot-NATIVE-DOT")
	require.NoError(t, err)
	assert.Equal(t, "polkadot-NATIVE-DOT", asset.Slug)

	asset, err = ResolveAsset(reg, "weth")
	require.NoError(t, err)
	assert.Equal(t, "ethereum-NATIVE-ETH", asset.Slug)

	asset, err = ResolveAsset(reg, "usdc@Moonbeam")
	require.NoError(t, err)
	assert.Equal(t, "moonbeam-ERC20-USDC", asset.Slug)

	_, err = ResolveAsset(reg, "USDC")
	assert.ErrorContains(t, err, "ethereum-ERC20-USDC, moonbeam-ERC20-USDC")

	_, err = ResolveAsset(reg, "KSM")
	assert.True(t, errors.Is(err, registry.ErrAssetNotFound))
}

func TestSwapCommandRequest(t *testing.T) {
	reg := testRegistry(t)

	cmd, err := ParseSwapCommand("swap 50 DOT to USDC@ethereum for 0x1111111111111111111111111111111111111111")
	require.NoError(t, err)

	req, err := cmd.Request(reg)
	require.NoError(t, err)
	assert.Equal(t, types.SwapPair{From: "polkadot-NATIVE-DOT", To: "ethereum-ERC20-USDC"}, req.Pair)
	assert.Equal(t, "500000000000", req.FromAmount)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", req.Recipient)
}

func TestToBaseUnits(t *testing.T) {
	got, err := ToBaseUnits("1.25", 6)
	require.NoError(t, err)
	assert.Equal(t, "1250000", got)

	_, err = ToBaseUnits("0.0000001", 6)
	assert.ErrorContains(t, err, "more than 6 decimals")

	_, err = ToBaseUnits("0", 6)
	assert.Error(t, err)

	_, err = ToBaseUnits("abc", 6)
	assert.Error(t, err)
}
