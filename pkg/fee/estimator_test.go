package fee

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-core/pkg/chainrpc"
	"wallet-core/pkg/registry"
	"wallet-core/pkg/transfer"
	"wallet-core/pkg/types"
)

type fakeClient struct {
	readyErr error
	fee      string
	feeErr   error
	calls    int
}

func (f *fakeClient) IsReady(ctx context.Context) error { return f.readyErr }

func (f *fakeClient) Simulate(ctx context.Context, call *types.UnsignedCall, from string) (string, error) {
	return "", nil
}

func (f *fakeClient) PaymentInfo(ctx context.Context, call *types.UnsignedCall, payer string) (string, error) {
	f.calls++
	return f.fee, f.feeErr
}

var (
	polkadot = &types.ChainDescriptor{Slug: "polkadot", Modules: []string{"balances"}, NativeSymbol: "DOT", NativeDecimals: 10}
	dot      = &types.AssetDescriptor{Slug: "polkadot-NATIVE-DOT", OriginChain: "polkadot", Symbol: "DOT", Native: true}
	sample   = &types.UnsignedCall{Module: "balances", Method: "transfer", Args: []any{"bob", "1"}}
)

func estimatorWith(client chainrpc.Client) *Estimator {
	pool := chainrpc.NewPool()
	pool.Register("polkadot", client)
	return NewEstimator(pool)
}

func TestEstimate(t *testing.T) {
	quote, err := estimatorWith(&fakeClient{fee: "156000000"}).Estimate(context.Background(), polkadot, dot, sample, "alice")
	require.NoError(t, err)
	assert.Equal(t, &types.FeeQuote{Amount: "156000000", FeeAssetSymbol: "DOT"}, quote)
}

func TestEstimateWeightAssertion(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"sentinel", fmt.Errorf("payment info: %w", chainrpc.ErrWeightAssertion)},
		{"message only", errors.New("RpcError: 1010: Weight assertion failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := estimatorWith(&fakeClient{feeErr: tt.err}).Estimate(context.Background(), polkadot, dot, sample, "alice")
			require.NoError(t, err)
			assert.Equal(t, "0", quote.Amount)
		})
	}
}

func TestEstimateErrors(t *testing.T) {
	ctx := context.Background()

	_, err := estimatorWith(&fakeClient{feeErr: errors.New("connection reset")}).Estimate(ctx, polkadot, dot, sample, "alice")
	assert.ErrorContains(t, err, "connection reset")

	_, err = estimatorWith(&fakeClient{readyErr: errors.New("timeout")}).Estimate(ctx, polkadot, dot, sample, "alice")
	assert.ErrorContains(t, err, "failed to reach polkadot")

	_, err = estimatorWith(&fakeClient{fee: "-1"}).Estimate(ctx, polkadot, dot, sample, "alice")
	assert.True(t, errors.Is(err, ErrInvalidFee))

	_, err = estimatorWith(&fakeClient{fee: "lots"}).Estimate(ctx, polkadot, dot, sample, "alice")
	assert.True(t, errors.Is(err, ErrInvalidFee))

	_, err = NewEstimator(chainrpc.NewPool()).Estimate(ctx, polkadot, dot, sample, "alice")
	assert.True(t, errors.Is(err, chainrpc.ErrNoClient))
}

func TestEstimateNilCall(t *testing.T) {
	client := &fakeClient{fee: "5"}
	quote, err := estimatorWith(client).Estimate(context.Background(), polkadot, dot, nil, "alice")
	require.NoError(t, err)
	assert.Equal(t, "0", quote.Amount)
	assert.Zero(t, client.calls)
}

func TestBuildThenEstimate(t *testing.T) {
	reg, err := registry.New([]types.ChainDescriptor{*polkadot}, []types.AssetDescriptor{*dot}, nil)
	require.NoError(t, err)

	client := &fakeClient{fee: "156000000"}
	pool := chainrpc.NewPool()
	pool.Register("polkadot", client)

	ctx := context.Background()
	call, err := transfer.NewBuilder(reg, pool).Build(ctx, polkadot, dot, "alice", "bob", "1000000000000", false)
	require.NoError(t, err)
	require.NotNil(t, call)
	assert.Equal(t, "transfer", call.Method)

	quote, err := NewEstimator(pool).Estimate(ctx, polkadot, dot, call, "alice")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString(quote.Amount).IsPositive())
	assert.Equal(t, 1, client.calls)
}
