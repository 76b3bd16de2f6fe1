package chainrpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-core/pkg/types"
)

type systemService struct {
	syncing bool
}

func (s *systemService) Health() health {
	return health{Peers: 3, IsSyncing: s.syncing}
}

type txService struct {
	fee     string
	feeErr  error
	gas     string
	lastArg types.UnsignedCall
}

func (s *txService) PaymentInfo(call types.UnsignedCall, payer string) (*paymentInfo, error) {
	s.lastArg = call
	if s.feeErr != nil {
		return nil, s.feeErr
	}
	return &paymentInfo{PartialFee: s.fee}, nil
}

func (s *txService) DryRunContract(call types.UnsignedCall, from string) (*dryRun, error) {
	return &dryRun{GasRequired: s.gas}, nil
}

func newSubstrateServer(t *testing.T, system *systemService, tx *txService) *SubstrateClient {
	t.Helper()

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("system", system))
	require.NoError(t, server.RegisterName("tx", tx))

	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)
	t.Cleanup(server.Stop)

	client, err := DialSubstrate(context.Background(), httpServer.URL)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestSubstratePaymentInfo(t *testing.T) {
	tx := &txService{fee: "1250000000"}
	client := newSubstrateServer(t, &systemService{}, tx)
	ctx := context.Background()

	require.NoError(t, client.IsReady(ctx))

	call := &types.UnsignedCall{Module: "balances", Method: "transfer", Args: []any{"5Grw", "100"}}
	fee, err := client.PaymentInfo(ctx, call, "5Grw")
	require.NoError(t, err)
	assert.Equal(t, "1250000000", fee)
	assert.Equal(t, "balances", tx.lastArg.Module)
	assert.Equal(t, "transfer", tx.lastArg.Method)
}

func TestSubstrateWeightAssertion(t *testing.T) {
	tx := &txService{feeErr: errors.New("Weight assertion failed: call exceeds block limits")}
	client := newSubstrateServer(t, &systemService{}, tx)

	_, err := client.PaymentInfo(context.Background(), &types.UnsignedCall{Module: "balances", Method: "transfer"}, "5Grw")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWeightAssertion))
}

func TestSubstrateSimulate(t *testing.T) {
	client := newSubstrateServer(t, &systemService{}, &txService{gas: "98000000"})

	gas, err := client.Simulate(context.Background(), &types.UnsignedCall{Module: "contracts", Method: "psp22::transfer"}, "5Grw")
	require.NoError(t, err)
	assert.Equal(t, "98000000", gas)
}

func TestSubstrateIsReadyHonoursContext(t *testing.T) {
	client := newSubstrateServer(t, &systemService{syncing: true}, &txService{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, client.IsReady(ctx))
}

func TestIsWeightAssertion(t *testing.T) {
	assert.False(t, IsWeightAssertion(nil))
	assert.True(t, IsWeightAssertion(ErrWeightAssertion))
	assert.True(t, IsWeightAssertion(fmt.Errorf("query failed: %w", ErrWeightAssertion)))
	assert.True(t, IsWeightAssertion(errors.New("1010: weight assertion failed")))
	assert.False(t, IsWeightAssertion(errors.New("connection refused")))
}

func TestPool(t *testing.T) {
	pool := NewPool()

	_, err := pool.Get("polkadot")
	assert.True(t, errors.Is(err, ErrNoClient))

	client := &SubstrateClient{}
	pool.Register("polkadot", client)

	got, err := pool.Get("polkadot")
	require.NoError(t, err)
	assert.Same(t, client, got)
	assert.Equal(t, []string{"polkadot"}, pool.Chains())
}

func TestDialUnknownKind(t *testing.T) {
	_, err := Dial(context.Background(), Kind("cosmos"), "http://localhost")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestEVMCallMsg(t *testing.T) {
	client, err := NewEVMClient(nil)
	require.NoError(t, err)

	from := "0x1111111111111111111111111111111111111111"
	to := "0x2222222222222222222222222222222222222222"
	contract := "0x3333333333333333333333333333333333333333"

	t.Run("native transfer", func(t *testing.T) {
		msg, err := client.CallMsg(&types.UnsignedCall{Module: ModuleEVM, Method: MethodTransfer, Args: []any{to, "1000"}}, from)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(to), *msg.To)
		assert.Equal(t, big.NewInt(1000), msg.Value)
		assert.Empty(t, msg.Data)
	})

	t.Run("native transfer all", func(t *testing.T) {
		msg, err := client.CallMsg(&types.UnsignedCall{Module: ModuleEVM, Method: MethodTransferAll, Args: []any{to}}, from)
		require.NoError(t, err)
		assert.Equal(t, int64(0), msg.Value.Int64())
	})

	t.Run("erc20 transfer", func(t *testing.T) {
		msg, err := client.CallMsg(&types.UnsignedCall{Module: ModuleERC20, Method: MethodTransfer, Args: []any{contract, to, "5"}}, from)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(contract), *msg.To)
		// selector + two 32 byte words
		assert.Len(t, msg.Data, 4+64)
	})

	t.Run("bad sender", func(t *testing.T) {
		_, err := client.CallMsg(&types.UnsignedCall{Module: ModuleEVM, Method: MethodTransfer, Args: []any{to, "1"}}, "nope")
		assert.Error(t, err)
	})

	t.Run("bad amount", func(t *testing.T) {
		_, err := client.CallMsg(&types.UnsignedCall{Module: ModuleEVM, Method: MethodTransfer, Args: []any{to, "1.5"}}, from)
		assert.Error(t, err)
	})
}
