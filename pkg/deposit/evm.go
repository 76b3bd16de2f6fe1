package deposit

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"wallet-core/config"
	"wallet-core/pkg/chainrpc"
	"wallet-core/pkg/types"
)

const (
	nativeTransferGas = uint64(21000)
	erc20TransferGas  = uint64(100000)
)

// balanceOf(address) function ABI
const balanceOfABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}]`

// evmBackend is the part of ethclient.Client a broadcaster needs
type evmBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
}

// EVMBroadcaster signs and sends evm and erc20 transfer calls
type EVMBroadcaster struct {
	client     evmBackend
	calls      *chainrpc.EVMClient
	balanceOf  abi.ABI
	chainID    *big.Int
	privateKey *ecdsa.PrivateKey
	from       common.Address
	gasLimit   *uint64
	gasPrice   *int64
}

// NewEVMBroadcaster connects to the network's RPC endpoint
func NewEVMBroadcaster(ctx context.Context, network config.NetworkConfig) (*EVMBroadcaster, error) {
	if network.RPCUrl == "" {
		return nil, fmt.Errorf("RPC URL not configured")
	}

	client, err := ethclient.DialContext(ctx, network.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	b, err := newEVMBroadcaster(ctx, client, network)
	if err != nil {
		client.Close()
		return nil, err
	}
	return b, nil
}

func newEVMBroadcaster(ctx context.Context, client evmBackend, network config.NetworkConfig) (*EVMBroadcaster, error) {
	if network.PrivateKey == "" {
		return nil, fmt.Errorf("private key not configured")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(network.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	chainID := big.NewInt(network.ChainID)
	if network.ChainID == 0 {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
	}

	calls, err := chainrpc.NewEVMClient(nil)
	if err != nil {
		return nil, err
	}
	parsedABI, err := abi.JSON(strings.NewReader(balanceOfABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse balanceOf ABI: %w", err)
	}

	return &EVMBroadcaster{
		client:     client,
		calls:      calls,
		balanceOf:  parsedABI,
		chainID:    chainID,
		privateKey: privateKey,
		from:       crypto.PubkeyToAddress(privateKey.PublicKey),
		gasLimit:   network.GasLimit,
		gasPrice:   network.GasPrice,
	}, nil
}

// Address returns the sender address derived from the private key
func (e *EVMBroadcaster) Address() string {
	return e.from.Hex()
}

// Broadcast signs the submit step's call and sends it
func (e *EVMBroadcaster) Broadcast(ctx context.Context, data *types.SwapSubmitStepData) (string, error) {
	tx, err := e.signedTx(ctx, data.Extrinsic)
	if err != nil {
		return "", err
	}

	if err := e.client.SendTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	return tx.Hash().Hex(), nil
}

func (e *EVMBroadcaster) signedTx(ctx context.Context, call *types.UnsignedCall) (*ethtypes.Transaction, error) {
	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := e.getGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	var msg ethereum.CallMsg
	var gasLimit uint64
	switch call.Module {
	case chainrpc.ModuleEVM:
		gasLimit = e.limit(nativeTransferGas)
		msg, err = e.nativeMsg(ctx, call, new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPrice))
	case chainrpc.ModuleERC20:
		msg, err = e.erc20Msg(ctx, call)
		if err == nil {
			gasLimit = e.erc20GasLimit(ctx, msg)
		}
	default:
		return nil, fmt.Errorf("unsupported evm call module: %s", call.Module)
	}
	if err != nil {
		return nil, err
	}

	tx := ethtypes.NewTransaction(nonce, *msg.To, msg.Value, gasLimit, gasPrice, msg.Data)
	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(e.chainID), e.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signedTx, nil
}

// nativeMsg resolves a native transfer; transfer-all sends the balance left after fee
func (e *EVMBroadcaster) nativeMsg(ctx context.Context, call *types.UnsignedCall, fee *big.Int) (ethereum.CallMsg, error) {
	if len(call.Args) == 0 {
		return ethereum.CallMsg{}, fmt.Errorf("call %s has no recipient", call)
	}

	balance, err := e.client.BalanceAt(ctx, e.from, nil)
	if err != nil {
		return ethereum.CallMsg{}, fmt.Errorf("failed to get balance: %w", err)
	}

	if call.Method == chainrpc.MethodTransferAll {
		value := new(big.Int).Sub(balance, fee)
		if value.Sign() <= 0 {
			return ethereum.CallMsg{}, fmt.Errorf("insufficient balance: have %s wei, fee is %s wei", balance, fee)
		}
		call = &types.UnsignedCall{Module: call.Module, Method: chainrpc.MethodTransfer, Args: []any{call.Args[0], value.String()}}
	}

	msg, err := e.calls.CallMsg(call, e.from.Hex())
	if err != nil {
		return ethereum.CallMsg{}, err
	}

	need := new(big.Int).Add(msg.Value, fee)
	if balance.Cmp(need) < 0 {
		return ethereum.CallMsg{}, fmt.Errorf("insufficient balance: have %s wei, need %s wei", balance, need)
	}
	return msg, nil
}

// erc20Msg resolves a token transfer; transfer-all sends the whole token balance
func (e *EVMBroadcaster) erc20Msg(ctx context.Context, call *types.UnsignedCall) (ethereum.CallMsg, error) {
	if len(call.Args) < 2 {
		return ethereum.CallMsg{}, fmt.Errorf("erc20 call needs a contract and a recipient")
	}
	contract, ok := call.Args[0].(string)
	if !ok || !common.IsHexAddress(contract) {
		return ethereum.CallMsg{}, fmt.Errorf("invalid token contract address: %v", call.Args[0])
	}

	balance, err := e.getERC20Balance(ctx, common.HexToAddress(contract), e.from)
	if err != nil {
		return ethereum.CallMsg{}, fmt.Errorf("failed to get token balance: %w", err)
	}

	if call.Method == chainrpc.MethodTransferAll {
		if balance.Sign() == 0 {
			return ethereum.CallMsg{}, fmt.Errorf("insufficient token balance: have 0")
		}
		call = &types.UnsignedCall{Module: call.Module, Method: chainrpc.MethodTransfer, Args: []any{contract, call.Args[1], balance.String()}}
	} else if len(call.Args) > 2 {
		amount, ok := new(big.Int).SetString(fmt.Sprintf("%v", call.Args[2]), 10)
		if ok && balance.Cmp(amount) < 0 {
			return ethereum.CallMsg{}, fmt.Errorf("insufficient token balance: have %s, need %s", balance, amount)
		}
	}

	return e.calls.CallMsg(call, e.from.Hex())
}

func (e *EVMBroadcaster) erc20GasLimit(ctx context.Context, msg ethereum.CallMsg) uint64 {
	if e.gasLimit != nil {
		return *e.gasLimit
	}
	estimatedGas, err := e.client.EstimateGas(ctx, msg)
	if err != nil {
		log.Debug().Err(err).Msg("Gas estimation failed, using default limit")
		return erc20TransferGas
	}
	return estimatedGas * 120 / 100 // Add 20% buffer
}

func (e *EVMBroadcaster) limit(fallback uint64) uint64 {
	if e.gasLimit != nil {
		return *e.gasLimit
	}
	return fallback
}

// getGasPrice returns the gas price to use for transactions
func (e *EVMBroadcaster) getGasPrice(ctx context.Context) (*big.Int, error) {
	if e.gasPrice != nil {
		return big.NewInt(*e.gasPrice), nil
	}

	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return gasPrice, nil
}

// getERC20Balance gets the balance of an ERC20 token for an address
func (e *EVMBroadcaster) getERC20Balance(ctx context.Context, tokenAddress common.Address, account common.Address) (*big.Int, error) {
	data, err := e.balanceOf.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf data: %w", err)
	}

	result, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &tokenAddress, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}
	return new(big.Int).SetBytes(result), nil
}

// Close closes the client connection
func (e *EVMBroadcaster) Close() {
	if c, ok := e.client.(*ethclient.Client); ok {
		c.Close()
	}
}
