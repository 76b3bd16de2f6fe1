package chainrpc

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"wallet-core/pkg/types"
)

// Modules and methods of the calls built for EVM chains
const (
	ModuleEVM   = "evm"
	ModuleERC20 = "erc20"

	MethodTransfer    = "transfer"
	MethodTransferAll = "transferAll"
)

// ERC20 transfer function ABI
const erc20TransferABI = `[{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

// EVMClient estimates calls against an EVM node
type EVMClient struct {
	client *ethclient.Client
	erc20  abi.ABI
}

// DialEVM connects to an EVM JSON-RPC endpoint
func DialEVM(ctx context.Context, url string) (*EVMClient, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	return NewEVMClient(client)
}

// NewEVMClient wraps an existing ethclient
func NewEVMClient(client *ethclient.Client) (*EVMClient, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return &EVMClient{client: client, erc20: parsed}, nil
}

// IsReady checks that the node answers a chain id query
func (c *EVMClient) IsReady(ctx context.Context) error {
	if _, err := c.client.ChainID(ctx); err != nil {
		return fmt.Errorf("node not ready: %w", err)
	}
	return nil
}

// Simulate estimates the gas of the call
func (c *EVMClient) Simulate(ctx context.Context, call *types.UnsignedCall, from string) (string, error) {
	msg, err := c.CallMsg(call, from)
	if err != nil {
		return "", err
	}

	gas, err := c.client.EstimateGas(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}
	return new(big.Int).SetUint64(gas).String(), nil
}

// PaymentInfo returns estimated gas times the suggested gas price, in wei
func (c *EVMClient) PaymentInfo(ctx context.Context, call *types.UnsignedCall, payer string) (string, error) {
	msg, err := c.CallMsg(call, payer)
	if err != nil {
		return "", err
	}

	gas, err := c.client.EstimateGas(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPrice)
	return fee.String(), nil
}

// CallMsg converts an unsigned EVM call into a message for estimation.
// Transfer-all calls are estimated with a zero value; the final amount is
// only known at broadcast time.
func (c *EVMClient) CallMsg(call *types.UnsignedCall, from string) (ethereum.CallMsg, error) {
	if !common.IsHexAddress(from) {
		return ethereum.CallMsg{}, fmt.Errorf("invalid sender address: %s", from)
	}
	msg := ethereum.CallMsg{From: common.HexToAddress(from)}

	switch call.Module {
	case ModuleEVM:
		to, value, err := transferArgs(call, 0)
		if err != nil {
			return ethereum.CallMsg{}, err
		}
		msg.To = &to
		msg.Value = value
	case ModuleERC20:
		if len(call.Args) < 2 {
			return ethereum.CallMsg{}, fmt.Errorf("erc20 call needs a contract and a recipient")
		}
		contract, err := hexAddress(call.Args[0])
		if err != nil {
			return ethereum.CallMsg{}, err
		}
		to, value, err := transferArgs(call, 1)
		if err != nil {
			return ethereum.CallMsg{}, err
		}
		data, err := c.erc20.Pack("transfer", to, value)
		if err != nil {
			return ethereum.CallMsg{}, fmt.Errorf("failed to pack transfer data: %w", err)
		}
		msg.To = &contract
		msg.Data = data
	default:
		return ethereum.CallMsg{}, fmt.Errorf("unsupported evm call module: %s", call.Module)
	}
	return msg, nil
}

// transferArgs reads (to, amount) starting at offset; transferAll calls carry no amount
func transferArgs(call *types.UnsignedCall, offset int) (common.Address, *big.Int, error) {
	if len(call.Args) <= offset {
		return common.Address{}, nil, fmt.Errorf("call %s has no recipient", call)
	}
	to, err := hexAddress(call.Args[offset])
	if err != nil {
		return common.Address{}, nil, err
	}

	if call.Method == MethodTransferAll {
		return to, big.NewInt(0), nil
	}
	if len(call.Args) <= offset+1 {
		return common.Address{}, nil, fmt.Errorf("call %s has no amount", call)
	}
	value, ok := new(big.Int).SetString(fmt.Sprintf("%v", call.Args[offset+1]), 10)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("invalid amount: %v", call.Args[offset+1])
	}
	return to, value, nil
}

func hexAddress(v any) (common.Address, error) {
	s, ok := v.(string)
	if !ok || !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %v", v)
	}
	return common.HexToAddress(s), nil
}

// Close releases the connection
func (c *EVMClient) Close() {
	c.client.Close()
}
