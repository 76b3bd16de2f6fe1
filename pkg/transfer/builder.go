package transfer

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"wallet-core/pkg/chainrpc"
	"wallet-core/pkg/registry"
	"wallet-core/pkg/types"
)

// Call shapes produced by the builder
const (
	MethodTransfer    = "transfer"
	MethodTransferAll = "transferAll"
	MethodCall        = "call"

	PSP22Transfer = "psp22::transfer"

	ModuleSystem = "system"
	ModuleToken  = "token"
)

// ClientSource hands out chain clients by slug
type ClientSource interface {
	Get(chain string) (chainrpc.Client, error)
}

// Builder produces unsigned transfer calls
type Builder struct {
	registry registry.Registry
	clients  ClientSource
}

// NewBuilder creates a builder. clients is only used for contract tokens.
func NewBuilder(reg registry.Registry, clients ClientSource) *Builder {
	return &Builder{registry: reg, clients: clients}
}

// Build returns the unsigned call moving amount of asset from one account to
// another, or nil when the pair has no transfer path. With transferAll the
// whole free balance is moved; strategies without an all-funds entry point
// expect amount to carry that balance.
func (b *Builder) Build(ctx context.Context, chain *types.ChainDescriptor, asset *types.AssetDescriptor, from, to, amount string, transferAll bool) (*types.UnsignedCall, error) {
	rule := Match(chain, asset)
	if rule == nil || !rule.Capability.SupportsTransfer {
		return nil, nil
	}
	if transferAll && !rule.Capability.SupportsTransferAll {
		// no all-funds entry point: amount carries the balance
		log.Debug().
			Str("chain", chain.Slug).
			Str("asset", asset.Slug).
			Msg("Transfer all not supported, building fixed amount")
		transferAll = false
	}

	switch s := rule.Strategy.(type) {
	case NativeBalances:
		if transferAll {
			return call(s.Module, MethodTransferAll, to, false), nil
		}
		if !validAmount(amount) {
			return nil, nil
		}
		return call(s.Module, MethodTransfer, to, amount), nil

	case TokenModule:
		currency := b.registry.OnChainRepresentation(asset)
		if transferAll {
			return call(types.ModuleTokens, MethodTransferAll, to, currency, false), nil
		}
		if !validAmount(amount) {
			return nil, nil
		}
		return call(types.ModuleTokens, MethodTransfer, to, currency, amount), nil

	case CurrencyModule:
		if !validAmount(amount) {
			return nil, nil
		}
		return call(types.ModuleCurrencies, MethodTransfer, to, b.registry.OnChainRepresentation(asset), amount), nil

	case AssetIDModule:
		if !validAmount(amount) {
			return nil, nil
		}
		id := b.registry.OnChainAssetID(asset)
		if s.Module == types.ModuleEqBalances && id == nil {
			id = b.registry.OnChainRepresentation(asset)
		}
		return call(s.Module, MethodTransfer, id, to, amount), nil

	case ContractCall:
		if !validAmount(amount) {
			return nil, nil
		}
		return b.buildContractCall(ctx, chain, asset, from, to, amount)

	case EVMTransfer:
		return buildEVMCall(asset, to, amount, transferAll), nil

	case SolanaTransfer:
		if !validAmount(amount) {
			return nil, nil
		}
		if asset.Native {
			return call(ModuleSystem, MethodTransfer, to, amount), nil
		}
		return call(ModuleToken, MethodTransfer, asset.ContractAddress, to, amount), nil

	default:
		return nil, fmt.Errorf("rule %s has no call strategy", rule.Name)
	}
}

// buildContractCall simulates the transfer to bound its gas, then builds the call.
// A failed simulation means the transfer would not succeed, so no call is built.
func (b *Builder) buildContractCall(ctx context.Context, chain *types.ChainDescriptor, asset *types.AssetDescriptor, from, to, amount string) (*types.UnsignedCall, error) {
	if b.clients == nil {
		return nil, fmt.Errorf("no chain clients configured for contract transfers")
	}
	client, err := b.clients.Get(chain.Slug)
	if err != nil {
		return nil, err
	}

	probe := call(types.ModuleContracts, PSP22Transfer, asset.ContractAddress, to, amount)
	gasLimit, err := client.Simulate(ctx, probe, from)
	if err != nil {
		log.Warn().
			Err(err).
			Str("chain", chain.Slug).
			Str("contract", asset.ContractAddress).
			Msg("Contract transfer simulation failed")
		return nil, nil
	}

	return call(types.ModuleContracts, MethodCall, asset.ContractAddress, PSP22Transfer, gasLimit, to, amount), nil
}

func buildEVMCall(asset *types.AssetDescriptor, to, amount string, transferAll bool) *types.UnsignedCall {
	token := !asset.Native && asset.ContractAddress != ""

	if transferAll {
		if token {
			return call(chainrpc.ModuleERC20, MethodTransferAll, asset.ContractAddress, to)
		}
		return call(chainrpc.ModuleEVM, MethodTransferAll, to)
	}
	if !validAmount(amount) {
		return nil
	}
	if token {
		return call(chainrpc.ModuleERC20, MethodTransfer, asset.ContractAddress, to, amount)
	}
	return call(chainrpc.ModuleEVM, MethodTransfer, to, amount)
}

// validAmount accepts non-empty, non-negative decimal strings
func validAmount(amount string) bool {
	if amount == "" {
		return false
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return false
	}
	return !d.IsNegative()
}

func call(module, method string, args ...any) *types.UnsignedCall {
	return &types.UnsignedCall{Module: module, Method: method, Args: args}
}
