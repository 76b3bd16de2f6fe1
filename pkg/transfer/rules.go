package transfer

import (
	"wallet-core/pkg/types"
)

// CallStrategy selects how the builder shapes a transfer call
type CallStrategy interface {
	strategy()
}

// NativeBalances transfers through a balances-style module
type NativeBalances struct {
	Module string
}

// CurrencyModule transfers through currencies.transfer(to, currency, amount)
type CurrencyModule struct{}

// TokenModule transfers through tokens.transfer / tokens.transferAll
type TokenModule struct{}

// AssetIDModule transfers through an asset-id keyed module
type AssetIDModule struct {
	Module string
}

// ContractCall transfers a contract token after simulating the call
type ContractCall struct{}

// EVMTransfer transfers native coins or ERC20 tokens on an EVM chain
type EVMTransfer struct{}

// SolanaTransfer transfers SOL or SPL tokens
type SolanaTransfer struct{}

func (NativeBalances) strategy() {}
func (CurrencyModule) strategy() {}
func (TokenModule) strategy()    {}
func (AssetIDModule) strategy()  {}
func (ContractCall) strategy()   {}
func (EVMTransfer) strategy()    {}
func (SolanaTransfer) strategy() {}

// Rule is one row of the capability table. Rules are evaluated in order and
// the first matching rule decides both capability and call shape.
type Rule struct {
	Name       string
	Match      func(chain *types.ChainDescriptor, asset *types.AssetDescriptor) bool
	Capability types.TransferCapability
	Strategy   CallStrategy
}

// Chain groups sharing a transfer surface
var (
	DenylistChains = []string{"subspace_gemini_3a", "kulupu", "joystream"}

	CurrenciesChains = []string{"karura", "acala", "acala_testnet"}
	TokensChains     = []string{
		"kintsugi", "kintsugi_test", "interlay", "mangatax_para",
		"pendulum", "amplitude", "amplitude_test",
	}
	EqBalancesChains = []string{"genshiro", "genshiro_testnet", "equilibrium_parachain"}
	KtonChains       = []string{"crab", "pangolin"}
	KtonSymbols      = []string{"CKTON", "PKTON"}
	BitChains        = []string{"pioneer", "bitcountry"}
	BitSymbols       = []string{"BIT"}
	AssetIDChains    = []string{
		"statemint", "statemine", "darwinia2", "astar", "shiden", "shibuya",
		"parallel", "liberland", "liberlandTest", "dentnet", "dbcchain", "sora_substrate",
	}
)

var (
	full         = types.TransferCapability{SupportsTransfer: true, SupportsTransferAll: true}
	transferOnly = types.TransferCapability{SupportsTransfer: true}
)

var rules = []Rule{
	{
		Name: "disabled",
		Match: func(c *types.ChainDescriptor, a *types.AssetDescriptor) bool {
			return c.Denylisted || contains(DenylistChains, c.Slug) || a.TransferDisabled
		},
		Capability: types.Unsupported,
	},
	{
		Name: "evm",
		Match: func(c *types.ChainDescriptor, a *types.AssetDescriptor) bool {
			return c.IsEVM()
		},
		Capability: full,
		Strategy:   EVMTransfer{},
	},
	{
		Name: "contract-token",
		Match: func(c *types.ChainDescriptor, a *types.AssetDescriptor) bool {
			return a.SmartContract && c.HasModule(types.ModuleContracts)
		},
		Capability: full,
		Strategy:   ContractCall{},
	},
	{
		Name:       "currencies-group",
		Match:      group(CurrenciesChains, types.ModuleCurrencies),
		Capability: transferOnly,
		Strategy:   CurrencyModule{},
	},
	{
		Name:       "tokens-group",
		Match:      group(TokensChains, types.ModuleTokens),
		Capability: full,
		Strategy:   TokenModule{},
	},
	{
		Name:       "eq-balances-group",
		Match:      group(EqBalancesChains, types.ModuleEqBalances),
		Capability: transferOnly,
		Strategy:   AssetIDModule{Module: types.ModuleEqBalances},
	},
	{
		Name:       "kton-allowlist",
		Match:      allowlist(KtonChains, KtonSymbols, types.ModuleKton),
		Capability: full,
		Strategy:   NativeBalances{Module: types.ModuleKton},
	},
	{
		Name: "native-balances",
		Match: func(c *types.ChainDescriptor, a *types.AssetDescriptor) bool {
			return a.Native && c.HasModule(types.ModuleBalances)
		},
		Capability: full,
		Strategy:   NativeBalances{Module: types.ModuleBalances},
	},
	{
		Name:       "bit-allowlist",
		Match:      allowlist(BitChains, BitSymbols, types.ModuleCurrencies),
		Capability: full,
		Strategy:   CurrencyModule{},
	},
	{
		Name:       "asset-id-group",
		Match:      group(AssetIDChains, types.ModuleAssets),
		Capability: full,
		Strategy:   AssetIDModule{Module: types.ModuleAssets},
	},
	{
		Name: "solana",
		Match: func(c *types.ChainDescriptor, a *types.AssetDescriptor) bool {
			return c.Type == types.ChainTypeSolana
		},
		Capability: transferOnly,
		Strategy:   SolanaTransfer{},
	},
}

// Rules returns a copy of the ordered rule table
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Match returns the first rule accepting the pair, or nil when none does
func Match(chain *types.ChainDescriptor, asset *types.AssetDescriptor) *Rule {
	if chain == nil || asset == nil {
		return nil
	}
	for i := range rules {
		if rules[i].Match(chain, asset) {
			rule := rules[i]
			return &rule
		}
	}
	return nil
}

// group matches non-native assets on one of the chains when the module is exposed
func group(chains []string, module string) func(*types.ChainDescriptor, *types.AssetDescriptor) bool {
	return func(c *types.ChainDescriptor, a *types.AssetDescriptor) bool {
		return !a.Native && contains(chains, c.Slug) && c.HasModule(module)
	}
}

// allowlist matches non-native assets on one of the chains or with one of the symbols
func allowlist(chains, symbols []string, module string) func(*types.ChainDescriptor, *types.AssetDescriptor) bool {
	return func(c *types.ChainDescriptor, a *types.AssetDescriptor) bool {
		if a.Native || !c.HasModule(module) {
			return false
		}
		return contains(chains, c.Slug) || contains(symbols, a.Symbol)
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
