package types

// ChainType identifies the execution model of a chain
type ChainType string

const (
	ChainTypeSubstrate ChainType = "substrate" // Ledger-style runtime with module calls
	ChainTypeEVM       ChainType = "evm"       // EVM account model
	ChainTypeSolana    ChainType = "solana"    // Solana programs
)

// Runtime modules a chain may expose for transfers
const (
	ModuleCurrencies = "currencies"
	ModuleTokens     = "tokens"
	ModuleEqBalances = "eqBalances"
	ModuleBalances   = "balances"
	ModuleAssets     = "assets"
	ModuleUniques    = "uniques"
	ModuleContracts  = "contracts"
	ModuleKton       = "kton"
)

// ChainDescriptor describes the module surface of a chain.
// It is loaded once by the registry and only read afterwards.
type ChainDescriptor struct {
	Slug           string    `json:"slug" toml:"slug"`
	Name           string    `json:"name" toml:"name"`
	Type           ChainType `json:"type" toml:"type"`
	Modules        []string  `json:"modules" toml:"modules"`
	EVMCompatible  bool      `json:"evm_compatible" toml:"evm_compatible"`
	NativeSymbol   string    `json:"native_symbol" toml:"native_symbol"`
	NativeDecimals int32     `json:"native_decimals" toml:"native_decimals"`
	Denylisted     bool      `json:"denylisted" toml:"denylisted"`
}

// HasModule reports whether the chain exposes the named runtime module
func (c *ChainDescriptor) HasModule(module string) bool {
	for _, m := range c.Modules {
		if m == module {
			return true
		}
	}
	return false
}

// IsEVM returns true for chains that execute EVM transactions
func (c *ChainDescriptor) IsEVM() bool {
	return c.EVMCompatible || c.Type == ChainTypeEVM
}

// ExecutionType returns the chain type, deriving it from the EVM flag when unset
func (c *ChainDescriptor) ExecutionType() ChainType {
	if c.IsEVM() {
		return ChainTypeEVM
	}
	if c.Type == "" {
		return ChainTypeSubstrate
	}
	return c.Type
}

// AssetDescriptor describes how an asset is represented on its origin chain
type AssetDescriptor struct {
	Slug             string `json:"slug" toml:"slug"`
	OriginChain      string `json:"origin_chain" toml:"origin_chain"`
	Symbol           string `json:"symbol" toml:"symbol"`
	Decimals         int32  `json:"decimals" toml:"decimals"`
	Native           bool   `json:"native" toml:"native"`
	SmartContract    bool   `json:"smart_contract" toml:"smart_contract"`
	ContractAddress  string `json:"contract_address,omitempty" toml:"contract_address"`
	OnChainInfo      any    `json:"on_chain_info,omitempty" toml:"on_chain_info"`
	AssetID          any    `json:"asset_id,omitempty" toml:"asset_id"`
	TransferDisabled bool   `json:"transfer_disabled,omitempty" toml:"transfer_disabled"`
	MinAmount        string `json:"min_amount,omitempty" toml:"min_amount"` // Existential deposit in base units
}

