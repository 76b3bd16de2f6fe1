package types

import "time"

// SwapPair is a (source asset, destination asset) pair identified by wallet slugs
type SwapPair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SwapRequest represents a user's swap command
type SwapRequest struct {
	Pair       SwapPair `json:"pair"`
	FromAmount string   `json:"from_amount"` // Base units of the source asset
	Recipient  string   `json:"recipient,omitempty"`
}

// SwapProvider identifies the venue that produced a quote
type SwapProvider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SwapFeeType classifies a fee component
type SwapFeeType string

const (
	FeeTypeNetwork  SwapFeeType = "NETWORK_FEE"
	FeeTypePlatform SwapFeeType = "PLATFORM_FEE"
)

// FeeComponent is a single normalized fee line
type FeeComponent struct {
	FeeType   SwapFeeType `json:"fee_type"`
	Amount    string      `json:"amount"`
	TokenSlug string      `json:"token_slug"`
}

// FeeInfo aggregates the fees of a quote or a process step
type FeeInfo struct {
	FeeComponent    []FeeComponent `json:"fee_component"`
	DefaultFeeToken string         `json:"default_fee_token"`
	FeeOptions      []string       `json:"fee_options"`
}

// SwapRoute is the asset path of a swap
type SwapRoute struct {
	Path []string `json:"path"`
}

// SwapQuote is a self-contained snapshot of a venue quote.
// It must not be acted on after AliveUntil.
type SwapQuote struct {
	Pair       SwapPair     `json:"pair"`
	FromAmount string       `json:"from_amount"`
	ToAmount   string       `json:"to_amount"`
	Rate       string       `json:"rate"`
	Provider   SwapProvider `json:"provider"`
	AliveUntil time.Time    `json:"alive_until"`
	MinSwap    string       `json:"min_swap"`
	MaxSwap    string       `json:"max_swap,omitempty"`
	FeeInfo    FeeInfo      `json:"fee_info"`
	Route      SwapRoute    `json:"route"`
}

// IsExpired returns true once the quote deadline has passed
func (q *SwapQuote) IsExpired(now time.Time) bool {
	return !now.Before(q.AliveUntil)
}

// SwapStepType defines the kind of a process step
type SwapStepType string

const (
	StepTypeDefault SwapStepType = "DEFAULT" // Bookkeeping, never executable
	StepTypeSwap    SwapStepType = "SWAP"    // Funded venue deposit
)

// SwapStep is a single step in a swap process; ID is its position
type SwapStep struct {
	ID   int          `json:"id"`
	Name string       `json:"name"`
	Type SwapStepType `json:"type"`
}

// DepositReceipt is the venue data attached to a submitted swap step
type DepositReceipt struct {
	DepositChannelID string `json:"deposit_channel_id"`
	DepositAddress   string `json:"deposit_address"`
	DepositMemo      string `json:"deposit_memo,omitempty"`
}

// SwapSubmitStepData is the output of executing a step, consumed by the signer
type SwapSubmitStepData struct {
	TxChain              string         `json:"tx_chain"`
	TxData               DepositReceipt `json:"tx_data"`
	Extrinsic            *UnsignedCall  `json:"extrinsic"`
	TransferNativeAmount string         `json:"transfer_native_amount"`
	ExtrinsicType        string         `json:"extrinsic_type"`
	ChainType            ChainType      `json:"chain_type"`
}
