package types

import (
	"fmt"
	"strings"
)

// TransferCapability tells whether a (chain, asset) pair can be transferred
type TransferCapability struct {
	SupportsTransfer    bool `json:"supports_transfer"`
	SupportsTransferAll bool `json:"supports_transfer_all"`
}

// Unsupported is the capability of a pair with no transfer path
var Unsupported = TransferCapability{}

// UnsignedCall is a module call ready to be handed to a signer.
// It carries no signature and has not been broadcast.
type UnsignedCall struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// String renders the call as module.method(args...)
func (c *UnsignedCall) String() string {
	if c == nil {
		return "<nil>"
	}
	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		args[i] = fmt.Sprintf("%v", arg)
	}
	return fmt.Sprintf("%s.%s(%s)", c.Module, c.Method, strings.Join(args, ", "))
}

// FeeQuote is the estimated cost of submitting a call
type FeeQuote struct {
	Amount         string `json:"amount"`
	FeeAssetSymbol string `json:"fee_asset_symbol,omitempty"`
}
