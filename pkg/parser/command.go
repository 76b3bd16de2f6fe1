package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"wallet-core/pkg/registry"
	"wallet-core/pkg/types"
)

// SwapCommand is a parsed swap command; amounts are in display units
type SwapCommand struct {
	Amount      string
	SourceToken string
	DestToken   string
	Recipient   string
}

// Pattern: <amount> <source_token> TO <dest_token> [FOR <recipient>]
// Tokens are asset slugs or SYMBOL[@chain]
var swapPattern = regexp.MustCompile(`(?i)^(\d+\.?\d*)\s+([A-Za-z0-9_@-]+)\s+to\s+([A-Za-z0-9_@-]+)(?:\s+for\s+(\S+))?$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 DOT to USDC"
//   - "1.5 ETH to DOT for 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
//   - "swap 100 USDC@ethereum to polkadot-NATIVE-DOT"
func ParseSwapCommand(command string) (*SwapCommand, error) {
	command = strings.TrimSpace(command)

	// Remove the word "swap" if present at the beginning
	if len(command) > 5 && strings.EqualFold(command[:5], "swap ") {
		command = strings.TrimSpace(command[5:])
	}

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token> [for <recipient>]' (e.g., 'swap 1 DOT to USDC')")
	}

	return &SwapCommand{
		Amount:      matches[1],
		SourceToken: matches[2],
		DestToken:   matches[3],
		Recipient:   matches[4],
	}, nil
}

// Request resolves the command's tokens against the registry and converts
// the amount to base units of the source asset
func (c *SwapCommand) Request(reg registry.Registry) (*types.SwapRequest, error) {
	from, err := ResolveAsset(reg, c.SourceToken)
	if err != nil {
		return nil, err
	}
	to, err := ResolveAsset(reg, c.DestToken)
	if err != nil {
		return nil, err
	}

	amount, err := ToBaseUnits(c.Amount, from.Decimals)
	if err != nil {
		return nil, err
	}

	return &types.SwapRequest{
		Pair:       types.SwapPair{From: from.Slug, To: to.Slug},
		FromAmount: amount,
		Recipient:  c.Recipient,
	}, nil
}

// ResolveAsset finds an asset by slug, or by symbol optionally qualified
// with its origin chain as SYMBOL@chain
func ResolveAsset(reg registry.Registry, token string) (*types.AssetDescriptor, error) {
	if asset, err := reg.Asset(token); err == nil {
		return asset, nil
	}

	symbol, chain, _ := strings.Cut(token, "@")
	alias := NormalizeTokenSymbol(symbol)

	var matches []*types.AssetDescriptor
	for _, asset := range reg.Assets() {
		if !strings.EqualFold(asset.Symbol, symbol) && !strings.EqualFold(asset.Symbol, alias) {
			continue
		}
		if chain != "" && !strings.EqualFold(asset.OriginChain, chain) {
			continue
		}
		matches = append(matches, asset)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", registry.ErrAssetNotFound, token)
	case 1:
		return matches[0], nil
	}

	slugs := make([]string, len(matches))
	for i, asset := range matches {
		slugs[i] = asset.Slug
	}
	sort.Strings(slugs)
	return nil, fmt.Errorf("token %s is ambiguous, use one of: %s", token, strings.Join(slugs, ", "))
}

// ToBaseUnits converts a display amount to base units
func ToBaseUnits(amount string, decimals int32) (string, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if !d.IsPositive() {
		return "", fmt.Errorf("amount must be positive: %s", amount)
	}

	units := d.Shift(decimals)
	if !units.Equal(units.Truncate(0)) {
		return "", fmt.Errorf("amount %s has more than %d decimals", amount, decimals)
	}
	return units.String(), nil
}

// ValidateSwapCommand validates that a swap command has all required fields
func ValidateSwapCommand(c *SwapCommand) error {
	if c.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if c.SourceToken == "" {
		return fmt.Errorf("source token is required")
	}
	if c.DestToken == "" {
		return fmt.Errorf("destination token is required")
	}
	return nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Handle common aliases
	aliases := map[string]string{
		"WETH": "ETH",
		"WSOL": "SOL",
		"WDOT": "DOT",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}
	return symbol
}
