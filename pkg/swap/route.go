package swap

import (
	"github.com/shopspring/decimal"

	"wallet-core/pkg/types"
)

// BuildRoute returns the asset path of a pair through the intermediary.
// A pair ending at the intermediary goes there directly.
func BuildRoute(pair types.SwapPair, intermediary string) types.SwapRoute {
	if pair.To == intermediary || pair.From == intermediary || intermediary == "" {
		return types.SwapRoute{Path: []string{pair.From, pair.To}}
	}
	return types.SwapRoute{Path: []string{pair.From, intermediary, pair.To}}
}

// CalculateRate returns the destination amount per unit of source, both in
// display units
func CalculateRate(fromAmount, toAmount string, fromDecimals, toDecimals int32) (string, error) {
	from, err := decimal.NewFromString(fromAmount)
	if err != nil {
		return "", err
	}
	to, err := decimal.NewFromString(toAmount)
	if err != nil {
		return "", err
	}
	if from.IsZero() {
		return "0", nil
	}
	return to.Shift(-toDecimals).Div(from.Shift(-fromDecimals)).String(), nil
}

// FormatBaseUnits renders a base unit amount in display units
func FormatBaseUnits(amount string, decimals int32) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	return d.Shift(-decimals).String()
}
