package swap

import (
	"wallet-core/pkg/types"
)

// classifyFees converts venue fee lines into fee components. Lines of an
// unknown kind or in an asset the wallet does not map are dropped.
func classifyFees(fees []VenueFee, mapping *AssetMapping) []types.FeeComponent {
	components := make([]types.FeeComponent, 0, len(fees))
	for _, fee := range fees {
		var feeType types.SwapFeeType
		switch fee.Kind {
		case FeeKindIngress, FeeKindNetwork, FeeKindEgress:
			feeType = types.FeeTypeNetwork
		case FeeKindLiquidity:
			feeType = types.FeeTypePlatform
		default:
			log.Debug().Str("kind", fee.Kind).Msg("Skipping unknown fee kind")
			continue
		}

		slug, ok := mapping.FromVenue(fee.Chain, fee.Asset)
		if !ok {
			log.Debug().
				Str("chain", fee.Chain).
				Str("asset", fee.Asset).
				Msg("Skipping fee in unmapped asset")
			continue
		}

		components = append(components, types.FeeComponent{
			FeeType:   feeType,
			Amount:    fee.Amount,
			TokenSlug: slug,
		})
	}
	return components
}
