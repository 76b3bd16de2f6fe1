package transfer

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"wallet-core/pkg/registry"
	"wallet-core/pkg/types"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "transfer").Logger()
}

// Resolver decides whether an asset can be transferred on a chain
type Resolver struct {
	registry registry.Registry
}

// NewResolver creates a resolver backed by a registry
func NewResolver(reg registry.Registry) *Resolver {
	return &Resolver{registry: reg}
}

// Resolve returns the capability of the first matching rule, or Unsupported
func (r *Resolver) Resolve(chain *types.ChainDescriptor, asset *types.AssetDescriptor) types.TransferCapability {
	rule := Match(chain, asset)
	if rule == nil {
		return types.Unsupported
	}
	return rule.Capability
}

// ResolveAsset looks up an asset and its origin chain and resolves them
func (r *Resolver) ResolveAsset(slug string) (*Resolution, error) {
	asset, err := r.registry.Asset(slug)
	if err != nil {
		return nil, err
	}
	chain, err := r.registry.Chain(asset.OriginChain)
	if err != nil {
		return nil, err
	}

	res := &Resolution{
		Chain:      chain,
		Asset:      asset,
		Capability: types.Unsupported,
	}
	if rule := Match(chain, asset); rule != nil {
		res.Rule = rule.Name
		res.Capability = rule.Capability
	}

	log.Debug().
		Str("asset", slug).
		Str("chain", chain.Slug).
		Str("rule", res.Rule).
		Bool("transfer", res.Capability.SupportsTransfer).
		Bool("transfer_all", res.Capability.SupportsTransferAll).
		Msg("Resolved transfer capability")
	return res, nil
}

// Resolution is the outcome of resolving an asset by slug
type Resolution struct {
	Chain      *types.ChainDescriptor
	Asset      *types.AssetDescriptor
	Rule       string
	Capability types.TransferCapability
}

// String renders the resolution for display
func (r *Resolution) String() string {
	rule := r.Rule
	if rule == "" {
		rule = "none"
	}
	return fmt.Sprintf("%s on %s: transfer=%t transferAll=%t (rule %s)",
		r.Asset.Slug, r.Chain.Slug, r.Capability.SupportsTransfer, r.Capability.SupportsTransferAll, rule)
}
