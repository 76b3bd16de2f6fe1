package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"wallet-core/pkg/types"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "registry").Logger()
}

var (
	ErrChainNotFound = errors.New("chain not found")
	ErrAssetNotFound = errors.New("asset not found")
)

// Registry is the read-only source of chain and asset descriptors
type Registry interface {
	Chain(slug string) (*types.ChainDescriptor, error)
	Asset(slug string) (*types.AssetDescriptor, error)
	Assets() []*types.AssetDescriptor
	OnChainRepresentation(asset *types.AssetDescriptor) any
	OnChainAssetID(asset *types.AssetDescriptor) any
}

// VenueAsset maps a wallet asset to the identifiers a swap venue uses for it
type VenueAsset struct {
	Asset      string `toml:"asset"`
	VenueChain string `toml:"venue_chain"`
	VenueAsset string `toml:"venue_asset"`
}

// File is the on-disk layout of a registry file
type File struct {
	Chains      []types.ChainDescriptor `toml:"chains"`
	Assets      []types.AssetDescriptor `toml:"assets"`
	VenueAssets []VenueAsset            `toml:"venue_assets"`
}

// Static is an in-memory registry. It is immutable once built.
type Static struct {
	mu          sync.RWMutex
	chains      map[string]*types.ChainDescriptor
	assets      map[string]*types.AssetDescriptor
	venueAssets []VenueAsset
}

// New builds a registry from descriptors
func New(chains []types.ChainDescriptor, assets []types.AssetDescriptor, venueAssets []VenueAsset) (*Static, error) {
	r := &Static{
		chains:      make(map[string]*types.ChainDescriptor, len(chains)),
		assets:      make(map[string]*types.AssetDescriptor, len(assets)),
		venueAssets: venueAssets,
	}

	for i := range chains {
		chain := chains[i]
		if chain.Slug == "" {
			return nil, fmt.Errorf("chain at index %d has no slug", i)
		}
		if _, exists := r.chains[chain.Slug]; exists {
			return nil, fmt.Errorf("duplicate chain '%s'", chain.Slug)
		}
		r.chains[chain.Slug] = &chain
	}

	for i := range assets {
		asset := assets[i]
		if asset.Slug == "" {
			return nil, fmt.Errorf("asset at index %d has no slug", i)
		}
		if _, ok := r.chains[asset.OriginChain]; !ok {
			return nil, fmt.Errorf("asset '%s' references unknown chain '%s'", asset.Slug, asset.OriginChain)
		}
		if _, exists := r.assets[asset.Slug]; exists {
			return nil, fmt.Errorf("duplicate asset '%s'", asset.Slug)
		}
		r.assets[asset.Slug] = &asset
	}

	for _, va := range venueAssets {
		if _, ok := r.assets[va.Asset]; !ok {
			return nil, fmt.Errorf("venue mapping references unknown asset '%s'", va.Asset)
		}
	}

	return r, nil
}

// Load reads a TOML registry file
func Load(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var file File
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}

	r, err := New(file.Chains, file.Assets, file.VenueAssets)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("path", path).
		Int("chains", len(file.Chains)).
		Int("assets", len(file.Assets)).
		Msg("Registry loaded")
	return r, nil
}

// Chain returns the descriptor for a chain slug
func (r *Static) Chain(slug string) (*types.ChainDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain, ok := r.chains[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChainNotFound, slug)
	}
	return chain, nil
}

// Asset returns the descriptor for an asset slug
func (r *Static) Asset(slug string) (*types.AssetDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, slug)
	}
	return asset, nil
}

// Assets returns all assets sorted by slug
func (r *Static) Assets() []*types.AssetDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assets := make([]*types.AssetDescriptor, 0, len(r.assets))
	for _, asset := range r.assets {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Slug < assets[j].Slug })
	return assets
}

// OnChainRepresentation returns the structured argument form of an asset
func (r *Static) OnChainRepresentation(asset *types.AssetDescriptor) any {
	return asset.OnChainInfo
}

// OnChainAssetID returns the raw on-chain id of an asset
func (r *Static) OnChainAssetID(asset *types.AssetDescriptor) any {
	return asset.AssetID
}

// VenueAssets returns the wallet-to-venue asset mapping entries
func (r *Static) VenueAssets() []VenueAsset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]VenueAsset, len(r.venueAssets))
	copy(out, r.venueAssets)
	return out
}
