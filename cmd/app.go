package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"wallet-core/config"
	"wallet-core/pkg/chainrpc"
	"wallet-core/pkg/client"
	"wallet-core/pkg/registry"
	"wallet-core/pkg/swap"
	"wallet-core/pkg/transfer"
	"wallet-core/pkg/types"
)

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return cfg
}

func mustLoadRegistry(cfg *config.Config) *registry.Static {
	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return reg
}

func mustLookup(reg registry.Registry, slug string) (*types.ChainDescriptor, *types.AssetDescriptor) {
	asset, err := reg.Asset(slug)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	chain, err := reg.Chain(asset.OriginChain)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return chain, asset
}

// dialClients connects to every configured substrate and evm network.
// Unreachable networks are skipped; calls needing them fail later.
func dialClients(ctx context.Context, cfg *config.Config, verbose bool) *chainrpc.Pool {
	pool := chainrpc.NewPool()
	for chain, network := range cfg.Networks {
		kind := chainrpc.Kind(network.Kind)
		if kind != chainrpc.KindSubstrate && kind != chainrpc.KindEVM && kind != "" {
			continue
		}
		if network.RPCUrl == "" {
			continue
		}

		c, err := chainrpc.Dial(ctx, kind, network.RPCUrl)
		if err != nil {
			if verbose {
				color.Yellow("Skipping %s: %v", chain, err)
			}
			continue
		}
		pool.Register(chain, c)
	}
	return pool
}

func newVenue(cfg *config.Config, reg *registry.Static, mapping *swap.AssetMapping) *client.OneClickClient {
	bounds := make(map[string]client.Bounds)
	for _, asset := range reg.Assets() {
		b, ok := cfg.Venue.BoundsFor(asset.Slug)
		if !ok {
			continue
		}
		chain, symbol, ok := mapping.ToVenue(asset.Slug)
		if !ok {
			continue
		}
		bounds[client.BoundsKey(chain, symbol)] = client.Bounds{Min: b.Min, Max: b.Max}
	}

	return client.NewOneClickClient(client.Config{
		JWTToken:          cfg.Venue.JWTToken,
		BaseURL:           cfg.Venue.BaseURL,
		IntermediaryAsset: cfg.Venue.IntermediaryAsset,
		QuoteTimeout:      cfg.Venue.QuoteTimeout,
		SlippageBps:       cfg.Venue.SlippageBps,
		Bounds:            bounds,
	})
}

// swapApp holds everything the swap commands need
type swapApp struct {
	cfg      *config.Config
	registry *registry.Static
	mapping  *swap.AssetMapping
	venue    *client.OneClickClient
	service  *swap.Service
}

func mustLoadSwapApp(ctx context.Context, verbose bool) *swapApp {
	cfg := mustLoadConfig()
	if err := cfg.RequireVenue(); err != nil {
		printError(err)
		os.Exit(1)
	}
	reg := mustLoadRegistry(cfg)

	mapping := swap.NewAssetMapping(reg.VenueAssets())
	venue := newVenue(cfg, reg, mapping)
	builder := transfer.NewBuilder(reg, dialClients(ctx, cfg, verbose))

	store, err := swap.NewStore(cfg.StorePath)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	engine := swap.NewEngine(venue, reg, mapping)
	orchestrator := swap.NewOrchestrator(engine, venue, builder)

	return &swapApp{
		cfg:      cfg,
		registry: reg,
		mapping:  mapping,
		venue:    venue,
		service:  swap.NewService(engine, orchestrator, store, venue, venue),
	}
}

func startSpinner(suffix string, jsonOutput bool) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " " + suffix
		s.Start()
	}
	return s
}

func printJSON(v any) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printError(fmt.Errorf("failed to encode output: %w", err))
		os.Exit(1)
	}
	fmt.Println(string(jsonData))
}
