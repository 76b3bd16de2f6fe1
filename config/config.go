package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL      = "https://1click.chaindefuser.com"
	DefaultRegistryPath = "registry.toml"
	DefaultLogLevel     = "info"
)

// Bounds limits the amount accepted for an asset, in base units
type Bounds struct {
	Min string `mapstructure:"min"`
	Max string `mapstructure:"max"`
}

// VenueConfig configures the swap venue
type VenueConfig struct {
	JWTToken          string        `mapstructure:"jwt_token"`
	BaseURL           string        `mapstructure:"base_url"`
	IntermediaryAsset string        `mapstructure:"intermediary_asset"`
	QuoteTimeout      time.Duration `mapstructure:"quote_timeout"`
	SlippageBps       float32       `mapstructure:"slippage_bps"`
	// Bounds are keyed by wallet asset slug, lowercased by viper
	Bounds map[string]Bounds `mapstructure:"bounds"`
}

// BoundsFor returns the bounds configured for an asset slug
func (v VenueConfig) BoundsFor(slug string) (Bounds, bool) {
	b, ok := v.Bounds[strings.ToLower(slug)]
	return b, ok
}

// NetworkConfig configures the connection to one chain
type NetworkConfig struct {
	RPCUrl     string  `mapstructure:"rpc_url"`
	Kind       string  `mapstructure:"kind"` // substrate, evm or solana
	PrivateKey string  `mapstructure:"private_key"`
	ChainID    int64   `mapstructure:"chain_id"`
	GasLimit   *uint64 `mapstructure:"gas_limit"`
	GasPrice   *int64  `mapstructure:"gas_price"`
	// Solana only
	Commitment    string `mapstructure:"commitment"`
	SkipPreflight bool   `mapstructure:"skip_preflight"`
}

// Config holds the application configuration
type Config struct {
	Venue        VenueConfig              `mapstructure:"venue"`
	RegistryPath string                   `mapstructure:"registry_path"`
	StorePath    string                   `mapstructure:"store_path"`
	LogLevel     string                   `mapstructure:"log_level"`
	Networks     map[string]NetworkConfig `mapstructure:"networks"`
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.GetViper()
	v.SetConfigName(".wallet-core")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// FromViper decodes the configuration held by v, applying defaults and
// environment overrides
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("WALLET_CORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.applyLogLevel(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("venue.jwt_token", "")
	v.SetDefault("venue.base_url", DefaultBaseURL)
	v.SetDefault("venue.intermediary_asset", "")
	v.SetDefault("venue.quote_timeout", 30*time.Second)
	v.SetDefault("venue.slippage_bps", 100)
	v.SetDefault("registry_path", DefaultRegistryPath)
	v.SetDefault("store_path", "")
	v.SetDefault("log_level", DefaultLogLevel)
}

func (c *Config) applyLogLevel() error {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

// RequireVenue checks that the venue credentials are set
func (c *Config) RequireVenue() error {
	if c.Venue.JWTToken == "" {
		return fmt.Errorf("JWT token not found. Please set WALLET_CORE_VENUE_JWT_TOKEN environment variable or add venue.jwt_token to .wallet-core.yaml")
	}
	return nil
}

// Network returns the configuration of a chain
func (c *Config) Network(chain string) (NetworkConfig, bool) {
	network, ok := c.Networks[strings.ToLower(chain)]
	return network, ok
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
