package deposit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wallet-core/config"
	"wallet-core/pkg/types"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "deposit").Logger()
}

var (
	// ErrExternalSigner is returned for chains whose calls are signed outside this process
	ErrExternalSigner = errors.New("calls on this chain are signed by an external signer")
	ErrNotConfigured  = errors.New("auto-deposit is not configured for chain")
)

// Broadcaster signs a submit step's call and broadcasts it, returning the tx hash
type Broadcaster interface {
	Broadcast(ctx context.Context, data *types.SwapSubmitStepData) (string, error)
}

type closer interface {
	Close()
}

type addresser interface {
	Address() string
}

// Manager routes submit steps to the broadcaster of their chain
type Manager struct {
	broadcasters map[string]Broadcaster
}

// NewManager creates an empty deposit manager
func NewManager() *Manager {
	return &Manager{broadcasters: make(map[string]Broadcaster)}
}

// NewManagerFromConfig creates broadcasters for every network carrying a private key
func NewManagerFromConfig(ctx context.Context, networks map[string]config.NetworkConfig) (*Manager, error) {
	m := NewManager()
	for chain, network := range networks {
		if network.PrivateKey == "" {
			continue
		}

		var (
			b   Broadcaster
			err error
		)
		switch strings.ToLower(network.Kind) {
		case string(types.ChainTypeEVM):
			b, err = NewEVMBroadcaster(ctx, network)
		case string(types.ChainTypeSolana):
			b, err = NewSolanaBroadcaster(network)
		default:
			log.Debug().Str("chain", chain).Str("kind", network.Kind).Msg("No broadcaster for network kind")
			continue
		}
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to set up %s: %w", chain, err)
		}
		m.Register(chain, b)
	}
	return m, nil
}

// Register sets the broadcaster of a chain
func (m *Manager) Register(chain string, b Broadcaster) {
	m.broadcasters[strings.ToLower(chain)] = b
}

// IsEnabledForChain returns whether auto-deposit is available for a chain
func (m *Manager) IsEnabledForChain(chain string) bool {
	_, ok := m.broadcasters[strings.ToLower(chain)]
	return ok
}

// Address returns the sending account of a chain's broadcaster
func (m *Manager) Address(chain string) (string, bool) {
	b, ok := m.broadcasters[strings.ToLower(chain)]
	if !ok {
		return "", false
	}
	a, ok := b.(addresser)
	if !ok {
		return "", false
	}
	return a.Address(), true
}

// GetSupportedChains returns the chains that support auto-deposit
func (m *Manager) GetSupportedChains() []string {
	supported := make([]string, 0, len(m.broadcasters))
	for chain := range m.broadcasters {
		supported = append(supported, chain)
	}
	sort.Strings(supported)
	return supported
}

// Broadcast signs and sends the call of a submit step
func (m *Manager) Broadcast(ctx context.Context, data *types.SwapSubmitStepData) (string, error) {
	if data == nil || data.Extrinsic == nil {
		return "", fmt.Errorf("submit step carries no call")
	}
	if data.ChainType == types.ChainTypeSubstrate {
		return "", fmt.Errorf("%s: %w", data.TxChain, ErrExternalSigner)
	}

	b, ok := m.broadcasters[strings.ToLower(data.TxChain)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotConfigured, data.TxChain)
	}

	hash, err := b.Broadcast(ctx, data)
	if err != nil {
		return "", err
	}

	log.Info().
		Str("chain", data.TxChain).
		Str("deposit_address", data.TxData.DepositAddress).
		Str("tx_hash", hash).
		Msg("Deposit broadcast")
	return hash, nil
}

// Close releases the broadcasters' connections
func (m *Manager) Close() {
	for _, b := range m.broadcasters {
		if c, ok := b.(closer); ok {
			c.Close()
		}
	}
}
