package chainrpc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wallet-core/pkg/types"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "chainrpc").Logger()
}

var (
	// ErrWeightAssertion is returned when a runtime rejects a fee query
	// because the call weight could not be asserted
	ErrWeightAssertion = errors.New("weight assertion failed")
	ErrNoClient        = errors.New("no rpc client for chain")
	ErrUnknownKind     = errors.New("unknown rpc kind")
)

const weightAssertionMessage = "weight assertion failed"

// Client is the narrow view of a chain connection used by the transfer core
type Client interface {
	// IsReady blocks until the connection can serve requests
	IsReady(ctx context.Context) error
	// Simulate dry-runs a call and returns the gas bound it requires
	Simulate(ctx context.Context, call *types.UnsignedCall, from string) (string, error)
	// PaymentInfo returns the fee for submitting the call, in base units of the native asset
	PaymentInfo(ctx context.Context, call *types.UnsignedCall, payer string) (string, error)
}

// IsWeightAssertion reports whether err is a weight assertion failure.
// Adapters that cannot classify the failure leave only the message, so the
// message is checked too.
func IsWeightAssertion(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrWeightAssertion) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), weightAssertionMessage)
}

// Kind selects the adapter used for a chain
type Kind string

const (
	KindSubstrate Kind = "substrate"
	KindEVM       Kind = "evm"
)

// Dial connects to a chain endpoint with the adapter for kind
func Dial(ctx context.Context, kind Kind, url string) (Client, error) {
	switch kind {
	case KindSubstrate, "":
		return DialSubstrate(ctx, url)
	case KindEVM:
		return DialEVM(ctx, url)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// Pool holds one client per chain slug
type Pool struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewPool creates an empty pool
func NewPool() *Pool {
	return &Pool{clients: make(map[string]Client)}
}

// Register binds a client to a chain slug, replacing any previous one
func (p *Pool) Register(chain string, client Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients[chain] = client
	log.Debug().Str("chain", chain).Msg("Client registered")
}

// Get returns the client for a chain
func (p *Pool) Get(chain string) (Client, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	client, ok := p.clients[chain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoClient, chain)
	}
	return client, nil
}

// Chains returns the slugs that have a registered client
func (p *Pool) Chains() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	chains := make([]string, 0, len(p.clients))
	for chain := range p.clients {
		chains = append(chains, chain)
	}
	return chains
}
