package chainrpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"wallet-core/pkg/types"
)

const readyPollInterval = 500 * time.Millisecond

// SubstrateClient talks to a substrate tx-service over JSON-RPC.
// The service accepts unsigned calls in their {module, method, args} form.
type SubstrateClient struct {
	rpc *rpc.Client
}

type health struct {
	Peers     int  `json:"peers"`
	IsSyncing bool `json:"isSyncing"`
}

type paymentInfo struct {
	PartialFee string `json:"partialFee"`
}

type dryRun struct {
	GasRequired string `json:"gasRequired"`
}

// DialSubstrate connects to a tx-service endpoint
func DialSubstrate(ctx context.Context, url string) (*SubstrateClient, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	return NewSubstrateClient(client), nil
}

// NewSubstrateClient wraps an existing JSON-RPC client
func NewSubstrateClient(client *rpc.Client) *SubstrateClient {
	return &SubstrateClient{rpc: client}
}

// IsReady polls system_health until the node answers and is not syncing
func (c *SubstrateClient) IsReady(ctx context.Context) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		var h health
		err := c.rpc.CallContext(ctx, &h, "system_health")
		if err == nil && !h.IsSyncing {
			return nil
		}
		if err != nil {
			log.Debug().Err(err).Msg("Node not ready")
		}

		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("node not ready: %w", err)
			}
			return fmt.Errorf("node still syncing: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Simulate dry-runs a contract call and returns the gas it requires
func (c *SubstrateClient) Simulate(ctx context.Context, call *types.UnsignedCall, from string) (string, error) {
	var res dryRun
	if err := c.rpc.CallContext(ctx, &res, "tx_dryRunContract", call, from); err != nil {
		return "", fmt.Errorf("failed to simulate call: %w", classify(err))
	}
	if res.GasRequired == "" {
		return "", fmt.Errorf("simulation returned no gas bound")
	}
	return res.GasRequired, nil
}

// PaymentInfo returns the partial fee for the call
func (c *SubstrateClient) PaymentInfo(ctx context.Context, call *types.UnsignedCall, payer string) (string, error) {
	var res paymentInfo
	if err := c.rpc.CallContext(ctx, &res, "tx_paymentInfo", call, payer); err != nil {
		return "", fmt.Errorf("failed to query payment info: %w", classify(err))
	}
	return res.PartialFee, nil
}

// Close releases the connection
func (c *SubstrateClient) Close() {
	c.rpc.Close()
}

// classify turns weight assertion rpc errors into ErrWeightAssertion
func classify(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && IsWeightAssertion(rpcErr) {
		return fmt.Errorf("%w: %s", ErrWeightAssertion, rpcErr.Error())
	}
	return err
}
