package swap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-core/pkg/types"
)

func TestGenerateOptimalProcess(t *testing.T) {
	h := newHarness(t)
	req := dotToUSDC()

	quote, err := h.engine.GetSwapQuote(context.Background(), req)
	require.NoError(t, err)

	for _, q := range []*types.SwapQuote{quote, nil} {
		p := h.orchestrator.GenerateOptimalProcess(GenerateProcessParams{Request: req, SelectedQuote: q})
		require.Len(t, p.Steps, 2)
		assert.Len(t, p.TotalFee, len(p.Steps))
		assert.Equal(t, types.StepTypeDefault, p.Steps[0].Type)
		assert.Equal(t, types.StepTypeSwap, p.Steps[1].Type)
		assert.Empty(t, p.TotalFee[0].FeeComponent)
	}

	placeholder := h.orchestrator.GenerateOptimalProcess(GenerateProcessParams{Request: req})
	assert.Equal(t, dotSlug, placeholder.TotalFee[1].DefaultFeeToken)
	assert.Equal(t, []string{dotSlug}, placeholder.TotalFee[1].FeeOptions)

	withQuote := h.orchestrator.GenerateOptimalProcess(GenerateProcessParams{Request: req, SelectedQuote: quote})
	assert.Equal(t, quote.FeeInfo, withQuote.TotalFee[1])
}

func TestHandleSwapProcessRejectsBadSteps(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	process := h.orchestrator.GenerateOptimalProcess(GenerateProcessParams{Request: dotToUSDC()})

	_, err := h.orchestrator.HandleSwapProcess(ctx, HandleStepParams{Process: process, CurrentStep: 0})
	assert.True(t, errors.Is(err, ErrUnsupportedStep))

	short := &OptimalProcess{Steps: process.Steps[:1], TotalFee: process.TotalFee[:1]}
	_, err = h.orchestrator.HandleSwapProcess(ctx, HandleStepParams{Process: short, CurrentStep: 0})
	assert.True(t, errors.Is(err, ErrInvalidProcess))

	_, err = h.orchestrator.HandleSwapProcess(ctx, HandleStepParams{Process: process, CurrentStep: 5})
	assert.True(t, errors.Is(err, ErrInvalidProcess))

	assert.Empty(t, h.venue.depositRequests)
}

func TestHandleSwapProcessSubmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := dotToUSDC()

	quote, err := h.engine.GetSwapQuote(ctx, req)
	require.NoError(t, err)
	process := h.orchestrator.GenerateOptimalProcess(GenerateProcessParams{Request: req, SelectedQuote: quote})

	data, err := h.orchestrator.HandleSwapProcess(ctx, HandleStepParams{
		Process:     process,
		CurrentStep: 1,
		Quote:       quote,
		Address:     alice,
		Recipient:   evmAddr,
	})
	require.NoError(t, err)

	channel := h.venue.channel
	assert.Equal(t, "polkadot", data.TxChain)
	assert.Equal(t, types.DepositReceipt{DepositChannelID: "channel-1", DepositAddress: channel.Address}, data.TxData)
	assert.Equal(t, &types.UnsignedCall{Module: "balances", Method: "transfer", Args: []any{channel.Address, "500000000000"}}, data.Extrinsic)
	assert.Equal(t, "500000000000", data.TransferNativeAmount)
	assert.Equal(t, ExtrinsicTransferBalance, data.ExtrinsicType)
	assert.Equal(t, types.ChainTypeSubstrate, data.ChainType)

	require.Len(t, h.venue.depositRequests, 1)
	assert.Equal(t, evmAddr, h.venue.depositRequests[0].Recipient)
	assert.Equal(t, alice, h.venue.depositRequests[0].RefundTo)
}

func TestHandleSwapProcessBuildFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	orchestrator := NewOrchestrator(h.engine, h.venue, nilBuilder{})

	quote, err := h.engine.GetSwapQuote(ctx, dotToUSDC())
	require.NoError(t, err)
	process := orchestrator.GenerateOptimalProcess(GenerateProcessParams{Request: dotToUSDC(), SelectedQuote: quote})

	_, err = orchestrator.HandleSwapProcess(ctx, HandleStepParams{Process: process, CurrentStep: 1, Quote: quote, Address: alice, Recipient: evmAddr})
	assert.True(t, errors.Is(err, ErrBuildFailed))
}

func TestHandleSwapProcessErrorsPropagate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	quote, err := h.engine.GetSwapQuote(ctx, dotToUSDC())
	require.NoError(t, err)
	process := h.orchestrator.GenerateOptimalProcess(GenerateProcessParams{Request: dotToUSDC(), SelectedQuote: quote})
	params := HandleStepParams{Process: process, CurrentStep: 1, Quote: quote, Address: alice, Recipient: evmAddr}

	h.venue.depositErr = errors.New("channel limit reached")
	_, err = h.orchestrator.HandleSwapProcess(ctx, params)
	assert.ErrorContains(t, err, "channel limit reached")

	h.orchestrator.now = func() time.Time { return quote.AliveUntil.Add(time.Second) }
	_, err = h.orchestrator.HandleSwapProcess(ctx, params)
	assert.True(t, errors.Is(err, ErrQuoteExpired))
}
