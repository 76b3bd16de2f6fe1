package swap

import (
	"context"
	"fmt"
	"time"

	"wallet-core/pkg/types"
)

// Extrinsic types reported to the signer
const (
	ExtrinsicTransferBalance = "transfer_balance"
	ExtrinsicTransferToken   = "transfer_token"
)

var (
	DefaultFirstStep = types.SwapStep{ID: 0, Name: "Fill information", Type: types.StepTypeDefault}
	SubmitStep       = types.SwapStep{ID: 1, Name: "Swap", Type: types.StepTypeSwap}
)

// CallBuilder builds the deposit transfer
type CallBuilder interface {
	Build(ctx context.Context, chain *types.ChainDescriptor, asset *types.AssetDescriptor, from, to, amount string, transferAll bool) (*types.UnsignedCall, error)
}

// Orchestrator plans swap processes and executes their steps
type Orchestrator struct {
	engine  *Engine
	venue   Venue
	builder CallBuilder
	now     func() time.Time
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(engine *Engine, venue Venue, builder CallBuilder) *Orchestrator {
	return &Orchestrator{
		engine:  engine,
		venue:   venue,
		builder: builder,
		now:     time.Now,
	}
}

// OptimalProcess is the ordered steps of a swap and the fee of each step
type OptimalProcess struct {
	Steps    []types.SwapStep `json:"steps"`
	TotalFee []types.FeeInfo  `json:"total_fee"`
}

// GenerateProcessParams selects the request and quote to plan for
type GenerateProcessParams struct {
	Request       types.SwapRequest
	SelectedQuote *types.SwapQuote
}

// GenerateOptimalProcess returns the bookkeeping step followed by the swap step
func (o *Orchestrator) GenerateOptimalProcess(params GenerateProcessParams) *OptimalProcess {
	swapFee := types.FeeInfo{
		FeeComponent:    []types.FeeComponent{},
		DefaultFeeToken: params.Request.Pair.From,
		FeeOptions:      []string{params.Request.Pair.From},
	}
	if params.SelectedQuote != nil {
		swapFee = params.SelectedQuote.FeeInfo
	}

	return &OptimalProcess{
		Steps: []types.SwapStep{DefaultFirstStep, SubmitStep},
		TotalFee: []types.FeeInfo{
			{FeeComponent: []types.FeeComponent{}, FeeOptions: []string{}},
			swapFee,
		},
	}
}

// HandleStepParams selects the step to execute
type HandleStepParams struct {
	Process     *OptimalProcess
	CurrentStep int
	Quote       *types.SwapQuote
	// Address sends the deposit
	Address string
	// Recipient receives the output; defaults to Address
	Recipient string
}

// HandleSwapProcess executes the current step of a process
func (o *Orchestrator) HandleSwapProcess(ctx context.Context, params HandleStepParams) (*types.SwapSubmitStepData, error) {
	if params.Process == nil || len(params.Process.Steps) < 2 {
		return nil, fmt.Errorf("%w: a swap process needs at least two steps", ErrInvalidProcess)
	}
	if params.CurrentStep < 0 || params.CurrentStep >= len(params.Process.Steps) {
		return nil, fmt.Errorf("%w: step %d out of range", ErrInvalidProcess, params.CurrentStep)
	}

	step := params.Process.Steps[params.CurrentStep]
	if step.Type == types.StepTypeDefault {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStep, step.Name)
	}
	return o.handleSubmitStep(ctx, params)
}

// handleSubmitStep opens a deposit channel and builds the transfer funding it
func (o *Orchestrator) handleSubmitStep(ctx context.Context, params HandleStepParams) (*types.SwapSubmitStepData, error) {
	quote := params.Quote
	if quote == nil {
		return nil, fmt.Errorf("%w: no quote selected", ErrInvalidProcess)
	}
	if quote.IsExpired(o.now()) {
		return nil, ErrQuoteExpired
	}

	sender := params.Address
	receiver := params.Recipient
	if receiver == "" {
		receiver = sender
	}

	v, err := o.engine.ValidateSwapRequest(ctx, types.SwapRequest{
		Pair:       quote.Pair,
		FromAmount: quote.FromAmount,
		Recipient:  receiver,
	})
	if err != nil {
		return nil, err
	}

	channel, err := o.venue.RequestDepositAddress(ctx, DepositRequest{
		Source:      v.Source,
		Destination: v.Destination,
		Amount:      quote.FromAmount,
		Recipient:   receiver,
		RefundTo:    sender,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open deposit channel: %w", err)
	}

	call, err := o.builder.Build(ctx, v.FromChain, v.FromAsset, sender, channel.Address, quote.FromAmount, false)
	if err != nil {
		return nil, err
	}
	if call == nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrBuildFailed, v.FromAsset.Slug, v.FromChain.Slug)
	}

	data := &types.SwapSubmitStepData{
		TxChain: v.FromChain.Slug,
		TxData: types.DepositReceipt{
			DepositChannelID: channel.ID,
			DepositAddress:   channel.Address,
			DepositMemo:      channel.Memo,
		},
		Extrinsic:            call,
		TransferNativeAmount: "0",
		ExtrinsicType:        ExtrinsicTransferToken,
		ChainType:            v.FromChain.ExecutionType(),
	}
	if v.FromAsset.Native {
		data.TransferNativeAmount = quote.FromAmount
		data.ExtrinsicType = ExtrinsicTransferBalance
	}

	log.Info().
		Str("chain", data.TxChain).
		Str("deposit_address", channel.Address).
		Str("call", call.String()).
		Msg("Deposit prepared")
	return data, nil
}
