package swap

import (
	"errors"
	"fmt"
	"time"

	"wallet-core/pkg/types"
)

// ProcessState is the lifecycle state of a swap process
type ProcessState string

const (
	StatePlanned         ProcessState = "planned"          // Quote accepted, nothing sent
	StateAwaitingDeposit ProcessState = "awaiting_deposit" // Deposit channel open, call built
	StateSubmitted       ProcessState = "submitted"        // Deposit broadcast
	StateCompleted       ProcessState = "completed"        // Venue delivered the output
	StateFailed          ProcessState = "failed"           // Failed or refunded
)

// IsFinal reports whether the state accepts no further events
func (s ProcessState) IsFinal() bool {
	return s == StateCompleted || s == StateFailed
}

var ErrInvalidTransition = errors.New("invalid swap state transition")

// SwapProcess is a persisted swap moving through its steps
type SwapProcess struct {
	ID          string                    `json:"id"`
	State       ProcessState              `json:"state"`
	Steps       []types.SwapStep          `json:"steps"`
	TotalFee    []types.FeeInfo           `json:"total_fee"`
	CurrentStep int                       `json:"current_step"`
	Request     types.SwapRequest         `json:"request"`
	Sender      string                    `json:"sender,omitempty"`
	Quote       *types.SwapQuote          `json:"quote"`
	Submission  *types.SwapSubmitStepData `json:"submission,omitempty"`
	TxHash      string                    `json:"tx_hash,omitempty"`
	AmountOut   string                    `json:"amount_out,omitempty"`
	Error       string                    `json:"error,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// Event moves a process between states
type Event interface {
	event()
}

// DepositRequested records the deposit channel and the built call
type DepositRequested struct {
	Submission *types.SwapSubmitStepData
}

// DepositBroadcast records the hash of the broadcast deposit
type DepositBroadcast struct {
	TxHash string
}

// SwapSettled records the venue's final success
type SwapSettled struct {
	AmountOut string
}

// SwapFailed records a failure or refund
type SwapFailed struct {
	Reason string
}

func (DepositRequested) event() {}
func (DepositBroadcast) event() {}
func (SwapSettled) event()      {}
func (SwapFailed) event()       {}

// Transition applies ev to a copy of p. The input is never modified.
func Transition(p SwapProcess, ev Event, now time.Time) (SwapProcess, error) {
	if p.State.IsFinal() {
		return p, fmt.Errorf("%w: process %s is %s", ErrInvalidTransition, p.ID, p.State)
	}

	next := p
	switch e := ev.(type) {
	case DepositRequested:
		if p.State != StatePlanned {
			return p, invalid(p, "deposit request")
		}
		if e.Submission == nil {
			return p, fmt.Errorf("%w: deposit request without submission", ErrInvalidTransition)
		}
		next.State = StateAwaitingDeposit
		next.Submission = e.Submission
		next.CurrentStep = len(p.Steps) - 1

	case DepositBroadcast:
		if p.State != StateAwaitingDeposit {
			return p, invalid(p, "deposit broadcast")
		}
		if e.TxHash == "" {
			return p, fmt.Errorf("%w: empty transaction hash", ErrInvalidTransition)
		}
		next.State = StateSubmitted
		next.TxHash = e.TxHash

	case SwapSettled:
		// the venue may see the deposit before the broadcast is recorded
		if p.State != StateSubmitted && p.State != StateAwaitingDeposit {
			return p, invalid(p, "settlement")
		}
		next.State = StateCompleted
		next.AmountOut = e.AmountOut

	case SwapFailed:
		next.State = StateFailed
		next.Error = e.Reason

	default:
		return p, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
	}

	next.UpdatedAt = now
	return next, nil
}

func invalid(p SwapProcess, what string) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, what, p.State)
}
