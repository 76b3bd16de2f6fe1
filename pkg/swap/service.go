package swap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wallet-core/pkg/types"
)

// DefaultQuoteResponseTimeout is how long a failed quote response stays valid
const DefaultQuoteResponseTimeout = 90 * time.Second

// QuoteResponse is the outcome of asking for the latest quote
type QuoteResponse struct {
	Quote      *types.SwapQuote `json:"quote,omitempty"`
	Error      *SwapError       `json:"error,omitempty"`
	AliveUntil time.Time        `json:"alive_until"`
}

// Service drives swap processes through their lifecycle and persists them
type Service struct {
	engine       *Engine
	orchestrator *Orchestrator
	store        *Store
	status       StatusSource
	notifier     DepositNotifier
	now          func() time.Time
}

// NewService creates a swap service. status and notifier may be nil.
func NewService(engine *Engine, orchestrator *Orchestrator, store *Store, status StatusSource, notifier DepositNotifier) *Service {
	return &Service{
		engine:       engine,
		orchestrator: orchestrator,
		store:        store,
		status:       status,
		notifier:     notifier,
		now:          time.Now,
	}
}

// GetLatestQuote asks for a fresh quote. Swap errors are reported in the
// response; other errors are returned.
func (s *Service) GetLatestQuote(ctx context.Context, req types.SwapRequest) (*QuoteResponse, error) {
	quote, err := s.engine.GetSwapQuote(ctx, req)
	if err != nil {
		swapErr, ok := AsSwapError(err)
		if !ok {
			return nil, err
		}
		return &QuoteResponse{Error: swapErr, AliveUntil: s.now().Add(DefaultQuoteResponseTimeout)}, nil
	}
	return &QuoteResponse{Quote: quote, AliveUntil: quote.AliveUntil}, nil
}

// Plan quotes a request and stores a new process for it
func (s *Service) Plan(ctx context.Context, req types.SwapRequest) (*SwapProcess, error) {
	quote, err := s.engine.GetSwapQuote(ctx, req)
	if err != nil {
		return nil, err
	}

	optimal := s.orchestrator.GenerateOptimalProcess(GenerateProcessParams{Request: req, SelectedQuote: quote})
	now := s.now()
	p := &SwapProcess{
		ID:        uuid.New().String(),
		State:     StatePlanned,
		Steps:     optimal.Steps,
		TotalFee:  optimal.TotalFee,
		Request:   req,
		Quote:     quote,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(p); err != nil {
		return nil, fmt.Errorf("failed to save swap: %w", err)
	}

	log.Info().Str("id", p.ID).Str("from", req.Pair.From).Str("to", req.Pair.To).Msg("Swap planned")
	return p, nil
}

// Submit executes the swap step of a planned process. A process that
// already has a deposit returns its stored submission unchanged.
func (s *Service) Submit(ctx context.Context, id, sender string) (*SwapProcess, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	switch p.State {
	case StatePlanned:
	case StateAwaitingDeposit, StateSubmitted:
		return p, nil
	default:
		return nil, fmt.Errorf("%w: swap %s is %s", ErrInvalidTransition, id, p.State)
	}

	data, err := s.orchestrator.HandleSwapProcess(ctx, HandleStepParams{
		Process:     &OptimalProcess{Steps: p.Steps, TotalFee: p.TotalFee},
		CurrentStep: len(p.Steps) - 1,
		Quote:       p.Quote,
		Address:     sender,
		Recipient:   p.Request.Recipient,
	})
	if err != nil {
		if errors.Is(err, ErrQuoteExpired) {
			return nil, s.fail(p, err)
		}
		return nil, err
	}

	next, err := Transition(*p, DepositRequested{Submission: data}, s.now())
	if err != nil {
		return nil, err
	}
	next.Sender = sender
	if err := s.store.Update(&next); err != nil {
		return nil, fmt.Errorf("failed to save swap: %w", err)
	}
	return &next, nil
}

// RecordBroadcast stores the deposit transaction hash and tells the venue about it
func (s *Service) RecordBroadcast(ctx context.Context, id, txHash string) (*SwapProcess, error) {
	p, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	next, err := Transition(*p, DepositBroadcast{TxHash: txHash}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(&next); err != nil {
		return nil, fmt.Errorf("failed to save swap: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.SubmitDepositTx(ctx, next.Submission.TxData.DepositAddress, txHash); err != nil {
			// the venue detects deposits on its own; this only speeds it up
			log.Warn().Err(err).Str("id", id).Msg("Failed to notify venue of deposit")
		}
	}
	return &next, nil
}

// Refresh polls the venue for the status of a process and applies it
func (s *Service) Refresh(ctx context.Context, id string) (*SwapProcess, *SwapStatus, error) {
	if s.status == nil {
		return nil, nil, fmt.Errorf("no status source configured")
	}

	p, err := s.store.Get(id)
	if err != nil {
		return nil, nil, err
	}
	if p.State.IsFinal() || p.Submission == nil {
		return p, nil, nil
	}

	status, err := s.status.GetStatus(ctx, p.Submission.TxData.DepositAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get swap status: %w", err)
	}

	var ev Event
	switch status.Status {
	case StatusSuccess:
		ev = SwapSettled{AmountOut: status.AmountOut}
	case StatusFailed, StatusRefunded:
		ev = SwapFailed{Reason: fmt.Sprintf("venue reported %s", status.Status)}
	default:
		return p, status, nil
	}

	next, err := Transition(*p, ev, s.now())
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.Update(&next); err != nil {
		return nil, nil, fmt.Errorf("failed to save swap: %w", err)
	}

	log.Info().Str("id", id).Str("state", string(next.State)).Msg("Swap status updated")
	return &next, status, nil
}

// Get returns a stored process
func (s *Service) Get(id string) (*SwapProcess, error) {
	return s.store.Get(id)
}

// List returns all stored processes
func (s *Service) List() []*SwapProcess {
	return s.store.List()
}

// ListByState returns the stored processes in state
func (s *Service) ListByState(state ProcessState) []*SwapProcess {
	return s.store.ListByState(state)
}

// Remove deletes a process that holds no open deposit channel. Processes
// awaiting or carrying a deposit must reach a final state first.
func (s *Service) Remove(id string) error {
	p, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if p.State == StateAwaitingDeposit || p.State == StateSubmitted {
		return fmt.Errorf("%w: swap %s is %s", ErrProcessActive, id, p.State)
	}
	if err := s.store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete swap: %w", err)
	}

	log.Info().Str("id", id).Str("state", string(p.State)).Msg("Swap removed")
	return nil
}

func (s *Service) fail(p *SwapProcess, cause error) error {
	next, err := Transition(*p, SwapFailed{Reason: cause.Error()}, s.now())
	if err != nil {
		return err
	}
	if err := s.store.Update(&next); err != nil {
		return fmt.Errorf("failed to save swap: %w", err)
	}
	return cause
}
