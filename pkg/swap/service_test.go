package swap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-core/pkg/types"
)

func TestTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	submission := &types.SwapSubmitStepData{TxChain: "polkadot"}
	planned := SwapProcess{ID: "p1", State: StatePlanned, Steps: []types.SwapStep{DefaultFirstStep, SubmitStep}}

	awaiting, err := Transition(planned, DepositRequested{Submission: submission}, now)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingDeposit, awaiting.State)
	assert.Equal(t, 1, awaiting.CurrentStep)
	assert.Equal(t, now, awaiting.UpdatedAt)
	assert.Equal(t, StatePlanned, planned.State)

	submitted, err := Transition(awaiting, DepositBroadcast{TxHash: "0xabc"}, now)
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, submitted.State)
	assert.Equal(t, "0xabc", submitted.TxHash)

	completed, err := Transition(submitted, SwapSettled{AmountOut: "250"}, now)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, completed.State)
	assert.Equal(t, "250", completed.AmountOut)

	_, err = Transition(completed, SwapFailed{Reason: "late"}, now)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestTransitionRejectsOutOfOrderEvents(t *testing.T) {
	now := time.Now()
	planned := SwapProcess{State: StatePlanned}

	tests := []struct {
		name string
		p    SwapProcess
		ev   Event
	}{
		{"broadcast before deposit", planned, DepositBroadcast{TxHash: "0x1"}},
		{"settled before deposit", planned, SwapSettled{}},
		{"deposit without submission", planned, DepositRequested{}},
		{"double deposit", SwapProcess{State: StateAwaitingDeposit}, DepositRequested{Submission: &types.SwapSubmitStepData{}}},
		{"empty hash", SwapProcess{State: StateAwaitingDeposit}, DepositBroadcast{}},
		{"failed is final", SwapProcess{State: StateFailed}, SwapSettled{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Transition(tt.p, tt.ev, now)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			assert.Equal(t, tt.p, next)
		})
	}
}

func TestTransitionFailFromAnyOpenState(t *testing.T) {
	for _, state := range []ProcessState{StatePlanned, StateAwaitingDeposit, StateSubmitted} {
		next, err := Transition(SwapProcess{State: state}, SwapFailed{Reason: "refunded"}, time.Now())
		require.NoError(t, err)
		assert.Equal(t, StateFailed, next.State)
		assert.Equal(t, "refunded", next.Error)
	}
}

func newService(t *testing.T, path string, status *fakeStatus) (*Service, *harness) {
	t.Helper()
	h := newHarness(t)
	store, err := NewStore(path)
	require.NoError(t, err)
	return NewService(h.engine, h.orchestrator, store, status, status), h
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "swaps.json")
	status := &fakeStatus{status: &SwapStatus{Status: StatusProcessing}}
	svc, h := newService(t, path, status)

	planned, err := svc.Plan(ctx, dotToUSDC())
	require.NoError(t, err)
	assert.Equal(t, StatePlanned, planned.State)
	assert.NotEmpty(t, planned.ID)
	require.NotNil(t, planned.Quote)

	submitted, err := svc.Submit(ctx, planned.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingDeposit, submitted.State)
	require.NotNil(t, submitted.Submission)
	assert.Equal(t, alice, submitted.Sender)

	// a reload resumes from the stored state without opening a new channel
	reloaded, _ := newService(t, path, status)
	resumed, err := reloaded.Submit(ctx, planned.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingDeposit, resumed.State)
	assert.Equal(t, submitted.Submission.TxData, resumed.Submission.TxData)
	assert.Equal(t, submitted.Submission.Extrinsic.String(), resumed.Submission.Extrinsic.String())
	assert.Len(t, h.venue.depositRequests, 1)

	broadcast, err := reloaded.RecordBroadcast(ctx, planned.ID, "0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, broadcast.State)
	assert.Equal(t, []string{h.venue.channel.Address + ":0xdeadbeef"}, status.notified)

	p, st, err := reloaded.Refresh(ctx, planned.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, st.Status)
	assert.Equal(t, StateSubmitted, p.State)

	status.status = &SwapStatus{Status: StatusSuccess, AmountOut: "249000000"}
	p, _, err = reloaded.Refresh(ctx, planned.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, p.State)
	assert.Equal(t, "249000000", p.AmountOut)

	stored, err := reloaded.Get(planned.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, stored.State)
	assert.Len(t, reloaded.List(), 1)
}

func TestServiceRefund(t *testing.T) {
	ctx := context.Background()
	status := &fakeStatus{status: &SwapStatus{Status: StatusRefunded}}
	svc, _ := newService(t, filepath.Join(t.TempDir(), "swaps.json"), status)

	p, err := svc.Plan(ctx, dotToUSDC())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, p.ID, alice)
	require.NoError(t, err)

	p, _, err = svc.Refresh(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, p.State)
	assert.Contains(t, p.Error, "REFUNDED")
}

func TestServiceExpiredQuoteFailsProcess(t *testing.T) {
	ctx := context.Background()
	svc, h := newService(t, filepath.Join(t.TempDir(), "swaps.json"), &fakeStatus{})

	p, err := svc.Plan(ctx, dotToUSDC())
	require.NoError(t, err)

	h.orchestrator.now = func() time.Time { return p.Quote.AliveUntil.Add(time.Minute) }
	_, err = svc.Submit(ctx, p.ID, alice)
	assert.True(t, errors.Is(err, ErrQuoteExpired))

	stored, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, stored.State)
}

func TestServicePlanRejectsInvalidRequest(t *testing.T) {
	svc, _ := newService(t, filepath.Join(t.TempDir(), "swaps.json"), &fakeStatus{})
	req := dotToUSDC()
	req.FromAmount = "1"

	_, err := svc.Plan(context.Background(), req)
	requireSwapError(t, err, ErrorNotMeetMinSwap)
	assert.Empty(t, svc.List())
}

func TestGetLatestQuote(t *testing.T) {
	ctx := context.Background()
	svc, h := newService(t, filepath.Join(t.TempDir(), "swaps.json"), &fakeStatus{})

	resp, err := svc.GetLatestQuote(ctx, dotToUSDC())
	require.NoError(t, err)
	require.NotNil(t, resp.Quote)
	assert.Nil(t, resp.Error)
	assert.Equal(t, resp.Quote.AliveUntil, resp.AliveUntil)

	h.venue.quoteErr = errors.New("timeout")
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	resp, err = svc.GetLatestQuote(ctx, dotToUSDC())
	require.NoError(t, err)
	assert.Nil(t, resp.Quote)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrorFetchingQuote, resp.Error.Type)
	assert.Equal(t, now.Add(DefaultQuoteResponseTimeout), resp.AliveUntil)
}

func TestTrackerStopsOnFinalState(t *testing.T) {
	ctx := context.Background()
	status := &fakeStatus{status: &SwapStatus{Status: StatusSuccess, AmountOut: "1"}}
	svc, _ := newService(t, filepath.Join(t.TempDir(), "swaps.json"), status)

	p, err := svc.Plan(ctx, dotToUSDC())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, p.ID, alice)
	require.NoError(t, err)

	var updates int
	final, err := NewTracker(svc, time.Millisecond).Track(ctx, p.ID, func(*SwapProcess, *SwapStatus) { updates++ })
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, final.State)
	assert.Equal(t, 1, updates)

	_, err = NewTracker(svc, time.Millisecond).Track(ctx, "missing", nil)
	assert.True(t, errors.Is(err, ErrProcessNotFound))
}

func TestTrackerHonoursContext(t *testing.T) {
	status := &fakeStatus{status: &SwapStatus{Status: StatusPendingDeposit}}
	svc, _ := newService(t, filepath.Join(t.TempDir(), "swaps.json"), status)

	p, err := svc.Plan(context.Background(), dotToUSDC())
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), p.ID, alice)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = NewTracker(svc, 5*time.Millisecond).Track(ctx, p.ID, nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestServiceRemove(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, filepath.Join(t.TempDir(), "swaps.json"), &fakeStatus{})

	planned, err := svc.Plan(ctx, dotToUSDC())
	require.NoError(t, err)
	other, err := svc.Plan(ctx, dotToUSDC())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, other.ID, alice)
	require.NoError(t, err)

	assert.Len(t, svc.ListByState(StatePlanned), 1)
	assert.Len(t, svc.ListByState(StateAwaitingDeposit), 1)

	assert.True(t, errors.Is(svc.Remove(other.ID), ErrProcessActive))
	require.NoError(t, svc.Remove(planned.ID))
	assert.True(t, errors.Is(svc.Remove(planned.ID), ErrProcessNotFound))
	assert.Len(t, svc.List(), 1)
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "swaps.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	p := &SwapProcess{ID: "a", State: StatePlanned, CreatedAt: time.Now()}
	require.NoError(t, store.Create(p))
	assert.Error(t, store.Create(p))

	p.State = StateFailed
	require.NoError(t, store.Update(p))
	assert.Len(t, store.ListByState(StateFailed), 1)

	reopened, err := NewStore(path)
	require.NoError(t, err)
	got, err := reopened.Get("a")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, got.State)

	require.NoError(t, reopened.Delete("a"))
	_, err = reopened.Get("a")
	assert.True(t, errors.Is(err, ErrProcessNotFound))
	assert.True(t, errors.Is(reopened.Update(p), ErrProcessNotFound))
}
