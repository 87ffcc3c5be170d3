package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"decobook/internal/infra/snap"
	"decobook/internal/metrics"
	"decobook/internal/stories/bookings"
	"decobook/internal/stories/payments"
)

type mockTokens struct {
	mu    sync.Mutex
	token string
	err   error
	calls int
}

func (m *mockTokens) RequestToken(_ context.Context, _ string, _ bookings.Stage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.token, m.err
}

// mockSource serves a scripted sequence of booking lists: fetch n returns
// the entry at index min(n-1, len-1).
type mockSource struct {
	mu        sync.Mutex
	responses [][]bookings.Booking
	errs      []error
	calls     int
}

func (m *mockSource) ListMine(_ context.Context) ([]bookings.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.calls
	m.calls++
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	var err error
	if idx < len(m.errs) {
		err = m.errs[idx]
	}
	if err != nil {
		return nil, err
	}
	return m.responses[idx], nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockGateway struct {
	mu        sync.Mutex
	err       error
	calls     int
	callbacks snap.Callbacks
	invoke    func(cb snap.Callbacks)
}

func (m *mockGateway) Pay(_ context.Context, _ string, cb snap.Callbacks) error {
	m.mu.Lock()
	m.calls++
	m.callbacks = cb
	m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.invoke != nil {
		m.invoke(cb)
	}
	return nil
}

type mockJournal struct {
	mu       sync.Mutex
	starts   []Operation
	finishes []Operation
	done     chan Operation
}

func newMockJournal() *mockJournal {
	return &mockJournal{done: make(chan Operation, 8)}
}

func (m *mockJournal) RecordStart(_ context.Context, op Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts = append(m.starts, op)
	return nil
}

func (m *mockJournal) RecordFinish(_ context.Context, op Operation) error {
	m.mu.Lock()
	m.finishes = append(m.finishes, op)
	m.mu.Unlock()
	m.done <- op
	return nil
}

func (m *mockJournal) waitFinish(t *testing.T) Operation {
	t.Helper()
	select {
	case op := <-m.done:
		return op
	case <-time.After(3 * time.Second):
		t.Fatal("operation did not finish in time")
		return Operation{}
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func unpaid(id string) []bookings.Booking {
	return []bookings.Booking{{
		ID:                id,
		Status:            bookings.StatusDownPayment,
		AvailablePayments: []bookings.Stage{bookings.StageDP},
	}}
}

func dpPaid(id string) []bookings.Booking {
	return []bookings.Booking{{
		ID:           id,
		Status:       bookings.StatusDownPaymentPaid,
		PaidPayments: []bookings.Stage{bookings.StageDP},
	}}
}

type fixture struct {
	tokens  *mockTokens
	source  *mockSource
	gateway *mockGateway
	journal *mockJournal
	store   *Store
	engine  *Engine
	notices chan Notice
}

func newFixture(t *testing.T, source *mockSource, cfg Config) *fixture {
	t.Helper()

	f := &fixture{
		tokens:  &mockTokens{token: "snap-token"},
		source:  source,
		gateway: &mockGateway{},
		journal: newMockJournal(),
		store:   NewStore(),
		notices: make(chan Notice, 8),
	}
	if cfg.Notify == nil {
		cfg.Notify = func(n Notice) { f.notices <- n }
	}
	f.engine = NewEngine(
		f.tokens,
		f.source,
		f.gateway,
		f.journal,
		f.store,
		metrics.New(prometheus.NewRegistry()),
		cfg,
		testLogger(),
	)
	t.Cleanup(f.engine.Close)
	return f
}

func TestPayResolvesWhenBackendConfirms(t *testing.T) {
	source := &mockSource{responses: [][]bookings.Booking{
		unpaid("b-1"),
		unpaid("b-1"),
		dpPaid("b-1"),
	}}
	f := newFixture(t, source, Config{MaxAttempts: 30, PollInterval: time.Millisecond})

	if err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP); err != nil {
		t.Fatalf("Pay() error = %v", err)
	}

	op := f.journal.waitFinish(t)
	if op.Outcome != OutcomeResolved {
		t.Fatalf("outcome = %q, want %q", op.Outcome, OutcomeResolved)
	}
	if op.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", op.Attempts)
	}
	if op.State != StateResolved {
		t.Errorf("state = %q, want %q", op.State, StateResolved)
	}
	if op.FinishedAt == nil {
		t.Error("finished operation must carry a finish time")
	}

	// resolution stops the loop: no further fetches happen
	settled := source.callCount()
	time.Sleep(20 * time.Millisecond)
	if source.callCount() != settled {
		t.Errorf("polling continued after resolution: %d then %d fetches", settled, source.callCount())
	}

	if f.store.IsProcessing("b-1") {
		t.Error("processing flag must be cleared after resolution")
	}
}

func TestPayResolvesWithoutAnyGatewayCallback(t *testing.T) {
	// the gateway mock never invokes a callback; polling alone must settle it
	source := &mockSource{responses: [][]bookings.Booking{dpPaid("b-1")}}
	f := newFixture(t, source, Config{MaxAttempts: 5, PollInterval: time.Millisecond})

	if err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP); err != nil {
		t.Fatalf("Pay() error = %v", err)
	}

	op := f.journal.waitFinish(t)
	if op.Outcome != OutcomeResolved {
		t.Errorf("outcome = %q, want %q", op.Outcome, OutcomeResolved)
	}
	if op.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", op.Attempts)
	}
}

func TestPayExhaustsBudget(t *testing.T) {
	source := &mockSource{responses: [][]bookings.Booking{unpaid("b-1")}}
	f := newFixture(t, source, Config{MaxAttempts: 4, PollInterval: time.Millisecond})

	if err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP); err != nil {
		t.Fatalf("Pay() error = %v", err)
	}

	op := f.journal.waitFinish(t)
	if op.Outcome != OutcomeExhausted {
		t.Fatalf("outcome = %q, want %q", op.Outcome, OutcomeExhausted)
	}
	if op.Attempts != 4 {
		t.Errorf("attempts = %d, want the full budget of 4", op.Attempts)
	}

	select {
	case n := <-f.notices:
		if n.BookingID != "b-1" {
			t.Errorf("notice booking = %q, want b-1", n.BookingID)
		}
		if n.Text == "" {
			t.Error("exhaustion notice must carry text")
		}
	case <-time.After(time.Second):
		t.Error("exhaustion must emit a notice")
	}

	if f.store.IsProcessing("b-1") {
		t.Error("processing flag must be cleared after exhaustion")
	}

	// exhaustion is informational: nothing keeps fetching afterwards
	settled := source.callCount()
	time.Sleep(20 * time.Millisecond)
	if source.callCount() != settled {
		t.Error("polling continued past the budget")
	}
}

func TestPayAttemptBudgetCountsFailedFetches(t *testing.T) {
	fetchErr := errors.New("backend down")
	source := &mockSource{
		responses: [][]bookings.Booking{nil, nil, unpaid("b-1")},
		errs:      []error{fetchErr, fetchErr},
	}
	f := newFixture(t, source, Config{MaxAttempts: 3, PollInterval: time.Millisecond})

	if err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP); err != nil {
		t.Fatalf("Pay() error = %v", err)
	}

	op := f.journal.waitFinish(t)
	if op.Outcome != OutcomeExhausted {
		t.Errorf("outcome = %q, want %q", op.Outcome, OutcomeExhausted)
	}
	if op.Attempts != 3 {
		t.Errorf("attempts = %d, want 3; failed fetches share the budget", op.Attempts)
	}
}

func TestPayConflictResyncsOnceWithoutPolling(t *testing.T) {
	source := &mockSource{responses: [][]bookings.Booking{unpaid("b-1")}}
	f := newFixture(t, source, Config{MaxAttempts: 30, PollInterval: time.Millisecond})
	f.tokens.err = payments.ErrTransactionInFlight

	if err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP); err != nil {
		t.Fatalf("a token conflict is not a caller error, got %v", err)
	}

	op := f.journal.waitFinish(t)
	if op.Outcome != OutcomeResynced {
		t.Fatalf("outcome = %q, want %q", op.Outcome, OutcomeResynced)
	}

	if f.gateway.calls != 0 {
		t.Error("a conflict must never reach the gateway")
	}
	if got := source.callCount(); got != 1 {
		t.Errorf("resync fetched %d times, want exactly 1", got)
	}
	if f.store.IsProcessing("b-1") {
		t.Error("a conflict must not leave a processing flag")
	}

	// give a would-be loop time to show itself
	time.Sleep(20 * time.Millisecond)
	if got := source.callCount(); got != 1 {
		t.Errorf("conflict started a polling loop: %d fetches", got)
	}
}

func TestPayTokenFailureReturnsError(t *testing.T) {
	source := &mockSource{responses: [][]bookings.Booking{unpaid("b-1")}}
	f := newFixture(t, source, Config{MaxAttempts: 3, PollInterval: time.Millisecond})
	cause := errors.New("token endpoint down")
	f.tokens.err = cause

	err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP)
	if !errors.Is(err, cause) {
		t.Fatalf("Pay() error = %v, want %v", err, cause)
	}

	op := f.journal.waitFinish(t)
	if op.Outcome != OutcomeFailed {
		t.Errorf("outcome = %q, want %q", op.Outcome, OutcomeFailed)
	}
	if op.State != StateFailed {
		t.Errorf("state = %q, want %q", op.State, StateFailed)
	}
	if f.gateway.calls != 0 {
		t.Error("a failed token request must never reach the gateway")
	}
	if source.callCount() != 0 {
		t.Error("a failed token request must not poll")
	}
}

func TestPayGatewayInvocationFailure(t *testing.T) {
	source := &mockSource{responses: [][]bookings.Booking{unpaid("b-1")}}
	f := newFixture(t, source, Config{MaxAttempts: 3, PollInterval: time.Millisecond})
	f.gateway.err = errors.New("widget unreachable")

	if err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP); err == nil {
		t.Fatal("Pay() should surface the gateway failure")
	}

	op := f.journal.waitFinish(t)
	if op.Outcome != OutcomeFailed {
		t.Errorf("outcome = %q, want %q", op.Outcome, OutcomeFailed)
	}
	if f.store.IsProcessing("b-1") {
		t.Error("processing flag must be cleared after a gateway failure")
	}
}

func TestGatewayErrorCallbackHaltsOperation(t *testing.T) {
	source := &mockSource{responses: [][]bookings.Booking{dpPaid("b-1")}}
	f := newFixture(t, source, Config{MaxAttempts: 30, PollInterval: time.Millisecond})
	f.gateway.invoke = func(cb snap.Callbacks) {
		cb.OnError(snap.Result{TransactionStatus: "deny"})
	}

	if err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP); err != nil {
		t.Fatalf("Pay() error = %v", err)
	}

	op := f.journal.waitFinish(t)
	if op.Outcome != OutcomeGatewayError {
		t.Fatalf("outcome = %q, want %q", op.Outcome, OutcomeGatewayError)
	}
	if op.State != StateFailed {
		t.Errorf("state = %q, want %q", op.State, StateFailed)
	}
	if f.store.IsProcessing("b-1") {
		t.Error("processing flag must be cleared after a gateway error")
	}
	if source.callCount() != 0 {
		t.Errorf("a definitive gateway failure must not poll, got %d fetches", source.callCount())
	}
}

func TestGatewayErrorFromAsyncCallback(t *testing.T) {
	// the callback contract allows OnError to fire from any goroutine while
	// the poll loop is mid-flight; the engine must absorb that cleanly
	source := &mockSource{responses: [][]bookings.Booking{unpaid("b-1")}}
	f := newFixture(t, source, Config{MaxAttempts: 1000, PollInterval: time.Millisecond})
	f.gateway.invoke = func(cb snap.Callbacks) {
		go func() {
			time.Sleep(3 * time.Millisecond)
			cb.OnError(snap.Result{TransactionStatus: "deny"})
		}()
	}

	if err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP); err != nil {
		t.Fatalf("Pay() error = %v", err)
	}

	op := f.journal.waitFinish(t)
	if op.Outcome != OutcomeGatewayError {
		t.Fatalf("outcome = %q, want %q", op.Outcome, OutcomeGatewayError)
	}
	if op.State != StateFailed {
		t.Errorf("state = %q, want %q", op.State, StateFailed)
	}
	if f.store.IsProcessing("b-1") {
		t.Error("processing flag must be cleared after a gateway error")
	}

	// the poll loop observed the cancellation: no further fetches
	settled := source.callCount()
	time.Sleep(20 * time.Millisecond)
	if source.callCount() != settled {
		t.Errorf("polling continued after the gateway error: %d then %d fetches", settled, source.callCount())
	}
}

func TestSuccessCallbackKicksImmediateRecheck(t *testing.T) {
	// the interval is long enough that only the callback kick can finish
	// this test in time
	source := &mockSource{responses: [][]bookings.Booking{
		unpaid("b-1"),
		dpPaid("b-1"),
	}}
	f := newFixture(t, source, Config{MaxAttempts: 5, PollInterval: time.Hour})

	if err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP); err != nil {
		t.Fatalf("Pay() error = %v", err)
	}

	// the kick channel is buffered, so firing before the first attempt's
	// wait still shortens it
	f.gateway.callbacks.OnSuccess(snap.Result{TransactionStatus: "settlement"})

	op := f.journal.waitFinish(t)
	if op.Outcome != OutcomeResolved {
		t.Fatalf("outcome = %q, want %q", op.Outcome, OutcomeResolved)
	}
	if op.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", op.Attempts)
	}
}

func TestProcessingFlagVisibleWhilePolling(t *testing.T) {
	source := &mockSource{responses: [][]bookings.Booking{unpaid("b-1")}}
	f := newFixture(t, source, Config{MaxAttempts: 30, PollInterval: time.Hour})

	var snapshots []Snapshot
	var mu sync.Mutex
	f.store.Subscribe(func(s Snapshot) {
		mu.Lock()
		snapshots = append(snapshots, s)
		mu.Unlock()
	})

	if err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP); err != nil {
		t.Fatalf("Pay() error = %v", err)
	}

	if !f.store.IsProcessing("b-1") {
		t.Error("booking must be flagged while the operation is in flight")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(snapshots) == 0 {
		t.Fatal("subscribers must observe the flag being set")
	}
	if !snapshots[len(snapshots)-1].Contains("b-1") {
		t.Error("latest snapshot should contain the processing booking")
	}
}

func TestCloseStopsInFlightPolling(t *testing.T) {
	source := &mockSource{responses: [][]bookings.Booking{unpaid("b-1")}}
	f := newFixture(t, source, Config{MaxAttempts: 30, PollInterval: time.Hour})

	if err := f.engine.Pay(context.Background(), "b-1", bookings.StageDP); err != nil {
		t.Fatalf("Pay() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		f.engine.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Close() did not stop the polling loop")
	}
}
