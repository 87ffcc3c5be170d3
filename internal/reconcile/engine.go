package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"decobook/internal/infra/snap"
	"decobook/internal/metrics"
	"decobook/internal/stories/bookings"
	"decobook/internal/stories/payments"
)

const (
	defaultMaxAttempts  = 30
	defaultPollInterval = 2 * time.Second
)

type Config struct {
	MaxAttempts  int
	PollInterval time.Duration
	// Notify receives non-blocking informational notices (e.g. polling
	// budget exhausted). Optional; defaults to logging.
	Notify func(Notice)
}

// Engine drives the payment lifecycle for one booking at a time per
// operation: token acquisition, gateway invocation, and the bounded polling
// loop that closes the gap between "gateway says success" (an unreliable
// callback that may never fire) and "backend confirms paid" (the only
// source of truth, observed by re-fetching).
type Engine struct {
	tokens  TokenSource
	source  BookingSource
	gateway Gateway
	journal Journal
	store   *Store
	metrics *metrics.Set
	logger  *slog.Logger
	notify  func(Notice)

	maxAttempts int
	interval    time.Duration
	now         func() time.Time

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu  sync.Mutex
	ops map[string]*operation
}

// operation's embedded Operation fields are written by the poll goroutine
// and read by finish, which gateway callbacks may invoke from any goroutine
// at any time. All access to the mutable fields goes through mu.
type operation struct {
	mu sync.Mutex
	Operation
	cancel context.CancelFunc
	kick   chan struct{}
	once   sync.Once
}

func (op *operation) setState(state State) {
	op.mu.Lock()
	op.State = state
	op.mu.Unlock()
}

func (op *operation) setAttempts(attempts int) {
	op.mu.Lock()
	op.Attempts = attempts
	op.mu.Unlock()
}

func NewEngine(
	tokens TokenSource,
	source BookingSource,
	gateway Gateway,
	journal Journal,
	store *Store,
	metricSet *metrics.Set,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())

	e := &Engine{
		tokens:      tokens,
		source:      source,
		gateway:     gateway,
		journal:     journal,
		store:       store,
		metrics:     metricSet,
		logger:      logger,
		notify:      cfg.Notify,
		maxAttempts: cfg.MaxAttempts,
		interval:    cfg.PollInterval,
		now:         time.Now,
		baseCtx:     baseCtx,
		baseCancel:  baseCancel,
		ops:         make(map[string]*operation),
	}
	if e.notify == nil {
		e.notify = func(n Notice) {
			logger.Info("Reconciliation notice", "booking_id", n.BookingID, "text", n.Text)
		}
	}
	return e
}

// Store exposes the processing set for presentation subscribers.
func (e *Engine) Store() *Store {
	return e.store
}

// Pay runs one payment operation for a booking stage. The caller's context
// covers token acquisition only; the polling loop runs detached so it
// outlives the triggering call. A conflict on the token request performs a
// single resync re-fetch and returns nil without starting a loop; any other
// token or gateway failure is returned to the caller and nothing polls.
func (e *Engine) Pay(ctx context.Context, bookingID string, stage bookings.Stage) error {
	op := &operation{
		Operation: Operation{
			ID:        uuid.New().String(),
			BookingID: bookingID,
			Stage:     stage,
			State:     StateTokenRequested,
			StartedAt: e.now(),
		},
		kick: make(chan struct{}, 1),
	}

	logger := e.logger.With("op_id", op.ID, "booking_id", bookingID, "stage", stage)
	logger.Info("Payment operation started")

	token, err := e.tokens.RequestToken(ctx, bookingID, stage)
	if err != nil {
		if errors.Is(err, payments.ErrTransactionInFlight) {
			// something is already settling for this booking; resync once
			// and let the refreshed list speak for itself
			e.metrics.TokenConflicts.Inc()
			if _, listErr := e.source.ListMine(ctx); listErr != nil {
				logger.Warn("Conflict resync fetch failed", "error", listErr)
			}
			e.finish(op, OutcomeResynced, logger)
			return nil
		}
		e.finish(op, OutcomeFailed, logger)
		return err
	}

	op.setState(StateAwaitingGateway)
	e.store.mark(bookingID, e.now())
	if err := e.journal.RecordStart(ctx, op.Operation); err != nil {
		logger.Warn("Journal start failed", "error", err)
	}

	opCtx, cancel := context.WithCancel(e.baseCtx)
	op.cancel = cancel

	e.mu.Lock()
	e.ops[bookingID] = op
	e.mu.Unlock()

	callbacks := snap.Callbacks{
		OnSuccess: func(snap.Result) { e.gatewayCallback("success", bookingID) },
		OnPending: func(snap.Result) { e.gatewayCallback("pending", bookingID) },
		OnClose:   func() { e.gatewayCallback("close", bookingID) },
		OnError:   func(snap.Result) { e.gatewayError(bookingID, logger) },
	}

	if err := e.gateway.Pay(opCtx, token, callbacks); err != nil {
		e.finish(op, OutcomeFailed, logger)
		return fmt.Errorf("invoke gateway: %w", err)
	}

	// Polling starts unconditionally: the gateway callbacks are an
	// optimization that can shorten the wait, never the mechanism.
	op.setState(StatePolling)
	e.wg.Add(1)
	go e.poll(opCtx, op, logger)

	return nil
}

// gatewayCallback handles success/pending/close uniformly: none of them is
// authoritative, so each just kicks an immediate re-check of backend state.
func (e *Engine) gatewayCallback(kind, bookingID string) {
	e.metrics.GatewayCallbacks.WithLabelValues(kind).Inc()

	e.mu.Lock()
	op := e.ops[bookingID]
	e.mu.Unlock()
	if op == nil {
		return
	}

	select {
	case op.kick <- struct{}{}:
	default:
	}
}

// gatewayError is the one callback the engine trusts: a definitive failure
// halts the operation without marking it resolved.
func (e *Engine) gatewayError(bookingID string, logger *slog.Logger) {
	e.metrics.GatewayCallbacks.WithLabelValues("error").Inc()

	e.mu.Lock()
	op := e.ops[bookingID]
	e.mu.Unlock()
	if op == nil {
		return
	}

	logger.Warn("Gateway reported payment failure")
	e.finish(op, OutcomeGatewayError, logger)
}

func (e *Engine) poll(ctx context.Context, op *operation, logger *slog.Logger) {
	defer e.wg.Done()

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}

		list, err := e.source.ListMine(ctx)
		e.metrics.PollAttempts.Inc()
		op.setAttempts(attempt)

		if err != nil {
			// transient failures consume the same budget as "not yet
			// reached" results so the loop always terminates
			logger.Warn("Poll re-fetch failed", "attempt", attempt, "error", err)
		} else if booking, ok := findBooking(list, op.BookingID); !ok {
			logger.Warn("Booking missing from refreshed list", "attempt", attempt)
		} else if bookings.StageReached(op.Stage, booking.Status, booking.PaidPayments) {
			logger.Info("Expected status observed", "attempt", attempt, "status", booking.Status)
			e.finish(op, OutcomeResolved, logger)
			return
		}

		if attempt == e.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-op.kick:
			// gateway callback arrived; re-check immediately
		case <-time.After(e.interval):
		}
	}

	if ctx.Err() != nil {
		return
	}
	e.finish(op, OutcomeExhausted, logger)
}

// finish terminates an operation exactly once: clears its processing flag,
// journals the outcome and tears down the poll context.
func (e *Engine) finish(op *operation, outcome Outcome, logger *slog.Logger) {
	op.once.Do(func() {
		finishedAt := e.now()

		op.mu.Lock()
		op.Outcome = outcome
		op.FinishedAt = &finishedAt
		switch outcome {
		case OutcomeResolved:
			op.State = StateResolved
		case OutcomeExhausted:
			op.State = StateExhausted
		case OutcomeGatewayError, OutcomeFailed:
			op.State = StateFailed
		}
		// consistent copy for journalling and logging; the poll goroutine
		// may still touch the live struct until its context check fires
		record := op.Operation
		op.mu.Unlock()

		switch outcome {
		case OutcomeResolved:
			e.metrics.OperationsResolved.Inc()
		case OutcomeExhausted:
			e.metrics.OperationsExhausted.Inc()
			e.notify(Notice{
				BookingID: record.BookingID,
				Text:      "Payment is still settling; the status will update shortly. Refresh if needed.",
			})
		case OutcomeGatewayError, OutcomeFailed:
			e.metrics.OperationsFailed.Inc()
		}

		e.mu.Lock()
		if current := e.ops[record.BookingID]; current == op {
			delete(e.ops, record.BookingID)
		}
		e.mu.Unlock()

		e.store.clear(record.BookingID)

		// journalling must survive the operation context being torn down
		if err := e.journal.RecordFinish(context.Background(), record); err != nil {
			logger.Warn("Journal finish failed", "error", err)
		}

		if op.cancel != nil {
			op.cancel()
		}

		logger.Info("Payment operation finished", "outcome", outcome, "attempts", record.Attempts)
	})
}

// Close stops all in-flight polling loops and waits for them to exit.
func (e *Engine) Close() {
	e.baseCancel()
	e.wg.Wait()
}

func findBooking(list []bookings.Booking, id string) (bookings.Booking, bool) {
	for _, b := range list {
		if b.ID == id {
			return b, true
		}
	}
	return bookings.Booking{}, false
}
