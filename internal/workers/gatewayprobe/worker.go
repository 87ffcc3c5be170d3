package gatewayprobe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"decobook/internal/infra/backendapi"
	"decobook/internal/infra/snap"
	"decobook/internal/labels"
	"decobook/internal/reconcile"
	"decobook/internal/stories/bookings"
)

type Journal interface {
	ListUnresolvedOperations(ctx context.Context) ([]reconcile.Operation, error)
}

type Backend interface {
	AdminBookingDetail(ctx context.Context, id string) (*backendapi.BookingDetail, error)
}

type Probe interface {
	CheckTransaction(ctx context.Context, orderID string) (snap.Result, error)
}

// Worker cross-checks exhausted payment operations against the gateway.
// The backend is still the only source of truth for booking status; the
// probe only surfaces discrepancies so an operator can chase them.
type Worker struct {
	journal Journal
	backend Backend
	probe   Probe
	spec    string
	logger  *slog.Logger
	cron    *cron.Cron
}

func NewWorker(journal Journal, backend Backend, probe Probe, spec string, logger *slog.Logger) *Worker {
	return &Worker{
		journal: journal,
		backend: backend,
		probe:   probe,
		spec:    spec,
		logger:  logger,
		cron:    cron.New(),
	}
}

func (w *Worker) Name() string {
	return "gateway-probe"
}

func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.spec, func() {
		if err := w.probeUnresolved(context.Background()); err != nil {
			w.logger.Error("Gateway probe run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule gateway probe: %w", err)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	w.cron.Stop()
}

func (w *Worker) probeUnresolved(ctx context.Context) error {
	ops, err := w.journal.ListUnresolvedOperations(ctx)
	if err != nil {
		return fmt.Errorf("list unresolved operations: %w", err)
	}

	for _, op := range ops {
		if err := w.probeOperation(ctx, op); err != nil {
			w.logger.Warn("Could not probe operation",
				"operation_id", op.ID,
				"booking_id", op.BookingID,
				"error", err,
			)
		}
	}
	return nil
}

func (w *Worker) probeOperation(ctx context.Context, op reconcile.Operation) error {
	detail, err := w.backend.AdminBookingDetail(ctx, op.BookingID)
	if err != nil {
		return fmt.Errorf("fetch booking detail: %w", err)
	}

	paid := make([]bookings.Stage, 0, len(detail.PaidPayments))
	for _, p := range detail.PaidPayments {
		paid = append(paid, bookings.Stage(labels.Normalize(p)))
	}
	if bookings.StageReached(op.Stage, detail.Status, paid) {
		// The backend caught up on its own after the polling budget ran out.
		w.logger.Info("Exhausted operation settled on the backend",
			"operation_id", op.ID,
			"booking_id", op.BookingID,
			"stage", op.Stage,
			"status", detail.Status,
		)
		return nil
	}

	orderID := findOrderID(detail.Payments, op.Stage)
	if orderID == "" {
		return fmt.Errorf("no gateway order id for stage %s", op.Stage)
	}

	result, err := w.probe.CheckTransaction(ctx, orderID)
	if err != nil {
		return fmt.Errorf("check transaction %s: %w", orderID, err)
	}

	snap.Dispatch(result, snap.Callbacks{
		OnSuccess: func(r snap.Result) {
			w.logger.Warn("Gateway settled but backend has not caught up",
				"operation_id", op.ID,
				"booking_id", op.BookingID,
				"stage", op.Stage,
				"order_id", orderID,
				"booking_status", detail.Status,
				"transaction_status", r.TransactionStatus,
			)
		},
		OnPending: func(r snap.Result) {
			w.logger.Info("Gateway transaction still pending",
				"operation_id", op.ID,
				"booking_id", op.BookingID,
				"order_id", orderID,
				"transaction_status", r.TransactionStatus,
			)
		},
		OnError: func(r snap.Result) {
			w.logger.Info("Gateway transaction failed; nothing to reconcile",
				"operation_id", op.ID,
				"booking_id", op.BookingID,
				"order_id", orderID,
				"transaction_status", r.TransactionStatus,
			)
		},
		OnClose: func() {
			w.logger.Info("Gateway transaction state indeterminate",
				"operation_id", op.ID,
				"booking_id", op.BookingID,
				"order_id", orderID,
			)
		},
	})
	return nil
}

func findOrderID(payments []backendapi.Payment, stage bookings.Stage) string {
	for _, p := range payments {
		if labels.Normalize(p.Type) != string(stage) || p.OrderID == nil {
			continue
		}
		return *p.OrderID
	}
	return ""
}
