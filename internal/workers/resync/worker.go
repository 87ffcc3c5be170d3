package resync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"decobook/internal/stories/bookings"
)

// BookingSource re-fetches the authoritative booking list.
type BookingSource interface {
	ListMine(ctx context.Context) ([]bookings.Booking, error)
}

// Worker refreshes the cached booking list on a schedule so exhausted
// payment operations eventually show their settled status without a user
// action.
type Worker struct {
	source BookingSource
	spec   string
	logger *slog.Logger
	cron   *cron.Cron
}

func NewWorker(source BookingSource, spec string, logger *slog.Logger) *Worker {
	return &Worker{
		source: source,
		spec:   spec,
		logger: logger,
		cron:   cron.New(),
	}
}

func (w *Worker) Name() string {
	return "booking-resync"
}

func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.spec, func() {
		ctx := context.Background()
		list, err := w.source.ListMine(ctx)
		if err != nil {
			w.logger.Error("Booking resync failed", "error", err)
			return
		}
		w.logger.Debug("Booking list resynced", "count", len(list))
	})
	if err != nil {
		return fmt.Errorf("schedule booking resync: %w", err)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	w.cron.Stop()
}
