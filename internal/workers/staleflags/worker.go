package staleflags

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"decobook/internal/reconcile"
)

// Worker sweeps processing flags that outlived any plausible polling loop.
// The engine clears its own flags on every exit path; this recovers flags
// leaked by a crashed operation so bookings do not stay locked forever.
type Worker struct {
	store      *reconcile.Store
	spec       string
	staleAfter time.Duration
	logger     *slog.Logger
	cron       *cron.Cron
	now        func() time.Time
}

func NewWorker(store *reconcile.Store, spec string, staleAfter time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		store:      store,
		spec:       spec,
		staleAfter: staleAfter,
		logger:     logger,
		cron:       cron.New(),
		now:        time.Now,
	}
}

func (w *Worker) Name() string {
	return "stale-flag-sweep"
}

func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.spec, func() {
		cleared := w.store.SweepOlderThan(w.now().Add(-w.staleAfter))
		if len(cleared) > 0 {
			w.logger.Warn("Cleared stale processing flags", "booking_ids", cleared)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule stale flag sweep: %w", err)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	w.cron.Stop()
}
