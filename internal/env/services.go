package environment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"decobook/internal/config"
	"decobook/internal/labels"
	"decobook/internal/metrics"
	"decobook/internal/reconcile"
	"decobook/internal/storage"
	"decobook/internal/stories/adminops"
	"decobook/internal/stories/bookings"
	"decobook/internal/stories/payments"
	"decobook/internal/workers"
	"decobook/internal/workers/gatewayprobe"
	"decobook/internal/workers/resync"
	"decobook/internal/workers/staleflags"
)

// OperationsJournal is the read side of the reconciliation journal exposed
// on the observability server.
type OperationsJournal interface {
	ListRecentOperations(ctx context.Context, limit int) ([]reconcile.Operation, error)
}

type Services struct {
	Bookings *bookings.Service
	Payments *payments.Service
	Admin    *adminops.Service
	Labels   *labels.Catalog
	Store    *reconcile.Store
	Engine   *reconcile.Engine
	Metrics  *metrics.Set
	Registry *prometheus.Registry
	Workers  *workers.Manager
	Journal  OperationsJournal
}

func newServices(ctx context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	var s Services

	storageImpl := storage.New(clients.SQLiteDB.DB)
	if err := storageImpl.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	s.Journal = storageImpl

	catalog, err := labels.NewCatalog(cfg.Labels.OverridesPath)
	if err != nil {
		return nil, fmt.Errorf("load status catalog: %w", err)
	}
	s.Labels = catalog

	s.Registry = prometheus.NewRegistry()
	s.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.Metrics = metrics.New(s.Registry)

	s.Bookings = bookings.NewService(clients.Backend, logger)
	s.Payments = payments.NewService(clients.Backend, logger)
	s.Admin = adminops.NewService(clients.Backend, s.Payments, logger)

	s.Store = reconcile.NewStore()
	s.Engine = reconcile.NewEngine(
		s.Payments,
		s.Bookings,
		clients.Snap,
		storageImpl,
		s.Store,
		s.Metrics,
		reconcile.Config{
			MaxAttempts:  cfg.Reconcile.MaxAttempts,
			PollInterval: cfg.Reconcile.PollInterval,
		},
		logger,
	)

	workerList := []workers.Worker{
		resync.NewWorker(s.Bookings, cfg.Workers.ResyncSpec, logger),
		staleflags.NewWorker(s.Store, cfg.Workers.SweepSpec, cfg.Workers.StaleFlagAfter, logger),
	}
	if cfg.Midtrans.StatusProbe && cfg.Midtrans.ServerKey != "" {
		workerList = append(workerList, gatewayprobe.NewWorker(
			storageImpl,
			clients.Backend,
			clients.Snap,
			cfg.Workers.ProbeSpec,
			logger,
		))
	}
	s.Workers = workers.NewManager(logger, workerList...)

	return &s, nil
}
