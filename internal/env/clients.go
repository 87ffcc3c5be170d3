package environment

import (
	"context"
	"log/slog"
	"time"

	"decobook/internal/config"
	"decobook/internal/infra/backendapi"
	"decobook/internal/infra/snap"
	"decobook/internal/infra/sqlite3"
)

type Clients struct {
	SQLiteDB *sqlite3.DB
	Backend  *backendapi.Client
	Snap     *snap.Client
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	sqliteDB, err := provideSQLiteDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend := backendapi.NewClient(backendapi.Config{
		BaseURL: cfg.Backend.BaseURL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.Backend.Timeout,
		RPS:     cfg.Backend.RateLimit.RPS,
		Burst:   cfg.Backend.RateLimit.Burst,
	}, logger)

	snapClient := snap.NewClient(snap.Config{
		ClientKey:   cfg.Midtrans.ClientKey,
		ServerKey:   cfg.Midtrans.ServerKey,
		Production:  cfg.Midtrans.IsProduction(),
		MockPayment: cfg.Midtrans.MockPayment,
		Logger:      logger,
	})

	return &Clients{
		SQLiteDB: sqliteDB,
		Backend:  backend,
		Snap:     snapClient,
	}, nil
}

func provideSQLiteDB(ctx context.Context, cfg config.Config) (*sqlite3.DB, error) {
	maxLifetimeStr := cfg.DB.MaxLifetime
	if maxLifetimeStr == "" {
		maxLifetimeStr = "5m"
	}
	maxLifetime, err := time.ParseDuration(maxLifetimeStr)
	if err != nil {
		return nil, err
	}

	opts := []sqlite3.Option{
		sqlite3.WithDSN(cfg.DB.Path),
		sqlite3.WithMaxOpenConns(cfg.DB.MaxOpenConns),
		sqlite3.WithMaxIdleConns(cfg.DB.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(maxLifetime),
	}

	return sqlite3.New(ctx, opts...)
}
