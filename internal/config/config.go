package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	Backend          BackendConfig           `env:",prefix=BACKEND_"`
	Midtrans         MidtransConfig          `env:",prefix=MIDTRANS_"`
	Reconcile        ReconcileConfig         `env:",prefix=RECONCILE_"`
	Labels           LabelsConfig            `env:",prefix=LABELS_"`
	Workers          WorkersConfig           `env:",prefix=WORKERS_"`
}

// BackendConfig configures the storefront REST API client.
type BackendConfig struct {
	BaseURL   string        `env:"BASE_URL,default=http://127.0.0.1:3000/api"`
	Token     string        `env:"TOKEN"`
	Timeout   time.Duration `env:"TIMEOUT,default=30s"`
	RateLimit struct {
		Burst int     `env:"BURST,default=1"`
		RPS   float64 `env:"RPS,default=20.0"`
	} `env:",prefix=RATE_LIMIT_"`
}

type MidtransConfig struct {
	ClientKey   string `env:"CLIENT_KEY"`
	ServerKey   string `env:"SERVER_KEY"`
	Environment string `env:"ENVIRONMENT,default=sandbox"`
	MockPayment bool   `env:"MOCK_PAYMENT,default=false"`
	StatusProbe bool   `env:"STATUS_PROBE,default=true"`
}

func (c MidtransConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ReconcileConfig bounds the post-payment polling loop. The defaults give a
// 60 second wall-clock ceiling; the backend may legitimately take longer
// (async gateway webhooks), so exhausting the budget is informational.
type ReconcileConfig struct {
	MaxAttempts  int           `env:"MAX_ATTEMPTS,default=30"`
	PollInterval time.Duration `env:"POLL_INTERVAL,default=2s"`
}

type LabelsConfig struct {
	OverridesPath string `env:"OVERRIDES_PATH"`
}

type WorkersConfig struct {
	ResyncSpec     string        `env:"RESYNC_SPEC,default=@every 5m"`
	SweepSpec      string        `env:"SWEEP_SPEC,default=@every 1m"`
	ProbeSpec      string        `env:"PROBE_SPEC,default=@every 10m"`
	StaleFlagAfter time.Duration `env:"STALE_FLAG_AFTER,default=5m"`
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityHTTPConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string `env:"PATH,default=./data/decobook.db"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS,default=5"`
	MaxLifetime  string `env:"MAX_LIFETIME,default=5m"`
}
