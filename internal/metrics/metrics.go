package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set holds the reconciliation counters exposed on the observability server.
type Set struct {
	PollAttempts        prometheus.Counter
	OperationsResolved  prometheus.Counter
	OperationsExhausted prometheus.Counter
	OperationsFailed    prometheus.Counter
	TokenConflicts      prometheus.Counter
	GatewayCallbacks    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)

	return &Set{
		PollAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "decobook_reconcile_poll_attempts_total",
			Help: "Booking re-fetch attempts made by the reconciliation engine.",
		}),
		OperationsResolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "decobook_reconcile_operations_resolved_total",
			Help: "Payment operations that reached the expected booking status.",
		}),
		OperationsExhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "decobook_reconcile_operations_exhausted_total",
			Help: "Payment operations that ran out of the polling budget.",
		}),
		OperationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "decobook_reconcile_operations_failed_total",
			Help: "Payment operations terminated by an error.",
		}),
		TokenConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "decobook_reconcile_token_conflicts_total",
			Help: "Token requests rejected because a transaction was still in flight.",
		}),
		GatewayCallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "decobook_gateway_callbacks_total",
			Help: "Checkout callbacks received from the gateway, by kind.",
		}, []string{"kind"}),
	}
}
