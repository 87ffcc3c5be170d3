package reconcile

import (
	"time"

	"decobook/internal/stories/bookings"
)

// State of one in-flight payment operation.
type State string

const (
	StateIdle            State = "idle"
	StateTokenRequested  State = "token_requested"
	StateAwaitingGateway State = "awaiting_gateway"
	StatePolling         State = "polling"
	StateResolved        State = "resolved"
	StateExhausted       State = "exhausted"
	StateFailed          State = "failed"
)

// Outcome is how an operation ended.
type Outcome string

const (
	// OutcomeResolved: a poll observed the expected post-payment status.
	OutcomeResolved Outcome = "resolved"
	// OutcomeExhausted: the polling budget ran out before the backend caught
	// up. Informational, not an error - the backend may settle later.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeResynced: the token request hit a conflict and the engine did a
	// single re-fetch instead of starting a loop.
	OutcomeResynced Outcome = "resynced"
	// OutcomeGatewayError: the gateway reported a definitive failure.
	OutcomeGatewayError Outcome = "gateway_error"
	// OutcomeFailed: the operation never got past token acquisition or the
	// gateway invocation.
	OutcomeFailed Outcome = "failed"
)

// Operation is the journalled record of one payment attempt lifecycle.
type Operation struct {
	ID         string
	BookingID  string
	Stage      bookings.Stage
	State      State
	Attempts   int
	Outcome    Outcome
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Notice is a non-blocking informational message for the user.
type Notice struct {
	BookingID string
	Text      string
}
