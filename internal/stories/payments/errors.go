package payments

import "errors"

var (
	// ErrTransactionInFlight means a previous gateway transaction for this
	// booking is still open. Not a failure: the caller should resync instead
	// of retrying the token request.
	ErrTransactionInFlight = errors.New("a previous transaction for this booking is still in flight")

	// ErrStageNotPayable means the requested stage is not currently payable -
	// either already settled or gated behind an earlier stage. Retrying the
	// same request will not help.
	ErrStageNotPayable = errors.New("payment stage is not currently payable")

	// ErrAlreadySettled means the final payment is already paid.
	ErrAlreadySettled = errors.New("final payment is already settled")

	// ErrBookingNotFound indicates stale client data.
	ErrBookingNotFound = errors.New("booking not found")
)
