package bookings

import "errors"

var (
	// ErrNotFound means the booking is unknown to the backend; the caller is
	// holding stale data and should refresh.
	ErrNotFound = errors.New("booking not found")

	// ErrNotCancellable is returned for cancel attempts on a terminal booking.
	ErrNotCancellable = errors.New("booking can no longer be cancelled")
)
