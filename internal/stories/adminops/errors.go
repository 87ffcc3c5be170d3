package adminops

import "errors"

var (
	// ErrNotActivatable means the booking's status does not allow activating
	// the final payment (only down_payment_paid does).
	ErrNotActivatable = errors.New("final payment cannot be activated for this booking status")

	// ErrPaymentRecordUnavailable means no usable final payment record could
	// be found or created for the booking.
	ErrPaymentRecordUnavailable = errors.New("final payment record unavailable")

	// ErrBookingNotFound indicates stale admin data.
	ErrBookingNotFound = errors.New("booking not found")
)
