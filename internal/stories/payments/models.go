package payments

import "decobook/internal/stories/bookings"

// EnsureFinalResult reports the outcome of materializing a booking's final
// payment record. Final records are created lazily, only once earlier stages
// are settled; Created distinguishes an actual creation from finding an
// existing pending record.
type EnsureFinalResult struct {
	BookingID string
	PaymentID string
	Created   bool
	Payment   *bookings.PaymentRecord
	Amount    float64
}
