package adminops

import (
	"context"

	"decobook/internal/infra/backendapi"
	"decobook/internal/stories/payments"
)

type (
	// API provides the admin booking endpoints of the backend.
	API interface {
		AdminBookings(ctx context.Context) ([]backendapi.AdminBooking, error)
		AdminBookingDetail(ctx context.Context, id string) (*backendapi.BookingDetail, error)
		AdminCancelBooking(ctx context.Context, id string) error
		AdminDeleteBooking(ctx context.Context, id string) error
	}

	// PaymentService materializes final payment records.
	PaymentService interface {
		EnsureFinal(ctx context.Context, bookingID string) (*payments.EnsureFinalResult, error)
	}
)
