package bookings

import (
	"context"

	"decobook/internal/infra/backendapi"
)

type (
	// API provides the user-facing booking endpoints of the backend. The
	// backend is the only authority on booking status; this side only ever
	// re-fetches, never writes status.
	API interface {
		MyBookings(ctx context.Context) ([]backendapi.UserBooking, error)
		BookingDetail(ctx context.Context, id string) (*backendapi.BookingDetail, error)
		CreateBooking(ctx context.Context, req backendapi.CreateBookingRequest) (*backendapi.CreateBookingResult, error)
		CancelBooking(ctx context.Context, id string) error
	}
)
