package payments

import (
	"context"

	"decobook/internal/infra/backendapi"
)

type (
	// API provides the payment endpoints of the backend.
	API interface {
		PaymentToken(ctx context.Context, bookingID, paymentType string) (string, error)
		EnsureFinalPayment(ctx context.Context, bookingID string) (*backendapi.EnsureFinalData, error)
		ConvertPaymentFinal(ctx context.Context, paymentID string) error
	}
)
