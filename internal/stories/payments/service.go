package payments

import (
	"context"
	"fmt"
	"log/slog"

	"decobook/internal/infra/backendapi"
	"decobook/internal/labels"
	"decobook/internal/stories/bookings"
)

// Service bridges a pay intent to a gateway-usable checkout token and
// manages payment-stage records against the backend.
type Service struct {
	api    API
	logger *slog.Logger
}

func NewService(api API, logger *slog.Logger) *Service {
	return &Service{
		api:    api,
		logger: logger,
	}
}

// RequestToken asks the backend for a checkout token for one payment stage.
// A 409 surfaces as ErrTransactionInFlight so the caller can resync instead
// of retrying; a 400 surfaces as ErrStageNotPayable.
func (s *Service) RequestToken(ctx context.Context, bookingID string, stage bookings.Stage) (string, error) {
	s.logger.Info("Requesting payment token", "booking_id", bookingID, "stage", stage)

	token, err := s.api.PaymentToken(ctx, bookingID, string(stage))
	if err != nil {
		switch {
		case backendapi.IsConflict(err):
			s.logger.Info("Previous transaction still in flight", "booking_id", bookingID)
			return "", ErrTransactionInFlight
		case backendapi.IsBadRequest(err):
			s.logger.Warn("Stage not payable", "booking_id", bookingID, "stage", stage)
			return "", ErrStageNotPayable
		case backendapi.IsNotFound(err):
			return "", ErrBookingNotFound
		}
		return "", fmt.Errorf("request payment token: %w", err)
	}

	s.logger.Info("Payment token issued", "booking_id", bookingID, "stage", stage)
	return token, nil
}

// EnsureFinal makes sure a pending final payment record exists for the
// booking. Idempotent: an existing pending record is returned unchanged with
// Created=false; otherwise the backend creates one.
func (s *Service) EnsureFinal(ctx context.Context, bookingID string) (*EnsureFinalResult, error) {
	s.logger.Info("Ensuring final payment record", "booking_id", bookingID)

	data, err := s.api.EnsureFinalPayment(ctx, bookingID)
	if err != nil {
		switch {
		case backendapi.IsNotFound(err):
			return nil, ErrBookingNotFound
		case backendapi.IsConflict(err):
			return nil, ErrAlreadySettled
		}
		return nil, fmt.Errorf("ensure final payment: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("ensure final payment: empty response for booking %s", bookingID)
	}

	result := &EnsureFinalResult{
		BookingID: data.BookingID,
		PaymentID: data.PaymentID,
		Created:   data.Created,
	}
	if data.Amount != nil {
		result.Amount = *data.Amount
	}
	if data.Payment != nil {
		result.Payment = &bookings.PaymentRecord{
			ID:      data.Payment.ID,
			Type:    bookings.Stage(labels.Normalize(data.Payment.Type)),
			Status:  data.Payment.PaymentStatus,
			Amount:  data.Payment.Amount,
			OrderID: data.Payment.OrderID,
		}
		if result.Amount == 0 {
			result.Amount = data.Payment.Amount
		}
	}

	s.logger.Info("Final payment record ensured",
		"booking_id", bookingID,
		"payment_id", result.PaymentID,
		"created", result.Created,
	)
	return result, nil
}

// ConvertFinal converts an existing payment record into the final stage.
func (s *Service) ConvertFinal(ctx context.Context, paymentID string) error {
	s.logger.Info("Converting payment to final", "payment_id", paymentID)

	if err := s.api.ConvertPaymentFinal(ctx, paymentID); err != nil {
		if backendapi.IsNotFound(err) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("convert payment to final: %w", err)
	}
	return nil
}
