package bookings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"decobook/internal/infra/backendapi"
	"decobook/internal/labels"
)

// Service provides the user-side booking operations and keeps the latest
// fetched list as a consistent snapshot for render passes.
type Service struct {
	api    API
	logger *slog.Logger

	mu     sync.RWMutex
	cached []Booking
}

func NewService(api API, logger *slog.Logger) *Service {
	return &Service{
		api:    api,
		logger: logger,
	}
}

// ListMine re-fetches the user's bookings and refreshes the cached snapshot.
func (s *Service) ListMine(ctx context.Context) ([]Booking, error) {
	items, err := s.api.MyBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch my bookings: %w", err)
	}

	result := lo.Map(items, func(item backendapi.UserBooking, _ int) Booking {
		return fromUserBooking(item)
	})

	s.mu.Lock()
	s.cached = result
	s.mu.Unlock()

	s.logger.Debug("Bookings fetched", "count", len(result))
	return result, nil
}

// Cached returns the last fetched list without a network round trip.
func (s *Service) Cached() []Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Booking, len(s.cached))
	copy(out, s.cached)
	return out
}

func (s *Service) Detail(ctx context.Context, id string) (*Detail, error) {
	detail, err := s.api.BookingDetail(ctx, id)
	if err != nil {
		if backendapi.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch booking detail: %w", err)
	}
	result := fromDetail(detail)
	return &result, nil
}

// Create starts a new booking through the out-of-band checkout flow. The
// whatsapp link in the result is the admin-contact artifact the backend
// builds for the customer.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Created, error) {
	apiReq := backendapi.CreateBookingRequest{
		DecorationID: req.DecorationID,
		Date:         req.Date,
		AdditionalServices: lo.Map(req.Services, func(sel ServiceSelection, _ int) backendapi.ServiceSelection {
			return backendapi.ServiceSelection{ServiceID: sel.ServiceID, Quantity: sel.Quantity}
		}),
	}

	result, err := s.api.CreateBooking(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	created := &Created{
		ID:      result.Data.ID,
		Status:  result.Data.Status,
		Message: result.Message,
	}
	if result.Data.WhatsappLink != nil {
		created.WhatsappLink = *result.Data.WhatsappLink
	}

	s.logger.Info("Booking created", "booking_id", created.ID, "status", created.Status)
	return created, nil
}

// Cancel cancels the user's own booking. Terminal bookings are rejected
// locally; the backend enforces the same rule authoritatively.
func (s *Service) Cancel(ctx context.Context, id string) error {
	for _, b := range s.Cached() {
		if b.ID != id {
			continue
		}
		status := labels.Normalize(b.Status)
		if status == StatusCancelled || status == StatusDone {
			return ErrNotCancellable
		}
	}

	if err := s.api.CancelBooking(ctx, id); err != nil {
		if backendapi.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("cancel booking: %w", err)
	}

	s.logger.Info("Booking cancelled", "booking_id", id)
	return nil
}

func fromUserBooking(item backendapi.UserBooking) Booking {
	return Booking{
		ID:                item.ID,
		Date:              item.Date,
		Status:            item.Status,
		CreatedAt:         item.CreatedAt,
		DecorationTitle:   item.Decoration.Title,
		DecorationPrice:   item.Decoration.BasePrice,
		PaidPayments:      toStages(item.PaidPayments),
		AvailablePayments: toStages(item.AvailablePayments),
		FirstPaymentDate:  item.FirstPaymentDate,
		FinalPaymentDate:  item.FinalPaymentDate,
	}
}

func fromDetail(detail *backendapi.BookingDetail) Detail {
	return Detail{
		Booking: Booking{
			ID:                detail.ID,
			Date:              detail.Date,
			Status:            detail.Status,
			CreatedAt:         detail.CreatedAt,
			DecorationTitle:   detail.Decoration.Title,
			DecorationPrice:   detail.Decoration.BasePrice,
			PaidPayments:      toStages(detail.PaidPayments),
			AvailablePayments: toStages(detail.AvailablePayments),
		},
		User: Customer{
			Name:        detail.User.Name,
			PhoneNumber: detail.User.PhoneNumber,
		},
		AdditionalServices: lo.Map(detail.AdditionalServices, func(line backendapi.AdditionalService, _ int) ServiceLine {
			return ServiceLine{Name: line.Name, Price: line.Price, Unit: line.Unit, Quantity: line.Quantity}
		}),
		TotalPrice:         detail.TotalPrice,
		DPAmount:           detail.DPAmount,
		FirstPaymentAmount: detail.FirstPaymentAmount,
		FinalPaymentAmount: detail.FinalPaymentAmount,
		Payments: lo.Map(detail.Payments, func(p backendapi.Payment, _ int) PaymentRecord {
			return PaymentRecord{
				ID:      p.ID,
				Type:    Stage(labels.Normalize(p.Type)),
				Status:  p.PaymentStatus,
				Amount:  p.Amount,
				OrderID: p.OrderID,
			}
		}),
	}
}

func toStages(raw []string) []Stage {
	return lo.Map(raw, func(s string, _ int) Stage {
		return Stage(labels.Normalize(s))
	})
}
