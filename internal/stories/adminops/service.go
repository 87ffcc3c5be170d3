package adminops

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/samber/lo"

	"decobook/internal/infra/backendapi"
	"decobook/internal/labels"
	"decobook/internal/stories/bookings"
)

// Service derives admin actions from normalized booking status and runs the
// activate-final-payment flow. It mirrors the user side's "status is truth"
// approach, just without gateway interaction: nothing here transitions a
// booking, only the backend's own payment confirmation path does.
type Service struct {
	api      API
	payments PaymentService
	logger   *slog.Logger
}

func NewService(api API, payments PaymentService, logger *slog.Logger) *Service {
	return &Service{
		api:      api,
		payments: payments,
		logger:   logger,
	}
}

func (s *Service) ListAll(ctx context.Context) ([]Booking, error) {
	items, err := s.api.AdminBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch admin bookings: %w", err)
	}

	return lo.Map(items, func(item backendapi.AdminBooking, _ int) Booking {
		return Booking{
			ID:             item.ID,
			Date:           item.Date,
			Status:         item.Status,
			CreatedAt:      item.CreatedAt,
			CustomerName:   item.User.Name,
			CustomerPhone:  item.User.PhoneNumber,
			CustomerEmail:  item.User.Email,
			DecorationName: item.Decoration.Title,
			AddonsTotal:    item.AddonsTotal,
			TotalPrice:     item.TotalPrice,
			PaymentSummary: item.PaymentSummary,
		}
	}), nil
}

func (s *Service) Detail(ctx context.Context, id string) (*backendapi.BookingDetail, error) {
	detail, err := s.api.AdminBookingDetail(ctx, id)
	if err != nil {
		if backendapi.IsNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("fetch admin booking detail: %w", err)
	}
	return detail, nil
}

func (s *Service) Cancel(ctx context.Context, id string) error {
	if err := s.api.AdminCancelBooking(ctx, id); err != nil {
		if backendapi.IsNotFound(err) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("cancel booking: %w", err)
	}
	s.logger.Info("Booking cancelled by admin", "booking_id", id)
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.api.AdminDeleteBooking(ctx, id); err != nil {
		if backendapi.IsNotFound(err) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("delete booking: %w", err)
	}
	s.logger.Info("Booking deleted", "booking_id", id)
	return nil
}

// CanActivateFinal reports whether the activate-final action is offered.
func CanActivateFinal(status string) bool {
	return labels.Normalize(status) == bookings.StatusDownPaymentPaid
}

// Actions derives the admin action set for one booking status.
func Actions(status string) []Action {
	normalized := labels.Normalize(status)

	actions := make([]Action, 0, 3)
	if CanActivateFinal(normalized) {
		actions = append(actions, ActionActivateFinal)
	}
	if normalized != bookings.StatusCancelled && normalized != bookings.StatusFinalPaymentPaid {
		actions = append(actions, ActionCancel)
	}
	actions = append(actions, ActionDelete)
	return actions
}

// FilterOptions derives the selectable status filters from whatever statuses
// are present in the fetched collection, plus the "all" sentinel. New or
// legacy backend vocabulary shows up here without code changes.
func FilterOptions(items []Booking, current string) []string {
	seen := map[string]struct{}{}
	for _, item := range items {
		if status := labels.Normalize(item.Status); status != "" {
			seen[status] = struct{}{}
		}
	}
	if current := labels.Normalize(current); current != "" && current != FilterAll {
		seen[current] = struct{}{}
	}

	options := lo.Keys(seen)
	sort.Strings(options)
	return append([]string{FilterAll}, options...)
}

// Filter returns the bookings matching a status filter value.
func Filter(items []Booking, filter string) []Booking {
	normalized := labels.Normalize(filter)
	if normalized == "" || normalized == FilterAll {
		return items
	}
	return lo.Filter(items, func(item Booking, _ int) bool {
		return labels.Normalize(item.Status) == normalized
	})
}

// ActivateFinalPayment makes the final stage payable for a booking in
// down_payment_paid. It prefers an existing pending final record and only
// asks the backend to materialize one when none exists; the ensure call is
// idempotent so a second click before backend state changes is harmless.
// Customer notification is a side effect (a pre-filled WhatsApp link), not a
// state transition.
func (s *Service) ActivateFinalPayment(ctx context.Context, bookingID string) (*Activation, error) {
	s.logger.Info("Activate final payment requested", "booking_id", bookingID)

	detail, err := s.Detail(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanActivateFinal(detail.Status) {
		return nil, ErrNotActivatable
	}

	var finalPayment *bookings.PaymentRecord
	created := false
	for _, p := range detail.Payments {
		if labels.Normalize(p.Type) != string(bookings.StageFinal) {
			continue
		}
		if labels.Normalize(p.PaymentStatus) == "paid" {
			continue
		}
		finalPayment = &bookings.PaymentRecord{
			ID:      p.ID,
			Type:    bookings.StageFinal,
			Status:  p.PaymentStatus,
			Amount:  p.Amount,
			OrderID: p.OrderID,
		}
		break
	}

	if finalPayment == nil {
		s.logger.Info("No pending final payment found, ensuring creation", "booking_id", bookingID)
		ensured, err := s.payments.EnsureFinal(ctx, bookingID)
		if err != nil {
			return nil, fmt.Errorf("ensure final payment: %w", err)
		}
		created = ensured.Created
		if ensured.Payment != nil {
			finalPayment = ensured.Payment
		} else if ensured.PaymentID != "" {
			finalPayment = &bookings.PaymentRecord{
				ID:     ensured.PaymentID,
				Type:   bookings.StageFinal,
				Status: "pending",
				Amount: ensured.Amount,
			}
		}
	}

	if finalPayment == nil {
		return nil, ErrPaymentRecordUnavailable
	}

	amount := finalPayment.Amount
	if amount == 0 {
		amount = detail.FinalPaymentAmount
	}

	activation := &Activation{
		BookingID: bookingID,
		Payment:   *finalPayment,
		Created:   created,
	}
	if link := WhatsappLink(detail.User.PhoneNumber, detail.User.Name, amount); link != "" {
		activation.WhatsappURL = link
	} else {
		s.logger.Warn("No usable phone number for customer notification", "booking_id", bookingID)
	}

	s.logger.Info("Final payment activated",
		"booking_id", bookingID,
		"payment_id", finalPayment.ID,
		"created", created,
	)
	return activation, nil
}

// NormalizePhone converts a customer phone number to the international
// digits-only form WhatsApp expects (leading 0 becomes the 62 country code).
// Returns "" when nothing usable remains.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case d == "":
		return ""
	case strings.HasPrefix(d, "62"):
		return d
	case strings.HasPrefix(d, "0"):
		return "62" + d[1:]
	}
	return d
}

// WhatsappLink builds the pre-filled customer notification URL.
func WhatsappLink(phone, customerName string, amount float64) string {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return ""
	}
	message := fmt.Sprintf(
		"Hi %s! Your down payment has been received. You can now settle the remaining Rp %.0f from your booking dashboard. Reply to this message if you have any questions.",
		customerName, amount,
	)
	return "https://wa.me/" + normalized + "?text=" + url.QueryEscape(message)
}
