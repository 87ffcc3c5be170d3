package adminops

import "decobook/internal/stories/bookings"

// Booking is the admin list view of one booking.
type Booking struct {
	ID             string
	Date           string
	Status         string
	CreatedAt      string
	CustomerName   string
	CustomerPhone  string
	CustomerEmail  string
	DecorationName string
	AddonsTotal    float64
	TotalPrice     float64
	PaymentSummary string
}

// Action is an admin-side action derived purely from normalized status.
type Action string

const (
	ActionActivateFinal Action = "activate_final"
	ActionCancel        Action = "cancel"
	ActionDelete        Action = "delete"
)

// Activation is the result of the activate-final-payment flow.
type Activation struct {
	BookingID string
	Payment   bookings.PaymentRecord
	Created   bool
	// WhatsappURL is the pre-filled customer notification link; empty when
	// the customer has no usable phone number.
	WhatsappURL string
}

// FilterAll is the sentinel filter value matching every status.
const FilterAll = "all"
