package bookings

import (
	"github.com/samber/lo"

	"decobook/internal/labels"
)

// Stage is one step of the payment lifecycle.
type Stage string

const (
	StageDP    Stage = "dp"
	StageFirst Stage = "first"
	StageFinal Stage = "final"
)

// Canonical booking statuses. The backend also still emits legacy labels
// (pending, first_paid, fully_paid, confirmed, paid, dp_paid, done) on older
// deployments; those are display-only and never trigger transitions.
const (
	StatusDownPayment      = "down_payment"
	StatusDownPaymentPaid  = "down_payment_paid"
	StatusFinalPayment     = "final_payment"
	StatusFinalPaymentPaid = "final_payment_paid"
	StatusCancelled        = "cancelled"

	// legacy terminal label
	StatusDone = "done"
)

type Booking struct {
	ID                string
	Date              string
	Status            string
	CreatedAt         string
	DecorationTitle   string
	DecorationPrice   float64
	PaidPayments      []Stage
	AvailablePayments []Stage
	FirstPaymentDate  string
	FinalPaymentDate  string
}

type Customer struct {
	Name        string
	PhoneNumber string
}

type PaymentRecord struct {
	ID      string
	Type    Stage
	Status  string
	Amount  float64
	OrderID *string
}

// Paid reports whether this record is settled.
func (p PaymentRecord) Paid() bool {
	return labels.Normalize(p.Status) == "paid"
}

type ServiceLine struct {
	Name     string
	Price    float64
	Unit     string
	Quantity int
}

// Detail is the full booking view. All monetary fields are server-computed
// and opaque here; they are never recomputed on this side.
type Detail struct {
	Booking
	User               Customer
	AdditionalServices []ServiceLine
	TotalPrice         float64
	DPAmount           float64
	FirstPaymentAmount float64
	FinalPaymentAmount float64
	Payments           []PaymentRecord
}

type CreateRequest struct {
	DecorationID string
	Date         string
	Services     []ServiceSelection
}

type ServiceSelection struct {
	ServiceID string
	Quantity  int
}

type Created struct {
	ID           string
	Status       string
	Message      string
	WhatsappLink string
}

// HasStage reports whether a stage set contains the given stage.
func HasStage(stages []Stage, stage Stage) bool {
	return lo.Contains(stages, stage)
}

// IsTerminal reports whether a status permits no further payment action.
func IsTerminal(status string) bool {
	switch labels.Normalize(status) {
	case StatusCancelled, StatusFinalPaymentPaid, StatusDone:
		return true
	}
	return false
}

// StageReached decides whether a booking has progressed past the given
// payment stage. Status and paid_payments can update at slightly different
// times on the backend, so either signal alone is enough.
func StageReached(stage Stage, status string, paid []Stage) bool {
	if HasStage(paid, stage) {
		return true
	}

	switch labels.Normalize(status) {
	case StatusDownPaymentPaid:
		return stage == StageDP
	case StatusFinalPayment:
		return stage == StageDP || stage == StageFirst
	case StatusFinalPaymentPaid:
		return true
	}
	return false
}
