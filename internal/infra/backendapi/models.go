package backendapi

// Wire types for the storefront backend. Field shapes follow the backend's
// JSON contract; domain packages convert these with ToModel-style mappers.

type DecorationSummary struct {
	Title     string  `json:"title"`
	BasePrice float64 `json:"base_price"`
}

type CustomerSummary struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

type AdditionalService struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit"`
	Quantity int     `json:"quantity"`
}

type UserBooking struct {
	ID                string            `json:"id"`
	Date              string            `json:"date"`
	Status            string            `json:"status"`
	CreatedAt         string            `json:"created_at"`
	Decoration        DecorationSummary `json:"decoration"`
	PaidPayments      []string          `json:"paid_payments"`
	AvailablePayments []string          `json:"available_payments"`
	FirstPaymentDate  string            `json:"first_payment_date"`
	FinalPaymentDate  string            `json:"final_payment_date"`
}

type Payment struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	PaymentStatus string  `json:"payment_status"`
	Amount        float64 `json:"amount"`
	OrderID       *string `json:"order_id,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
}

type BookingDetail struct {
	ID                 string              `json:"id"`
	Date               string              `json:"date"`
	Status             string              `json:"status"`
	CreatedAt          string              `json:"created_at"`
	User               CustomerSummary     `json:"user"`
	Decoration         DecorationSummary   `json:"decoration"`
	AdditionalServices []AdditionalService `json:"additional_services"`
	TotalPrice         float64             `json:"total_price"`
	DPAmount           float64             `json:"dp_amount"`
	FirstPaymentAmount float64             `json:"first_payment_amount"`
	FinalPaymentAmount float64             `json:"final_payment_amount"`
	PaidPayments       []string            `json:"paid_payments"`
	AvailablePayments  []string            `json:"available_payments"`
	Payments           []Payment           `json:"payments,omitempty"`
}

type AdminUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

type AdminBooking struct {
	ID             string            `json:"id"`
	Date           string            `json:"date"`
	Status         string            `json:"status"`
	CreatedAt      string            `json:"created_at"`
	User           AdminUser         `json:"user"`
	Decoration     DecorationSummary `json:"decoration"`
	AddonsTotal    float64           `json:"addons_total"`
	TotalPrice     float64           `json:"total_price"`
	PaymentSummary string            `json:"payment_summary"`
}

type ServiceSelection struct {
	ServiceID string `json:"service_id"`
	Quantity  int    `json:"quantity"`
}

type CreateBookingRequest struct {
	DecorationID       string             `json:"decoration_id"`
	Date               string             `json:"date"`
	AdditionalServices []ServiceSelection `json:"additional_services"`
}

type BookingData struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	DecorationID string   `json:"decoration_id"`
	Date         string   `json:"date"`
	Status       string   `json:"status"`
	DPAmount     *float64 `json:"dp_amount"`
	FullAmount   *float64 `json:"full_amount"`
	InvoiceURL   *string  `json:"invoice_url"`
	WhatsappLink *string  `json:"whatsapp_link"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

type CreateBookingResult struct {
	Message string      `json:"message"`
	Data    BookingData `json:"data"`
}

type tokenRequest struct {
	BookingID   string `json:"bookingId"`
	PaymentType string `json:"paymentType"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type EnsureFinalData struct {
	BookingID string   `json:"bookingId"`
	PaymentID string   `json:"paymentId"`
	Created   bool     `json:"created"`
	Payment   *Payment `json:"payment,omitempty"`
	Amount    *float64 `json:"amount,omitempty"`
}
