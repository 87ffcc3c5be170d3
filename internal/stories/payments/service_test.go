package payments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"decobook/internal/infra/backendapi"
	"decobook/internal/stories/bookings"
)

type mockAPI struct {
	token       string
	tokenErr    error
	tokenCalls  int
	lastStage   string
	ensureData  *backendapi.EnsureFinalData
	ensureErr   error
	ensureCalls int
	convertErr  error
}

func (m *mockAPI) PaymentToken(_ context.Context, _, paymentType string) (string, error) {
	m.tokenCalls++
	m.lastStage = paymentType
	return m.token, m.tokenErr
}

func (m *mockAPI) EnsureFinalPayment(_ context.Context, _ string) (*backendapi.EnsureFinalData, error) {
	m.ensureCalls++
	return m.ensureData, m.ensureErr
}

func (m *mockAPI) ConvertPaymentFinal(_ context.Context, _ string) error {
	return m.convertErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func apiErr(status int) error {
	return &backendapi.APIError{StatusCode: status, Message: "nope"}
}

func TestRequestToken(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		apiErr    error
		wantToken string
		wantErr   error
	}{
		{
			name:      "token issued",
			token:     "snap-token-1",
			wantToken: "snap-token-1",
		},
		{
			name:    "conflict maps to in-flight",
			apiErr:  apiErr(http.StatusConflict),
			wantErr: ErrTransactionInFlight,
		},
		{
			name:    "bad request maps to not payable",
			apiErr:  apiErr(http.StatusBadRequest),
			wantErr: ErrStageNotPayable,
		},
		{
			name:    "not found maps to booking not found",
			apiErr:  apiErr(http.StatusNotFound),
			wantErr: ErrBookingNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{token: tt.token, tokenErr: tt.apiErr}
			svc := NewService(api, testLogger())

			token, err := svc.RequestToken(context.Background(), "b-1", bookings.StageDP)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("RequestToken() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RequestToken() error = %v", err)
			}
			if token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
			if api.lastStage != "dp" {
				t.Errorf("stage sent = %q, want %q", api.lastStage, "dp")
			}
		})
	}
}

func TestRequestTokenWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection refused")
	api := &mockAPI{tokenErr: cause}
	svc := NewService(api, testLogger())

	_, err := svc.RequestToken(context.Background(), "b-1", bookings.StageFinal)
	if !errors.Is(err, cause) {
		t.Errorf("RequestToken() error = %v, want wrapped %v", err, cause)
	}
}

func TestEnsureFinalIdempotent(t *testing.T) {
	orderID := "order-77"
	api := &mockAPI{
		ensureData: &backendapi.EnsureFinalData{
			BookingID: "b-1",
			PaymentID: "p-final-1",
			Created:   true,
			Payment: &backendapi.Payment{
				ID:            "p-final-1",
				Type:          "FINAL",
				PaymentStatus: "pending",
				Amount:        1500000,
				OrderID:       &orderID,
			},
		},
	}
	svc := NewService(api, testLogger())

	first, err := svc.EnsureFinal(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("EnsureFinal() error = %v", err)
	}
	if !first.Created {
		t.Error("first call should report a created record")
	}
	if first.Payment == nil || first.Payment.Type != bookings.StageFinal {
		t.Fatalf("payment record = %+v, want normalized final record", first.Payment)
	}
	if first.Amount != 1500000 {
		t.Errorf("amount = %v, want record amount fallback", first.Amount)
	}

	// the same record already pending on the backend
	api.ensureData.Created = false

	second, err := svc.EnsureFinal(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("EnsureFinal() second error = %v", err)
	}
	if second.Created {
		t.Error("second call must not report a new record")
	}
	if second.PaymentID != first.PaymentID {
		t.Errorf("payment id changed across calls: %q then %q", first.PaymentID, second.PaymentID)
	}
}

func TestEnsureFinalErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		apiErr  error
		wantErr error
	}{
		{name: "not found", apiErr: apiErr(http.StatusNotFound), wantErr: ErrBookingNotFound},
		{name: "conflict means settled", apiErr: apiErr(http.StatusConflict), wantErr: ErrAlreadySettled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{ensureErr: tt.apiErr}
			svc := NewService(api, testLogger())

			_, err := svc.EnsureFinal(context.Background(), "b-1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("EnsureFinal() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsureFinalEmptyResponse(t *testing.T) {
	svc := NewService(&mockAPI{}, testLogger())
	if _, err := svc.EnsureFinal(context.Background(), "b-1"); err == nil {
		t.Error("an empty backend response must be an error")
	}
}

func TestConvertFinal(t *testing.T) {
	api := &mockAPI{convertErr: apiErr(http.StatusNotFound)}
	svc := NewService(api, testLogger())

	if err := svc.ConvertFinal(context.Background(), "p-1"); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("ConvertFinal() error = %v, want ErrBookingNotFound", err)
	}
}
