package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client is a hand-written client for the storefront REST backend. Every
// request carries the bearer token; responses come wrapped in {data} /
// {message, data} envelopes.
type Client struct {
	httpc   *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &Client{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		limiter: limiter,
		logger:  logger,
	}
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiting: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Path: path}
		var envelope struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Message = envelope.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// MyBookings returns the authenticated user's bookings.
func (c *Client) MyBookings(ctx context.Context) ([]UserBooking, error) {
	var envelope struct {
		Data []UserBooking `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/booking/me", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func (c *Client) BookingDetail(ctx context.Context, id string) (*BookingDetail, error) {
	var envelope struct {
		Data BookingDetail `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/booking/"+id, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResult, error) {
	var result CreateBookingResult
	if err := c.do(ctx, http.MethodPost, "/booking", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CancelBooking(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/booking/"+id+"/cancel", nil, nil)
}

// AdminBookings returns every booking in the system (admin only).
func (c *Client) AdminBookings(ctx context.Context) ([]AdminBooking, error) {
	var envelope struct {
		Data []AdminBooking `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/booking", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func (c *Client) AdminBookingDetail(ctx context.Context, id string) (*BookingDetail, error) {
	var envelope struct {
		Data BookingDetail `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/booking/"+id, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

func (c *Client) AdminCancelBooking(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/admin/booking/"+id+"/cancel", nil, nil)
}

func (c *Client) AdminDeleteBooking(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/booking/"+id, nil, nil)
}

// PaymentToken requests a gateway checkout token for one payment stage.
// The backend answers 409 while a previous transaction for the booking is
// still open, and 400 when the stage is not currently payable.
func (c *Client) PaymentToken(ctx context.Context, bookingID, paymentType string) (string, error) {
	req := tokenRequest{BookingID: bookingID, PaymentType: paymentType}
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/midtrans/token", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// EnsureFinalPayment asks the backend to materialize the final payment
// record for a booking. The call is idempotent on the backend side.
func (c *Client) EnsureFinalPayment(ctx context.Context, bookingID string) (*EnsureFinalData, error) {
	var envelope struct {
		Message string           `json:"message"`
		Data    *EnsureFinalData `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/admin/bookings/"+bookingID+"/payments/final/ensure", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func (c *Client) ConvertPaymentFinal(ctx context.Context, paymentID string) error {
	return c.do(ctx, http.MethodPatch, "/admin/payments/"+paymentID+"/convert-final", nil, nil)
}
