package snap

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/pkg/errors"
)

// ErrUnavailable means the checkout widget cannot be reached at all (no
// client key configured). Anything past that point is reported through the
// callback contract, never as an error: once the external UI is open this
// process has no reliable view of what happened inside it.
var ErrUnavailable = errors.New("midtrans snap is not available")

// Result carries the transaction fields the widget reports back.
type Result struct {
	TransactionID     string
	OrderID           string
	TransactionStatus string
	StatusCode        string
	GrossAmount       string
	PaymentType       string
}

// Callbacks normalizes the four possible checkout outcomes. None of them is
// guaranteed to fire: navigation away, network loss or a redirect-based
// payment method can suppress all four. OnClose means the widget was
// dismissed without a definitive outcome - the payment may still have
// succeeded out of band.
type Callbacks struct {
	OnSuccess func(Result)
	OnPending func(Result)
	OnError   func(Result)
	OnClose   func()
}

// LaunchFunc hands the checkout URL to an external UI. The default
// implementation only logs it; the process does not control the widget.
type LaunchFunc func(url string) error

// Client wraps the Midtrans Snap checkout and the core API status probe.
type Client struct {
	core        *coreapi.Client
	clientKey   string
	environment midtrans.EnvironmentType
	mockPayment bool
	launch      LaunchFunc
	logger      *slog.Logger
}

type Config struct {
	ClientKey   string
	ServerKey   string
	Production  bool
	MockPayment bool
	Launch      LaunchFunc
	Logger      *slog.Logger
}

func NewClient(cfg Config) *Client {
	environment := midtrans.Sandbox
	if cfg.Production {
		environment = midtrans.Production
	}

	var core *coreapi.Client
	if cfg.ServerKey != "" {
		core = &coreapi.Client{}
		core.New(cfg.ServerKey, environment)
	}

	c := &Client{
		core:        core,
		clientKey:   cfg.ClientKey,
		environment: environment,
		mockPayment: cfg.MockPayment,
		launch:      cfg.Launch,
		logger:      cfg.Logger,
	}
	if c.launch == nil {
		c.launch = func(url string) error {
			c.logger.Info("Checkout URL ready", "url", url)
			return nil
		}
	}
	return c
}

// RedirectURL builds the hosted checkout page URL for a snap token.
func (c *Client) RedirectURL(token string) string {
	base := "https://app.sandbox.midtrans.com"
	if c.environment == midtrans.Production {
		base = "https://app.midtrans.com"
	}
	return base + "/snap/v2/vtweb/" + token
}

// Pay opens the checkout for a previously issued token. In mock payment
// mode it settles immediately with a synthetic result; otherwise it launches
// the external checkout UI and returns without waiting - outcome callbacks
// fire only if the external flow reports back, which it may never do.
func (c *Client) Pay(ctx context.Context, token string, cb Callbacks) error {
	if c.mockPayment {
		c.logger.Info("Mock payment mode enabled, settling immediately", "token", token)
		if cb.OnSuccess != nil {
			cb.OnSuccess(Result{
				TransactionID:     uuid.New().String(),
				TransactionStatus: "settlement",
				StatusCode:        "200",
			})
		}
		return nil
	}

	if c.clientKey == "" {
		return errors.Wrap(ErrUnavailable, "client key not configured")
	}

	url := c.RedirectURL(token)
	if err := c.launch(url); err != nil {
		return errors.Errorf("launch checkout UI: %v", err)
	}

	c.logger.Info("Checkout handed to external UI", "token", token)
	return nil
}

// CheckTransaction probes the gateway for a transaction's current status and
// maps it onto the callback vocabulary. Only a definitive failure or success
// from here is trustworthy; everything else stays indeterminate.
func (c *Client) CheckTransaction(ctx context.Context, orderID string) (Result, error) {
	if c.core == nil {
		return Result{}, errors.Wrap(ErrUnavailable, "server key not configured")
	}

	resp, err := c.core.CheckTransaction(orderID)
	if err != nil {
		return Result{}, errors.Errorf("check transaction %s: %v", orderID, err)
	}

	return Result{
		TransactionID:     resp.TransactionID,
		OrderID:           resp.OrderID,
		TransactionStatus: resp.TransactionStatus,
		StatusCode:        resp.StatusCode,
		GrossAmount:       resp.GrossAmount,
		PaymentType:       resp.PaymentType,
	}, nil
}

// Dispatch routes a probed result to the matching callback.
func Dispatch(result Result, cb Callbacks) {
	switch result.TransactionStatus {
	case "settlement", "capture":
		if cb.OnSuccess != nil {
			cb.OnSuccess(result)
		}
	case "pending", "authorize":
		if cb.OnPending != nil {
			cb.OnPending(result)
		}
	case "deny", "cancel", "expire", "failure":
		if cb.OnError != nil {
			cb.OnError(result)
		}
	default:
		if cb.OnClose != nil {
			cb.OnClose()
		}
	}
}
