package reconcile

import (
	"context"

	"decobook/internal/infra/snap"
	"decobook/internal/stories/bookings"
)

type (
	// TokenSource issues gateway checkout tokens.
	TokenSource interface {
		RequestToken(ctx context.Context, bookingID string, stage bookings.Stage) (string, error)
	}

	// BookingSource re-fetches the authoritative booking list. The engine
	// never trusts gateway callbacks for state; only this.
	BookingSource interface {
		ListMine(ctx context.Context) ([]bookings.Booking, error)
	}

	// Gateway invokes the external checkout UI.
	Gateway interface {
		Pay(ctx context.Context, token string, cb snap.Callbacks) error
	}

	// Journal records operation lifecycles durably. Journal failures never
	// block reconciliation; they are logged and dropped.
	Journal interface {
		RecordStart(ctx context.Context, op Operation) error
		RecordFinish(ctx context.Context, op Operation) error
	}
)
