package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"decobook/internal/reconcile"
	"decobook/internal/stories/bookings"
)

const operationsTable = "payment_operations"

var operationRowFields = fields(operationRow{})

type operationRow struct {
	ID         string     `db:"id"`
	BookingID  string     `db:"booking_id"`
	Stage      string     `db:"stage"`
	State      string     `db:"state"`
	Attempts   int        `db:"attempts"`
	Outcome    *string    `db:"outcome"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

func (r operationRow) ToModel() reconcile.Operation {
	op := reconcile.Operation{
		ID:         r.ID,
		BookingID:  r.BookingID,
		Stage:      bookings.Stage(r.Stage),
		State:      reconcile.State(r.State),
		Attempts:   r.Attempts,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if r.Outcome != nil {
		op.Outcome = reconcile.Outcome(*r.Outcome)
	}
	return op
}

// RecordStart journals a freshly started payment operation.
func (s *storageImpl) RecordStart(ctx context.Context, op reconcile.Operation) error {
	params := map[string]interface{}{
		"id":         op.ID,
		"booking_id": op.BookingID,
		"stage":      string(op.Stage),
		"state":      string(op.State),
		"attempts":   op.Attempts,
		"started_at": op.StartedAt,
		"created_at": s.now(),
		"updated_at": s.now(),
	}

	q, args, err := s.stmtBuilder().
		Insert(operationsTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}
	return nil
}

// RecordFinish journals an operation's terminal state. Operations that never
// made it past token acquisition have no start row; those are inserted here.
func (s *storageImpl) RecordFinish(ctx context.Context, op reconcile.Operation) error {
	params := map[string]interface{}{
		"state":       string(op.State),
		"attempts":    op.Attempts,
		"outcome":     string(op.Outcome),
		"finished_at": op.FinishedAt,
		"updated_at":  s.now(),
	}

	q, args, err := s.stmtBuilder().
		Update(operationsTable).
		SetMap(params).
		Where(sq.Eq{"id": op.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("result.RowsAffected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	insertParams := map[string]interface{}{
		"id":          op.ID,
		"booking_id":  op.BookingID,
		"stage":       string(op.Stage),
		"state":       string(op.State),
		"attempts":    op.Attempts,
		"outcome":     string(op.Outcome),
		"started_at":  op.StartedAt,
		"finished_at": op.FinishedAt,
		"created_at":  s.now(),
		"updated_at":  s.now(),
	}

	q, args, err = s.stmtBuilder().
		Insert(operationsTable).
		SetMap(insertParams).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}
	return nil
}

// ListRecentOperations returns the newest journal entries, most recent first.
func (s *storageImpl) ListRecentOperations(ctx context.Context, limit int) ([]reconcile.Operation, error) {
	if limit <= 0 {
		limit = 50
	}

	q, args, err := s.stmtBuilder().
		Select(operationRowFields).
		From(operationsTable).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []operationRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make([]reconcile.Operation, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.ToModel())
	}
	return result, nil
}

// ListUnresolvedOperations returns operations whose polling budget ran out
// without the backend confirming the expected status.
func (s *storageImpl) ListUnresolvedOperations(ctx context.Context) ([]reconcile.Operation, error) {
	q, args, err := s.stmtBuilder().
		Select(operationRowFields).
		From(operationsTable).
		Where(sq.Eq{"outcome": string(reconcile.OutcomeExhausted)}).
		OrderBy("started_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []operationRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make([]reconcile.Operation, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.ToModel())
	}
	return result, nil
}
