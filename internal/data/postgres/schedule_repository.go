// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be bound to a transaction through WithTx so that an
// execution writes the schedule, its payment and the outbox message atomically.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
	"github.com/vendor-payment-scheduler/internal/platform/persistence"
)

const scheduleColumns = `id, scheduled_for, status, is_recurring,
		COALESCE(recurrence_pattern, ''), COALESCE(recurrence_end_type, ''),
		recurrence_end_after, recurrence_end_date, execution_count, next_execution,
		last_execution_date, parent_payment_id, payment_id, vendor_name, category,
		amount, currency, description, bill_reference, requested_by, version,
		created_at, updated_at, cancelled_at`

// rowScanner is satisfied by both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// ScheduleRepository implements the schedule.Repository interface for PostgreSQL
type ScheduleRepository struct {
	querier persistence.Querier // Can be the pool or a pgx.Tx
	logger  *slog.Logger
}

// NewScheduleRepository creates a new PostgreSQL scheduled payment repository
func NewScheduleRepository(logger *slog.Logger, db *persistence.PostgresDB) schedule.Repository {
	return &ScheduleRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository that runs every statement on tx
func (r *ScheduleRepository) WithTx(tx pgx.Tx) schedule.Repository {
	return &ScheduleRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new scheduled payment
func (r *ScheduleRepository) Create(ctx context.Context, sp *schedule.ScheduledPayment) error {
	query := `
		INSERT INTO scheduled_payments (id, scheduled_for, status, is_recurring, recurrence_pattern,
			recurrence_end_type, recurrence_end_after, recurrence_end_date, execution_count, next_execution,
			last_execution_date, parent_payment_id, payment_id, vendor_name, category, amount, currency,
			description, bill_reference, requested_by, version, created_at, updated_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err := r.querier.Exec(ctx, query,
		sp.ID,
		sp.ScheduledFor,
		sp.Status,
		sp.IsRecurring,
		nullString(string(sp.RecurrencePattern)),
		nullString(string(sp.RecurrenceEndType)),
		sp.RecurrenceEndAfter,
		sp.RecurrenceEndDate,
		sp.ExecutionCount,
		sp.NextExecution,
		sp.LastExecutionDate,
		sp.ParentPaymentID,
		sp.PaymentID,
		sp.VendorName,
		sp.Category,
		sp.Amount,
		sp.Currency,
		sp.Description,
		sp.BillReference,
		sp.RequestedBy,
		sp.Version,
		sp.CreatedAt,
		sp.UpdatedAt,
		sp.CancelledAt,
	)
	if err != nil {
		r.logger.Error("Failed to create scheduled payment", "id", sp.ID.String(), "error", err)
		return fmt.Errorf("failed to create scheduled payment: %w", err)
	}

	return nil
}

// GetByID retrieves a scheduled payment by its ID
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM scheduled_payments
		WHERE id = $1
	`

	sp, err := scanSchedule(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, schedule.ErrScheduleNotFound{ScheduleID: id}
		}
		r.logger.Error("Failed to get scheduled payment", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get scheduled payment: %w", err)
	}

	return sp, nil
}

// List returns scheduled payments matching filter, newest first
func (r *ScheduleRepository) List(ctx context.Context, filter schedule.ListFilter) ([]*schedule.ScheduledPayment, error) {
	where, args := filterClause(filter)
	query := `
		SELECT ` + scheduleColumns + `
		FROM scheduled_payments` + where + `
		ORDER BY created_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	}

	return r.query(ctx, "list scheduled payments", query, args...)
}

// Count returns the number of scheduled payments matching filter, ignoring pagination
func (r *ScheduleRepository) Count(ctx context.Context, filter schedule.ListFilter) (int64, error) {
	where, args := filterClause(filter)
	query := `
		SELECT COUNT(*)
		FROM scheduled_payments` + where

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count scheduled payments", "error", err)
		return 0, fmt.Errorf("failed to count scheduled payments: %w", err)
	}

	return count, nil
}

// ListDue returns schedules whose next occurrence falls on or before asOf,
// oldest due date first. Cancelled and exhausted schedules are never due.
func (r *ScheduleRepository) ListDue(ctx context.Context, asOf time.Time, limit int) ([]*schedule.ScheduledPayment, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM scheduled_payments
		WHERE status <> 'cancelled'
			AND (execution_count = 0 OR next_execution IS NOT NULL)
			AND COALESCE(next_execution, scheduled_for) <= $1
		ORDER BY COALESCE(next_execution, scheduled_for) ASC, created_at ASC
		LIMIT $2
	`

	return r.query(ctx, "list due scheduled payments", query, schedule.DateOf(asOf), limit)
}

// Update writes the mutable lifecycle fields using optimistic locking.
// Returns ErrConcurrentModification if the stored version is not sp.Version-1.
func (r *ScheduleRepository) Update(ctx context.Context, sp *schedule.ScheduledPayment) error {
	query := `
		UPDATE scheduled_payments
		SET status = $1, execution_count = $2, next_execution = $3, last_execution_date = $4,
			payment_id = $5, version = $6, updated_at = $7, cancelled_at = $8
		WHERE id = $9 AND version = $10
	`

	result, err := r.querier.Exec(ctx, query,
		sp.Status,
		sp.ExecutionCount,
		sp.NextExecution,
		sp.LastExecutionDate,
		sp.PaymentID,
		sp.Version,
		sp.UpdatedAt,
		sp.CancelledAt,
		sp.ID,
		sp.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update scheduled payment", "id", sp.ID.String(), "error", err)
		return fmt.Errorf("failed to update scheduled payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return schedule.ErrConcurrentModification{ScheduleID: sp.ID}
	}

	return nil
}

func (r *ScheduleRepository) query(ctx context.Context, op, query string, args ...any) ([]*schedule.ScheduledPayment, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	schedules := make([]*schedule.ScheduledPayment, 0)
	for rows.Next() {
		sp, err := scanSchedule(rows)
		if err != nil {
			r.logger.Error("Failed to scan scheduled payment", "error", err)
			return nil, fmt.Errorf("failed to scan scheduled payment: %w", err)
		}
		schedules = append(schedules, sp)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over scheduled payments", "error", err)
		return nil, fmt.Errorf("error iterating over scheduled payments: %w", err)
	}

	return schedules, nil
}

func scanSchedule(row rowScanner) (*schedule.ScheduledPayment, error) {
	var sp schedule.ScheduledPayment
	err := row.Scan(
		&sp.ID,
		&sp.ScheduledFor,
		&sp.Status,
		&sp.IsRecurring,
		&sp.RecurrencePattern,
		&sp.RecurrenceEndType,
		&sp.RecurrenceEndAfter,
		&sp.RecurrenceEndDate,
		&sp.ExecutionCount,
		&sp.NextExecution,
		&sp.LastExecutionDate,
		&sp.ParentPaymentID,
		&sp.PaymentID,
		&sp.VendorName,
		&sp.Category,
		&sp.Amount,
		&sp.Currency,
		&sp.Description,
		&sp.BillReference,
		&sp.RequestedBy,
		&sp.Version,
		&sp.CreatedAt,
		&sp.UpdatedAt,
		&sp.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// filterClause renders the WHERE clause for filter with positional arguments
func filterClause(filter schedule.ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, "requested_by = $"+strconv.Itoa(len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "\n\t\tWHERE " + strings.Join(conditions, " AND "), args
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
