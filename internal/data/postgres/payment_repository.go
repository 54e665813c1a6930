package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vendor-payment-scheduler/internal/domain/payment"
	"github.com/vendor-payment-scheduler/internal/platform/persistence"
)

const uniqueViolationCode = "23505"

const paymentColumns = `id, scheduled_payment_id, parent_payment_id, occurrence_number, occurrence_date,
		vendor_name, category, amount, currency, description, bill_reference, requested_by,
		status, issued_at, created_at`

// PaymentRepository implements the payment.Repository interface for PostgreSQL
type PaymentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPaymentRepository creates a new PostgreSQL payment repository
func NewPaymentRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.Repository {
	return &PaymentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository that runs every statement on tx
func (r *PaymentRepository) WithTx(tx pgx.Tx) payment.Repository {
	return &PaymentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores an issued payment. The (scheduled_payment_id, occurrence_number)
// pair is unique, so a second payment for the same occurrence returns
// ErrDuplicatePayment.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (id, scheduled_payment_id, parent_payment_id, occurrence_number, occurrence_date,
			vendor_name, category, amount, currency, description, bill_reference, requested_by,
			status, issued_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.ScheduledPaymentID,
		p.ParentPaymentID,
		p.OccurrenceNumber,
		p.OccurrenceDate,
		p.VendorName,
		p.Category,
		p.Amount,
		p.Currency,
		p.Description,
		p.BillReference,
		p.RequestedBy,
		p.Status,
		p.IssuedAt,
		p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return payment.ErrDuplicatePayment{
				ScheduledPaymentID: p.ScheduledPaymentID,
				OccurrenceNumber:   p.OccurrenceNumber,
			}
		}
		r.logger.Error("Failed to create payment",
			"scheduled_payment_id", p.ScheduledPaymentID.String(),
			"occurrence", p.OccurrenceNumber,
			"error", err,
		)
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by its ID
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1
	`

	p, err := scanPayment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound{PaymentID: id}
		}
		r.logger.Error("Failed to get payment", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return p, nil
}

// ListBySchedule returns every payment produced by a schedule in occurrence order
func (r *PaymentRepository) ListBySchedule(ctx context.Context, scheduledPaymentID uuid.UUID) ([]*payment.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE scheduled_payment_id = $1
		ORDER BY occurrence_number ASC
	`

	rows, err := r.querier.Query(ctx, query, scheduledPaymentID)
	if err != nil {
		r.logger.Error("Failed to list payments", "scheduled_payment_id", scheduledPaymentID.String(), "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*payment.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			r.logger.Error("Failed to scan payment", "error", err)
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over payments: %w", err)
	}

	return payments, nil
}

func scanPayment(row rowScanner) (*payment.Payment, error) {
	var p payment.Payment
	err := row.Scan(
		&p.ID,
		&p.ScheduledPaymentID,
		&p.ParentPaymentID,
		&p.OccurrenceNumber,
		&p.OccurrenceDate,
		&p.VendorName,
		&p.Category,
		&p.Amount,
		&p.Currency,
		&p.Description,
		&p.BillReference,
		&p.RequestedBy,
		&p.Status,
		&p.IssuedAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
