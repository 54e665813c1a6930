package payment

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines payment persistence operations
type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListBySchedule(ctx context.Context, scheduledPaymentID uuid.UUID) ([]*Payment, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrPaymentNotFound indicates missing payment
type ErrPaymentNotFound struct {
	PaymentID uuid.UUID
}

func (e ErrPaymentNotFound) Error() string {
	return "payment not found: " + e.PaymentID.String()
}

// Is implements the errors.Is interface for ErrPaymentNotFound
func (e ErrPaymentNotFound) Is(target error) bool {
	t, ok := target.(ErrPaymentNotFound)
	if !ok {
		return false
	}
	if t.PaymentID == uuid.Nil {
		return true
	}
	return e.PaymentID == t.PaymentID
}

// ErrDuplicatePayment indicates the occurrence was already turned into a payment
type ErrDuplicatePayment struct {
	ScheduledPaymentID uuid.UUID
	OccurrenceNumber   int
}

func (e ErrDuplicatePayment) Error() string {
	return "payment already exists for scheduled payment " + e.ScheduledPaymentID.String() +
		" occurrence " + strconv.Itoa(e.OccurrenceNumber)
}

// Is implements the errors.Is interface for ErrDuplicatePayment
func (e ErrDuplicatePayment) Is(target error) bool {
	t, ok := target.(ErrDuplicatePayment)
	if !ok {
		return false
	}
	if t.ScheduledPaymentID == uuid.Nil {
		return true
	}
	return e.ScheduledPaymentID == t.ScheduledPaymentID && e.OccurrenceNumber == t.OccurrenceNumber
}
