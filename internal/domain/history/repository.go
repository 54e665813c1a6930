package history

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages payment history persistence with pagination support
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*Record, error)
	ListBySchedule(ctx context.Context, scheduledPaymentID uuid.UUID, limit, offset int) ([]*Record, error)
	CountBySchedule(ctx context.Context, scheduledPaymentID uuid.UUID) (int64, error)
}

// ErrRecordNotFound indicates missing history record
type ErrRecordNotFound struct {
	PaymentID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "payment history record not found: " + e.PaymentID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	// If the target PaymentID is empty, consider it a match for any ErrRecordNotFound
	if t.PaymentID == uuid.Nil {
		return true
	}
	return e.PaymentID == t.PaymentID
}

// ErrDuplicateRecord indicates the payment was already recorded
type ErrDuplicateRecord struct {
	PaymentID uuid.UUID
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate payment history record: " + e.PaymentID.String()
}

// Is implements the errors.Is interface for ErrDuplicateRecord
func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	if t.PaymentID == uuid.Nil {
		return true
	}
	return e.PaymentID == t.PaymentID
}
