package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListFilter narrows a schedule listing. Zero values mean "no filter".
type ListFilter struct {
	Status      Status
	RequestedBy string
	Limit       int
	Offset      int
}

// Repository defines scheduled payment persistence operations
type Repository interface {
	Create(ctx context.Context, sp *ScheduledPayment) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScheduledPayment, error)
	List(ctx context.Context, filter ListFilter) ([]*ScheduledPayment, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)

	// ListDue returns non-terminal schedules whose due date is on or before asOf
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]*ScheduledPayment, error)

	// Update persists sp only if the stored version is sp.Version-1.
	// It returns ErrConcurrentModification when no row matched.
	Update(ctx context.Context, sp *ScheduledPayment) error
	WithTx(tx pgx.Tx) Repository
}
