package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vendor-payment-scheduler/internal/domain/history"
	"github.com/vendor-payment-scheduler/internal/domain/payment"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// ScheduleService defines the interface for scheduled payment operations
type ScheduleService interface {
	// CreateSchedule validates input and stores a pending schedule
	// Returns schedule.ValidationError for invalid input
	CreateSchedule(ctx context.Context, input schedule.CreateInput) (*schedule.ScheduledPayment, error)

	// GetSchedule retrieves a schedule by its ID
	// Returns schedule.ErrScheduleNotFound if the schedule doesn't exist
	GetSchedule(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error)

	// ListSchedules retrieves a page of schedules and the total matching count
	ListSchedules(ctx context.Context, filter schedule.ListFilter) ([]*schedule.ScheduledPayment, int64, error)

	// CancelSchedule cancels a schedule
	// Returns schedule.StateConflict when the schedule cannot be cancelled
	CancelSchedule(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error)

	// ListPayments retrieves the payments produced by a schedule, oldest first
	ListPayments(ctx context.Context, id uuid.UUID) ([]*payment.Payment, error)

	// PreviewSchedule projects the upcoming occurrences of a stored schedule
	PreviewSchedule(ctx context.Context, id uuid.UUID, maxResults int) (*Preview, error)

	// Dashboard summarizes the schedules of requestedBy, or every schedule when empty
	Dashboard(ctx context.Context, requestedBy string) (schedule.Summary, error)
}

// PreviewService projects recurrences that are not stored
type PreviewService interface {
	Preview(r schedule.Recurrence, maxResults int) *Preview
}

// ExecutionService defines the interface for execution requests and history
type ExecutionService interface {
	// RequestExecution publishes a request to execute the due occurrence of a schedule.
	// Returns schedule.StateConflict when the schedule has nothing due
	RequestExecution(ctx context.Context, request *shared.ExecutionRequest) error

	// GetHistory retrieves paginated payment history of a schedule
	// Returns records, total count of all records, and any error
	GetHistory(ctx context.Context, scheduleID uuid.UUID, page, perPage int) ([]*history.Record, int64, error)
}

// Preview is a projected list of occurrence dates
type Preview struct {
	Dates []time.Time
	// EstimatedOccurrences is nil for open-ended schedules
	EstimatedOccurrences *int
}
