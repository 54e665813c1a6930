package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vendor-payment-scheduler/internal/domain/payment"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
)

// Lifecycle is the subset of the lifecycle manager the API uses
type Lifecycle interface {
	Now() time.Time
	Create(ctx context.Context, input schedule.CreateInput) (*schedule.ScheduledPayment, error)
	Get(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error)
	List(ctx context.Context, filter schedule.ListFilter) ([]*schedule.ScheduledPayment, int64, error)
	Cancel(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error)
	Payments(ctx context.Context, id uuid.UUID) ([]*payment.Payment, error)
	Dashboard(ctx context.Context, requestedBy string) (schedule.Summary, error)
}

// ScheduleServiceImpl implements the ScheduleService interface
type ScheduleServiceImpl struct {
	lifecycle Lifecycle
	preview   PreviewService
}

func NewScheduleService(lifecycle Lifecycle, preview PreviewService) ScheduleService {
	return &ScheduleServiceImpl{
		lifecycle: lifecycle,
		preview:   preview,
	}
}

func (s *ScheduleServiceImpl) CreateSchedule(ctx context.Context, input schedule.CreateInput) (*schedule.ScheduledPayment, error) {
	return s.lifecycle.Create(ctx, input)
}

func (s *ScheduleServiceImpl) GetSchedule(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error) {
	return s.lifecycle.Get(ctx, id)
}

func (s *ScheduleServiceImpl) ListSchedules(ctx context.Context, filter schedule.ListFilter) ([]*schedule.ScheduledPayment, int64, error) {
	return s.lifecycle.List(ctx, filter)
}

func (s *ScheduleServiceImpl) CancelSchedule(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error) {
	return s.lifecycle.Cancel(ctx, id)
}

func (s *ScheduleServiceImpl) ListPayments(ctx context.Context, id uuid.UUID) ([]*payment.Payment, error) {
	return s.lifecycle.Payments(ctx, id)
}

// PreviewSchedule projects the occurrences of a stored schedule that have not
// executed yet. Terminal schedules have none.
func (s *ScheduleServiceImpl) PreviewSchedule(ctx context.Context, id uuid.UUID, maxResults int) (*Preview, error) {
	sp, err := s.lifecycle.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	full := s.preview.Preview(sp.Recurrence(), maxResults+sp.ExecutionCount)
	if sp.IsTerminal() {
		return &Preview{Dates: []time.Time{}, EstimatedOccurrences: full.EstimatedOccurrences}, nil
	}
	if !sp.IsRecurring {
		return full, nil
	}

	remaining := full.Dates
	if sp.ExecutionCount < len(remaining) {
		remaining = remaining[sp.ExecutionCount:]
	} else {
		remaining = []time.Time{}
	}
	return &Preview{Dates: remaining, EstimatedOccurrences: full.EstimatedOccurrences}, nil
}

func (s *ScheduleServiceImpl) Dashboard(ctx context.Context, requestedBy string) (schedule.Summary, error) {
	return s.lifecycle.Dashboard(ctx, requestedBy)
}
