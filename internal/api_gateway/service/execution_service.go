package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vendor-payment-scheduler/internal/domain/history"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
	"github.com/vendor-payment-scheduler/internal/platform/messaging/producers"
)

// ScheduleReader loads schedules and the current time
type ScheduleReader interface {
	Now() time.Time
	Get(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error)
}

// ExecutionServiceImpl implements the ExecutionService interface
type ExecutionServiceImpl struct {
	schedules   ScheduleReader
	historyRepo history.Repository
	producer    producers.MessagePublisher
	logger      *slog.Logger
}

func NewExecutionService(
	logger *slog.Logger,
	schedules ScheduleReader,
	historyRepo history.Repository,
	producer producers.MessagePublisher,
) ExecutionService {
	return &ExecutionServiceImpl{
		schedules:   schedules,
		historyRepo: historyRepo,
		producer:    producer,
		logger:      logger,
	}
}

// RequestExecution checks that the schedule has an occurrence due and
// publishes the request, pinned to the schedule's current execution count and
// keyed by schedule ID so requests for one schedule stay ordered.
func (s *ExecutionServiceImpl) RequestExecution(ctx context.Context, request *shared.ExecutionRequest) error {
	sp, err := s.schedules.Get(ctx, request.ScheduledPaymentID)
	if err != nil {
		return err
	}

	if sp.IsTerminal() {
		return schedule.StateConflict{ScheduleID: sp.ID, Reason: "schedule has no remaining occurrences"}
	}
	if !sp.IsDue(s.schedules.Now()) {
		due, _ := sp.DueDate()
		return schedule.StateConflict{ScheduleID: sp.ID, Reason: "next occurrence is not due until " + due.Format(time.DateOnly)}
	}

	if request.ExpectedExecutionCount == nil {
		expected := sp.ExecutionCount
		request.ExpectedExecutionCount = &expected
	}

	key := request.ScheduledPaymentID.String()
	if err := s.producer.Publish(ctx, key, request); err != nil {
		s.logger.Error("Failed to publish execution request",
			"schedule_id", key,
			"request_id", request.RequestID.String(),
			"error", err,
		)
		return err
	}

	s.logger.Info("Execution request published",
		"schedule_id", key,
		"request_id", request.RequestID.String(),
		"expected_execution_count", *request.ExpectedExecutionCount,
	)
	return nil
}

// GetHistory retrieves paginated payment history of a schedule
func (s *ExecutionServiceImpl) GetHistory(ctx context.Context, scheduleID uuid.UUID, page, perPage int) ([]*history.Record, int64, error) {
	if _, err := s.schedules.Get(ctx, scheduleID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage

	records, err := s.historyRepo.ListBySchedule(ctx, scheduleID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.historyRepo.CountBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
