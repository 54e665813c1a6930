package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vendor-payment-scheduler/internal/domain/schedule"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
	"github.com/vendor-payment-scheduler/internal/lifecycle"
)

type ExecutionServiceImpl struct {
	executor ScheduleExecutor
	logger   *slog.Logger
}

func NewExecutionService(executor ScheduleExecutor, logger *slog.Logger) ExecutionService {
	return &ExecutionServiceImpl{
		executor: executor,
		logger:   logger,
	}
}

// ExecuteSchedule executes the requested occurrence. Outcomes that a retry
// cannot change (conflict, missing schedule, invalid request) return nil so the
// message is acknowledged; storage failures are returned for redelivery.
func (s *ExecutionServiceImpl) ExecuteSchedule(ctx context.Context, request *shared.ExecutionRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}
	logger = logger.With(
		"request_id", request.RequestID.String(),
		"schedule_id", request.ScheduledPaymentID.String(),
		"trigger", string(request.Trigger),
	)

	if !request.Trigger.Valid() {
		logger.Error("Rejecting execution request", "error", shared.ErrInvalidTrigger)
		return nil
	}

	logger.Info("Executing scheduled payment")

	result, err := s.executor.Execute(ctx, request.ScheduledPaymentID, lifecycle.ExecuteOptions{
		ExpectedExecutionCount: request.ExpectedExecutionCount,
		Trigger:                request.Trigger,
		CorrelationID:          request.CorrelationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, schedule.StateConflict{}):
			logger.Info("Execution skipped", "reason", err.Error())
			return nil
		case errors.Is(err, schedule.ErrScheduleNotFound{}):
			logger.Warn("Execution requested for unknown schedule")
			return nil
		case errors.Is(err, schedule.ValidationError{}):
			logger.Error("Execution request is invalid", "error", err)
			return nil
		}
		logger.Error("Execution failed", "error", err)
		return fmt.Errorf("executing scheduled payment %s failed: %w", request.ScheduledPaymentID.String(), err)
	}

	logger.Info("Execution committed",
		"payment_id", result.Payment.ID.String(),
		"occurrence", result.Payment.OccurrenceNumber,
	)
	return nil
}
