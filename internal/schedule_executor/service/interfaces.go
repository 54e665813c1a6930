package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
	"github.com/vendor-payment-scheduler/internal/lifecycle"
)

// ExecutionService runs the due occurrence named by an execution request
type ExecutionService interface {
	ExecuteSchedule(ctx context.Context, request *shared.ExecutionRequest) error
}

// ScheduleExecutor is the lifecycle operation the executor drives
type ScheduleExecutor interface {
	Execute(ctx context.Context, id uuid.UUID, opts lifecycle.ExecuteOptions) (*lifecycle.ExecutionResult, error)
}
