package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// WorkerPoolExecutionService bounds the number of concurrent executions
type WorkerPoolExecutionService struct {
	baseService ExecutionService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolExecutionService(
	baseService ExecutionService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolExecutionService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolExecutionService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ExecuteSchedule runs the request on a pool worker and waits for its result.
// It blocks while every worker is busy.
func (s *WorkerPoolExecutionService) ExecuteSchedule(ctx context.Context, request *shared.ExecutionRequest) error {
	resultChan := make(chan error, 1)
	requestCopy := *request

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.ExecuteSchedule(ctx, &requestCopy)
	})
	if err != nil {
		s.logger.Error("Failed to submit execution to worker pool",
			"schedule_id", request.ScheduledPaymentID.String(),
			"error", err,
		)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolExecutionService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolExecutionService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolExecutionService) Capacity() int {
	return s.pool.Cap()
}
