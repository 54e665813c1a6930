package components

import (
	"log/slog"
	"time"

	"github.com/vendor-payment-scheduler/internal/config"
	"github.com/vendor-payment-scheduler/internal/domain/outbox"
	"github.com/vendor-payment-scheduler/internal/domain/payment"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
	"github.com/vendor-payment-scheduler/internal/lifecycle"
	"github.com/vendor-payment-scheduler/internal/schedule_executor/service"
)

// Repositories groups the stores the lifecycle manager writes to
type Repositories struct {
	Schedules schedule.Repository
	Payments  payment.Repository
	Outbox    outbox.Repository
}

// CreateLifecycleManager builds the manager on the configured timezone and
// operation timeout. An unknown timezone falls back to UTC.
func CreateLifecycleManager(
	txRunner lifecycle.TxRunner,
	repos Repositories,
	recorder lifecycle.Recorder,
	logger *slog.Logger,
	cfg *config.Config,
) *lifecycle.Manager {
	loc, err := cfg.Application.Location()
	if err != nil {
		logger.Error("Unknown application timezone, using UTC", "timezone", cfg.Application.Timezone, "error", err)
		loc = time.UTC
	}

	return lifecycle.NewManager(
		txRunner,
		repos.Schedules,
		repos.Payments,
		repos.Outbox,
		lifecycle.SystemClock{Location: loc},
		recorder,
		cfg.Lifecycle.OperationTimeout,
		logger.With("component", "lifecycle"),
	)
}

// CreateExecutionService creates the ExecutionService used by the Kafka
// handler and the sweeper, bounded by the configured worker pool.
func CreateExecutionService(
	executor service.ScheduleExecutor,
	logger *slog.Logger,
	cfg *config.Config,
) service.ExecutionService {
	baseService := service.NewExecutionService(executor, logger)

	workerPoolService, err := service.NewWorkerPoolExecutionService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool execution service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
