// Package sweeper periodically executes every scheduled payment whose next
// occurrence is due.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/vendor-payment-scheduler/internal/config"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
	"github.com/vendor-payment-scheduler/internal/schedule_executor/service"
)

// DueLister returns the schedules whose next occurrence is due now
type DueLister interface {
	ListDue(ctx context.Context, limit int) ([]*schedule.ScheduledPayment, error)
}

// DueRecorder receives the size of every sweep batch
type DueRecorder interface {
	SetDue(n int)
}

// Result summarizes one sweep
type Result struct {
	Due    int
	Failed int
}

type Sweeper struct {
	lister    DueLister
	executor  service.ExecutionService
	recorder  DueRecorder
	logger    *slog.Logger
	cron      *cron.Cron
	cronSpec  string
	batchSize int
}

func NewSweeper(
	cfg *config.SchedulerConfig,
	loc *time.Location,
	lister DueLister,
	executor service.ExecutionService,
	recorder DueRecorder,
	logger *slog.Logger,
) *Sweeper {
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.SkipIfStillRunning(cl)),
	)
	return &Sweeper{
		lister:    lister,
		executor:  executor,
		recorder:  recorder,
		logger:    logger,
		cron:      c,
		cronSpec:  cfg.SweepCronSpec,
		batchSize: cfg.SweepBatchSize,
	}
}

// Start registers the sweep job and blocks until ctx is cancelled. A sweep
// still running when the next tick fires makes that tick a no-op.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cronSpec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Due sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep cron spec %q: %w", s.cronSpec, err)
	}

	s.cron.Start()
	s.logger.Info("Started due sweeper", "cron", s.cronSpec, "batch_size", s.batchSize)

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Due sweeper stopped")
	return nil
}

// RunOnce executes one batch of due schedules concurrently. Each request is
// pinned to the execution count observed here, so a schedule executed by
// someone else in the meantime is skipped rather than advanced twice.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	due, err := s.lister.ListDue(ctx, s.batchSize)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list due schedules: %w", err)
	}
	if s.recorder != nil {
		s.recorder.SetDue(len(due))
	}
	if len(due) == 0 {
		s.logger.Debug("No due schedules")
		return Result{}, nil
	}

	correlationID := "sweep-" + uuid.NewString()
	logger := s.logger.With("correlation_id", correlationID)
	logger.Info("Sweeping due schedules", "count", len(due))

	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	for _, sp := range due {
		expected := sp.ExecutionCount
		request := &shared.ExecutionRequest{
			RequestID:              uuid.New(),
			ScheduledPaymentID:     sp.ID,
			ExpectedExecutionCount: &expected,
			Trigger:                shared.ExecutionTriggerSweep,
			CorrelationID:          correlationID,
			Timestamp:              time.Now().UTC(),
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.executor.ExecuteSchedule(ctx, request); err != nil {
				failed.Add(1)
				logger.Error("Sweep execution failed", "schedule_id", request.ScheduledPaymentID.String(), "error", err)
			}
		}()
	}
	wg.Wait()

	result := Result{Due: len(due), Failed: int(failed.Load())}
	logger.Info("Sweep finished", "due", result.Due, "failed", result.Failed)
	return result, nil
}

// cronLogger routes cron's own logging into slog
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
