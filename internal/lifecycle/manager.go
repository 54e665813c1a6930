// Package lifecycle persists the transitions of the schedule state machine.
//
// The Manager reads a schedule, applies the transition to a copy and writes
// it back with a version check, so two callers racing on the same schedule
// never both commit. Execute writes the payment, the schedule and the outbox
// message in one database transaction.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vendor-payment-scheduler/internal/domain/history"
	"github.com/vendor-payment-scheduler/internal/domain/outbox"
	"github.com/vendor-payment-scheduler/internal/domain/payment"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// TxRunner runs fn inside a database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Recorder receives lifecycle events for metrics
type Recorder interface {
	ScheduleCreated(recurring bool)
	ScheduleCancelled()
	RecordExecution(result string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ScheduleCreated(bool)                  {}
func (nopRecorder) ScheduleCancelled()                    {}
func (nopRecorder) RecordExecution(string, time.Duration) {}

// ExecuteOptions qualifies an execution request
type ExecuteOptions struct {
	// ExpectedExecutionCount, when set, must equal the stored execution count
	ExpectedExecutionCount *int
	Trigger                shared.ExecutionTrigger
	CorrelationID          string
}

// ExecutionResult is the committed outcome of Execute
type ExecutionResult struct {
	Schedule *schedule.ScheduledPayment
	Payment  *payment.Payment
}

// Manager orchestrates schedule transitions against persistence
type Manager struct {
	txRunner  TxRunner
	schedules schedule.Repository
	payments  payment.Repository
	outbox    outbox.Repository
	clock     Clock
	recorder  Recorder
	timeout   time.Duration
	logger    *slog.Logger
}

// NewManager creates a lifecycle manager. A nil recorder disables metrics and
// a non-positive timeout leaves the caller's deadline in charge.
func NewManager(
	txRunner TxRunner,
	schedules schedule.Repository,
	payments payment.Repository,
	outboxRepo outbox.Repository,
	clock Clock,
	recorder Recorder,
	timeout time.Duration,
	logger *slog.Logger,
) *Manager {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Manager{
		txRunner:  txRunner,
		schedules: schedules,
		payments:  payments,
		outbox:    outboxRepo,
		clock:     clock,
		recorder:  recorder,
		timeout:   timeout,
		logger:    logger,
	}
}

// Now returns the manager's current time
func (m *Manager) Now() time.Time {
	return m.clock.Now()
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

// Create validates input and stores a new pending schedule
func (m *Manager) Create(ctx context.Context, input schedule.CreateInput) (*schedule.ScheduledPayment, error) {
	sp, err := schedule.NewScheduledPayment(input, m.clock.Now())
	if err != nil {
		return nil, err
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	if err := m.schedules.Create(ctx, sp); err != nil {
		return nil, schedule.PersistenceError{Op: "create", Err: err}
	}

	m.recorder.ScheduleCreated(sp.IsRecurring)
	m.logger.Info("Scheduled payment created",
		"schedule_id", sp.ID.String(),
		"recurring", sp.IsRecurring,
		"scheduled_for", sp.ScheduledFor.Format(time.DateOnly),
	)
	return sp, nil
}

// Get returns one schedule
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	return m.load(ctx, "get", id)
}

// List returns a page of schedules and the total number matching filter
func (m *Manager) List(ctx context.Context, filter schedule.ListFilter) ([]*schedule.ScheduledPayment, int64, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	schedules, err := m.schedules.List(ctx, filter)
	if err != nil {
		return nil, 0, schedule.PersistenceError{Op: "list", Err: err}
	}
	total, err := m.schedules.Count(ctx, filter)
	if err != nil {
		return nil, 0, schedule.PersistenceError{Op: "count", Err: err}
	}
	return schedules, total, nil
}

// ListDue returns up to limit schedules due on or before the current date
func (m *Manager) ListDue(ctx context.Context, limit int) ([]*schedule.ScheduledPayment, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	due, err := m.schedules.ListDue(ctx, m.clock.Now(), limit)
	if err != nil {
		return nil, schedule.PersistenceError{Op: "list due", Err: err}
	}
	return due, nil
}

// Payments returns the payments a schedule has produced, oldest first
func (m *Manager) Payments(ctx context.Context, id uuid.UUID) ([]*payment.Payment, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	if _, err := m.load(ctx, "get", id); err != nil {
		return nil, err
	}
	payments, err := m.payments.ListBySchedule(ctx, id)
	if err != nil {
		return nil, schedule.PersistenceError{Op: "list payments", Err: err}
	}
	return payments, nil
}

// Dashboard summarizes every schedule requested by requestedBy, or all
// schedules when requestedBy is empty.
func (m *Manager) Dashboard(ctx context.Context, requestedBy string) (schedule.Summary, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	schedules, err := m.schedules.List(ctx, schedule.ListFilter{RequestedBy: requestedBy})
	if err != nil {
		return schedule.Summary{}, schedule.PersistenceError{Op: "dashboard", Err: err}
	}
	return schedule.Summarize(schedules, m.clock.Now()), nil
}

// Cancel moves a schedule to cancelled. A concurrent transition that commits
// first turns this call into a StateConflict.
func (m *Manager) Cancel(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	current, err := m.load(ctx, "cancel", id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := next.Cancel(m.clock.Now()); err != nil {
		return nil, err
	}

	if err := m.schedules.Update(ctx, next); err != nil {
		if errors.Is(err, schedule.ErrConcurrentModification{}) {
			return nil, schedule.StateConflict{ScheduleID: id, Reason: "schedule was modified concurrently"}
		}
		return nil, schedule.PersistenceError{Op: "cancel", Err: err}
	}

	m.recorder.ScheduleCancelled()
	m.logger.Info("Scheduled payment cancelled", "schedule_id", id.String())
	return next, nil
}

// Execute turns the due occurrence of a schedule into a payment. Either the
// payment, the advanced schedule and the history outbox message all commit,
// or nothing does and the stored schedule is unchanged.
func (m *Manager) Execute(ctx context.Context, id uuid.UUID, opts ExecuteOptions) (result *ExecutionResult, err error) {
	start := time.Now()
	defer func() {
		m.recorder.RecordExecution(executionResult(err), time.Since(start))
	}()

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	logger := m.logger.With("schedule_id", id.String())
	if opts.CorrelationID != "" {
		logger = logger.With("correlation_id", opts.CorrelationID)
	}

	current, err := m.load(ctx, "execute", id)
	if err != nil {
		return nil, err
	}

	if opts.ExpectedExecutionCount != nil && *opts.ExpectedExecutionCount != current.ExecutionCount {
		return nil, schedule.StateConflict{ScheduleID: id, Reason: "occurrence was already executed"}
	}

	next := current.Clone()
	pay, err := next.Execute(m.clock.Now())
	if err != nil {
		return nil, err
	}

	trigger := opts.Trigger
	if trigger == "" {
		trigger = shared.ExecutionTriggerManual
	}
	message, err := outbox.NewMessage(history.NewRecord(pay, trigger, opts.CorrelationID))
	if err != nil {
		return nil, schedule.PersistenceError{Op: "execute", Err: err}
	}

	err = m.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := m.payments.WithTx(tx).Create(ctx, pay); err != nil {
			return err
		}
		if err := m.schedules.WithTx(tx).Update(ctx, next); err != nil {
			return err
		}
		return m.outbox.WithTx(tx).Create(ctx, message)
	})
	if err != nil {
		if errors.Is(err, schedule.ErrConcurrentModification{}) || errors.Is(err, payment.ErrDuplicatePayment{}) {
			logger.Warn("Execution lost a concurrent race", "error", err)
			return nil, schedule.StateConflict{ScheduleID: id, Reason: "occurrence was executed concurrently"}
		}
		logger.Error("Failed to persist execution", "error", err)
		return nil, schedule.PersistenceError{Op: "execute", Err: err}
	}

	logger.Info("Scheduled payment executed",
		"payment_id", pay.ID.String(),
		"occurrence", pay.OccurrenceNumber,
		"exhausted", next.IsExhausted(),
	)
	return &ExecutionResult{Schedule: next, Payment: pay}, nil
}

func (m *Manager) load(ctx context.Context, op string, id uuid.UUID) (*schedule.ScheduledPayment, error) {
	sp, err := m.schedules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, schedule.ErrScheduleNotFound{}) {
			return nil, err
		}
		return nil, schedule.PersistenceError{Op: op, Err: err}
	}
	return sp, nil
}

func executionResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, schedule.StateConflict{}):
		return "conflict"
	case errors.Is(err, schedule.ErrScheduleNotFound{}):
		return "not_found"
	}
	return "error"
}
