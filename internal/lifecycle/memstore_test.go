package lifecycle

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vendor-payment-scheduler/internal/domain/outbox"
	"github.com/vendor-payment-scheduler/internal/domain/payment"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// memStore is an in-memory stand-in for PostgreSQL. ExecuteTx restores the
// previous contents when fn fails, which is enough to observe atomicity.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	schedules map[uuid.UUID]*schedule.ScheduledPayment
	payments  map[uuid.UUID]*payment.Payment
	messages  []*outbox.Message

	errGet           error
	errScheduleWrite error
	errPaymentCreate error
	errOutboxCreate  error
}

func newMemStore() *memStore {
	return &memStore{
		schedules: make(map[uuid.UUID]*schedule.ScheduledPayment),
		payments:  make(map[uuid.UUID]*payment.Payment),
	}
}

func (s *memStore) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	schedules := make(map[uuid.UUID]*schedule.ScheduledPayment, len(s.schedules))
	for id, sp := range s.schedules {
		schedules[id] = sp.Clone()
	}
	payments := make(map[uuid.UUID]*payment.Payment, len(s.payments))
	for id, p := range s.payments {
		payments[id] = p
	}
	messages := slices.Clone(s.messages)
	s.mu.Unlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.schedules, s.payments, s.messages = schedules, payments, messages
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) stored(id uuid.UUID) *schedule.ScheduledPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sp, ok := s.schedules[id]; ok {
		return sp.Clone()
	}
	return nil
}

func (s *memStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

func (s *memStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type memSchedules struct{ s *memStore }

func (r memSchedules) Create(ctx context.Context, sp *schedule.ScheduledPayment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.errScheduleWrite != nil {
		return r.s.errScheduleWrite
	}
	r.s.schedules[sp.ID] = sp.Clone()
	return nil
}

func (r memSchedules) GetByID(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.errGet != nil {
		return nil, r.s.errGet
	}
	sp, ok := r.s.schedules[id]
	if !ok {
		return nil, schedule.ErrScheduleNotFound{ScheduleID: id}
	}
	return sp.Clone(), nil
}

func (r memSchedules) List(ctx context.Context, filter schedule.ListFilter) ([]*schedule.ScheduledPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := make([]*schedule.ScheduledPayment, 0)
	for _, sp := range r.s.schedules {
		if filter.Status != "" && sp.Status != filter.Status {
			continue
		}
		if filter.RequestedBy != "" && sp.RequestedBy != filter.RequestedBy {
			continue
		}
		list = append(list, sp.Clone())
	}
	return list, nil
}

func (r memSchedules) Count(ctx context.Context, filter schedule.ListFilter) (int64, error) {
	list, err := r.List(ctx, filter)
	return int64(len(list)), err
}

func (r memSchedules) ListDue(ctx context.Context, asOf time.Time, limit int) ([]*schedule.ScheduledPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	due := make([]*schedule.ScheduledPayment, 0)
	for _, sp := range r.s.schedules {
		if sp.IsDue(asOf) && len(due) < limit {
			due = append(due, sp.Clone())
		}
	}
	return due, nil
}

func (r memSchedules) Update(ctx context.Context, sp *schedule.ScheduledPayment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.errScheduleWrite != nil {
		return r.s.errScheduleWrite
	}
	stored, ok := r.s.schedules[sp.ID]
	if !ok || stored.Version != sp.Version-1 {
		return schedule.ErrConcurrentModification{ScheduleID: sp.ID}
	}
	r.s.schedules[sp.ID] = sp.Clone()
	return nil
}

func (r memSchedules) WithTx(tx pgx.Tx) schedule.Repository { return r }

type memPayments struct{ s *memStore }

func (r memPayments) Create(ctx context.Context, p *payment.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.errPaymentCreate != nil {
		return r.s.errPaymentCreate
	}
	for _, existing := range r.s.payments {
		if existing.ScheduledPaymentID == p.ScheduledPaymentID && existing.OccurrenceNumber == p.OccurrenceNumber {
			return payment.ErrDuplicatePayment{ScheduledPaymentID: p.ScheduledPaymentID, OccurrenceNumber: p.OccurrenceNumber}
		}
	}
	r.s.payments[p.ID] = p
	return nil
}

func (r memPayments) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound{PaymentID: id}
	}
	return p, nil
}

func (r memPayments) ListBySchedule(ctx context.Context, id uuid.UUID) ([]*payment.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := make([]*payment.Payment, 0)
	for _, p := range r.s.payments {
		if p.ScheduledPaymentID == id {
			list = append(list, p)
		}
	}
	slices.SortFunc(list, func(a, b *payment.Payment) int { return a.OccurrenceNumber - b.OccurrenceNumber })
	return list, nil
}

func (r memPayments) WithTx(tx pgx.Tx) payment.Repository { return r }

type memOutbox struct{ s *memStore }

func (r memOutbox) Create(ctx context.Context, m *outbox.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.errOutboxCreate != nil {
		return r.s.errOutboxCreate
	}
	m.ID = int64(len(r.s.messages) + 1)
	r.s.messages = append(r.s.messages, m)
	return nil
}

func (r memOutbox) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var pending []*outbox.Message
	for _, m := range r.s.messages {
		if m.Status == shared.OutboxStatusPending && len(pending) < limit {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

func (r memOutbox) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return nil
}

func (r memOutbox) IncrementAttempts(ctx context.Context, id int64) error {
	return nil
}

func (r memOutbox) WithTx(tx pgx.Tx) outbox.Repository { return r }

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordedExecution struct {
	result string
}

type fakeRecorder struct {
	mu         sync.Mutex
	created    int
	cancelled  int
	executions []recordedExecution
}

func (r *fakeRecorder) ScheduleCreated(bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
}

func (r *fakeRecorder) ScheduleCancelled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled++
}

func (r *fakeRecorder) RecordExecution(result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executions = append(r.executions, recordedExecution{result: result})
}

func (r *fakeRecorder) results() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.executions))
	for _, e := range r.executions {
		out = append(out, e.result)
	}
	return out
}
