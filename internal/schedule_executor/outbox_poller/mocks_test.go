package outbox_poller

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vendor-payment-scheduler/internal/domain/history"
	"github.com/vendor-payment-scheduler/internal/domain/outbox"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

// MockHistoryRepo for testing
type MockHistoryRepo struct {
	mock.Mock
}

func (m *MockHistoryRepo) Create(ctx context.Context, record *history.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockHistoryRepo) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*history.Record, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.Record), args.Error(1)
}

func (m *MockHistoryRepo) ListBySchedule(ctx context.Context, scheduledPaymentID uuid.UUID, limit, offset int) ([]*history.Record, error) {
	args := m.Called(ctx, scheduledPaymentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Record), args.Error(1)
}

func (m *MockHistoryRepo) CountBySchedule(ctx context.Context, scheduledPaymentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, scheduledPaymentID)
	return args.Get(0).(int64), args.Error(1)
}

// MockHistoryPublisher for testing
type MockHistoryPublisher struct {
	mock.Mock
}

func (m *MockHistoryPublisher) PublishToHistory(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type countingRecorder struct {
	successes int
	failures  int
}

func (r *countingRecorder) RecordRelay(success bool) {
	if success {
		r.successes++
		return
	}
	r.failures++
}

func newOutboxMessage(t *testing.T, id int64, attempts int) (*outbox.Message, *history.Record) {
	t.Helper()
	record := &history.Record{
		PaymentID:          uuid.New(),
		ScheduledPaymentID: uuid.New(),
		OccurrenceNumber:   1,
		OccurrenceDate:     time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		VendorName:         "Acme Supplies",
		Amount:             12500,
		Currency:           "USD",
		RequestedBy:        "user-1",
		Trigger:            shared.ExecutionTriggerSweep,
		CorrelationID:      "corr1",
		IssuedAt:           time.Now().UTC(),
	}
	payload, err := json.Marshal(record)
	require.NoError(t, err)

	return &outbox.Message{
		ID:                 id,
		PaymentID:          record.PaymentID,
		ScheduledPaymentID: record.ScheduledPaymentID,
		Payload:            payload,
		Status:             shared.OutboxStatusPending,
		Attempts:           attempts,
		CreatedAt:          time.Now(),
	}, record
}
