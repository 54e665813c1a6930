package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vendor-payment-scheduler/internal/domain/history"
	"github.com/vendor-payment-scheduler/internal/domain/payment"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
)

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) Now() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}

func (m *MockLifecycle) Create(ctx context.Context, input schedule.CreateInput) (*schedule.ScheduledPayment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.ScheduledPayment), args.Error(1)
}

func (m *MockLifecycle) Get(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.ScheduledPayment), args.Error(1)
}

func (m *MockLifecycle) List(ctx context.Context, filter schedule.ListFilter) ([]*schedule.ScheduledPayment, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*schedule.ScheduledPayment), args.Get(1).(int64), args.Error(2)
}

func (m *MockLifecycle) Cancel(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.ScheduledPayment), args.Error(1)
}

func (m *MockLifecycle) Payments(ctx context.Context, id uuid.UUID) ([]*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

func (m *MockLifecycle) Dashboard(ctx context.Context, requestedBy string) (schedule.Summary, error) {
	args := m.Called(ctx, requestedBy)
	return args.Get(0).(schedule.Summary), args.Error(1)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, record *history.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockHistoryRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*history.Record, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.Record), args.Error(1)
}

func (m *MockHistoryRepository) ListBySchedule(ctx context.Context, scheduledPaymentID uuid.UUID, limit, offset int) ([]*history.Record, error) {
	args := m.Called(ctx, scheduledPaymentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Record), args.Error(1)
}

func (m *MockHistoryRepository) CountBySchedule(ctx context.Context, scheduledPaymentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, scheduledPaymentID)
	return args.Get(0).(int64), args.Error(1)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(n int) *int {
	return &n
}
