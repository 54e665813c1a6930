package handler

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vendor-payment-scheduler/internal/api_gateway/middleware"
	"github.com/vendor-payment-scheduler/internal/api_gateway/service"
	"github.com/vendor-payment-scheduler/internal/domain/history"
	"github.com/vendor-payment-scheduler/internal/domain/payment"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// PaginatedResponse is a generic version of Response for testing paginated data
type PaginatedResponse[T any] struct {
	Data          []T        `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

// TypedResponse is a generic version of Response for testing single payloads
type TypedResponse[T any] struct {
	Data          T          `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) CreateSchedule(ctx context.Context, input schedule.CreateInput) (*schedule.ScheduledPayment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.ScheduledPayment), args.Error(1)
}

func (m *MockScheduleService) GetSchedule(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.ScheduledPayment), args.Error(1)
}

func (m *MockScheduleService) ListSchedules(ctx context.Context, filter schedule.ListFilter) ([]*schedule.ScheduledPayment, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*schedule.ScheduledPayment), args.Get(1).(int64), args.Error(2)
}

func (m *MockScheduleService) CancelSchedule(ctx context.Context, id uuid.UUID) (*schedule.ScheduledPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.ScheduledPayment), args.Error(1)
}

func (m *MockScheduleService) ListPayments(ctx context.Context, id uuid.UUID) ([]*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

func (m *MockScheduleService) PreviewSchedule(ctx context.Context, id uuid.UUID, maxResults int) (*service.Preview, error) {
	args := m.Called(ctx, id, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Preview), args.Error(1)
}

func (m *MockScheduleService) Dashboard(ctx context.Context, requestedBy string) (schedule.Summary, error) {
	args := m.Called(ctx, requestedBy)
	return args.Get(0).(schedule.Summary), args.Error(1)
}

type MockExecutionService struct {
	mock.Mock
}

func (m *MockExecutionService) RequestExecution(ctx context.Context, request *shared.ExecutionRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockExecutionService) GetHistory(ctx context.Context, scheduleID uuid.UUID, page, perPage int) ([]*history.Record, int64, error) {
	args := m.Called(ctx, scheduleID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*history.Record), args.Get(1).(int64), args.Error(2)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// newTestRouter returns a router with the identity and correlation middleware
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.Identity())
	return router
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleSchedule() *schedule.ScheduledPayment {
	now := time.Date(2025, time.January, 20, 10, 0, 0, 0, time.UTC)
	endAfter := 12
	return &schedule.ScheduledPayment{
		ID:                 uuid.New(),
		ScheduledFor:       date(2025, time.January, 31),
		Status:             schedule.StatusPending,
		IsRecurring:        true,
		RecurrencePattern:  schedule.PatternMonthly,
		RecurrenceEndType:  schedule.EndTypeAfter,
		RecurrenceEndAfter: &endAfter,
		Payload: schedule.Payload{
			VendorName:  "Acme Supplies",
			Category:    "office",
			Amount:      12550,
			Currency:    "USD",
			RequestedBy: "user-1",
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func paymentsFor(sp *schedule.ScheduledPayment, issuedAt time.Time) []*payment.Payment {
	return []*payment.Payment{payment.New(payment.Details{
		ScheduledPaymentID: sp.ID,
		OccurrenceNumber:   1,
		OccurrenceDate:     sp.ScheduledFor,
		VendorName:         sp.VendorName,
		Category:           sp.Category,
		Amount:             sp.Amount,
		Currency:           sp.Currency,
		RequestedBy:        sp.RequestedBy,
	}, issuedAt)}
}
