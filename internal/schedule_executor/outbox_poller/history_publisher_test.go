package outbox_poller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vendor-payment-scheduler/internal/domain/history"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

func TestHistoryPublisher_PublishToHistory(t *testing.T) {
	message, record := newOutboxMessage(t, 1, 0)
	matchesRecord := mock.MatchedBy(func(r *history.Record) bool {
		return r.PaymentID == record.PaymentID && r.RecordedAt != nil && r.Amount == record.Amount
	})

	tests := []struct {
		name        string
		setupMocks  func(outboxRepo *MockOutboxRepo, historyRepo *MockHistoryRepo)
		expectError bool
	}{
		{
			name: "new record",
			setupMocks: func(outboxRepo *MockOutboxRepo, historyRepo *MockHistoryRepo) {
				historyRepo.On("Create", mock.Anything, matchesRecord).Return(nil).Once()
				outboxRepo.On("UpdateStatus", mock.Anything, int64(1), shared.OutboxStatusProcessed).Return(nil).Once()
			},
		},
		{
			name: "record already relayed",
			setupMocks: func(outboxRepo *MockOutboxRepo, historyRepo *MockHistoryRepo) {
				historyRepo.On("Create", mock.Anything, matchesRecord).Return(history.ErrDuplicateRecord{PaymentID: record.PaymentID}).Once()
				outboxRepo.On("UpdateStatus", mock.Anything, int64(1), shared.OutboxStatusProcessed).Return(nil).Once()
			},
		},
		{
			name: "history write fails",
			setupMocks: func(outboxRepo *MockOutboxRepo, historyRepo *MockHistoryRepo) {
				historyRepo.On("Create", mock.Anything, matchesRecord).Return(errors.New("mongo unavailable")).Once()
			},
			expectError: true,
		},
		{
			name: "status update fails",
			setupMocks: func(outboxRepo *MockOutboxRepo, historyRepo *MockHistoryRepo) {
				historyRepo.On("Create", mock.Anything, matchesRecord).Return(nil).Once()
				outboxRepo.On("UpdateStatus", mock.Anything, int64(1), shared.OutboxStatusProcessed).Return(errors.New("db error")).Once()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outboxRepo := &MockOutboxRepo{}
			historyRepo := &MockHistoryRepo{}
			tt.setupMocks(outboxRepo, historyRepo)

			publisher := NewHistoryPublisher(outboxRepo, historyRepo, slog.Default())
			err := publisher.PublishToHistory(context.Background(), message)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			outboxRepo.AssertExpectations(t)
			historyRepo.AssertExpectations(t)
		})
	}
}

func TestHistoryPublisher_InvalidPayload(t *testing.T) {
	message, _ := newOutboxMessage(t, 7, 0)
	message.Payload = json.RawMessage(`{"payment_id": 42}`)

	outboxRepo := &MockOutboxRepo{}
	historyRepo := &MockHistoryRepo{}
	outboxRepo.On("UpdateStatus", mock.Anything, int64(7), shared.OutboxStatusFailedToPublish).Return(nil).Once()

	publisher := NewHistoryPublisher(outboxRepo, historyRepo, slog.Default())
	err := publisher.PublishToHistory(context.Background(), message)

	assert.Error(t, err)
	outboxRepo.AssertExpectations(t)
	historyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
