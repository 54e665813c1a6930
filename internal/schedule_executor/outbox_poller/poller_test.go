package outbox_poller

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vendor-payment-scheduler/internal/config"
	"github.com/vendor-payment-scheduler/internal/domain/outbox"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

func newTestPoller(outboxRepo *MockOutboxRepo, publisher *MockHistoryPublisher, recorder RelayRecorder) *Poller {
	cfg := &config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}
	return NewPoller(cfg, outboxRepo, publisher, recorder, slog.Default())
}

func TestPoller_ProcessPending(t *testing.T) {
	ok, _ := newOutboxMessage(t, 1, 0)
	retrying, _ := newOutboxMessage(t, 2, 0)
	exhausted, _ := newOutboxMessage(t, 3, 2)

	outboxRepo := &MockOutboxRepo{}
	publisher := &MockHistoryPublisher{}
	recorder := &countingRecorder{}

	outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{ok, retrying, exhausted}, nil).Once()
	publisher.On("PublishToHistory", mock.Anything, ok).Return(nil).Once()
	publisher.On("PublishToHistory", mock.Anything, retrying).Return(errors.New("mongo unavailable")).Once()
	publisher.On("PublishToHistory", mock.Anything, exhausted).Return(errors.New("mongo unavailable")).Once()
	outboxRepo.On("IncrementAttempts", mock.Anything, int64(2)).Return(nil).Once()
	outboxRepo.On("IncrementAttempts", mock.Anything, int64(3)).Return(nil).Once()
	outboxRepo.On("UpdateStatus", mock.Anything, int64(3), shared.OutboxStatusFailedToPublish).Return(nil).Once()

	err := newTestPoller(outboxRepo, publisher, recorder).ProcessPending(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, recorder.successes)
	assert.Equal(t, 2, recorder.failures)
	outboxRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
	outboxRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, int64(2), mock.Anything)
}

func TestPoller_ProcessPending_IncrementFailureSkipsStatus(t *testing.T) {
	msg, _ := newOutboxMessage(t, 5, 2)

	outboxRepo := &MockOutboxRepo{}
	publisher := &MockHistoryPublisher{}
	outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{msg}, nil).Once()
	publisher.On("PublishToHistory", mock.Anything, msg).Return(errors.New("mongo unavailable")).Once()
	outboxRepo.On("IncrementAttempts", mock.Anything, int64(5)).Return(errors.New("db error")).Once()

	err := newTestPoller(outboxRepo, publisher, nil).ProcessPending(context.Background())

	assert.NoError(t, err)
	outboxRepo.AssertExpectations(t)
	outboxRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestPoller_ProcessPending_FetchError(t *testing.T) {
	outboxRepo := &MockOutboxRepo{}
	publisher := &MockHistoryPublisher{}
	outboxRepo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db error")).Once()

	err := newTestPoller(outboxRepo, publisher, nil).ProcessPending(context.Background())

	assert.Error(t, err)
	publisher.AssertNotCalled(t, "PublishToHistory", mock.Anything, mock.Anything)
}

func TestPoller_StartStopsOnCancel(t *testing.T) {
	outboxRepo := &MockOutboxRepo{}
	publisher := &MockHistoryPublisher{}
	outboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestPoller(outboxRepo, publisher, nil).Start(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
	outboxRepo.AssertCalled(t, "GetPending", mock.Anything, 10)
}
