package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vendor-payment-scheduler/internal/config"
	"github.com/vendor-payment-scheduler/internal/domain/outbox"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// RelayRecorder receives the outcome of every relay attempt
type RelayRecorder interface {
	RecordRelay(success bool)
}

// Poller relays pending outbox messages into the payment history
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        HistoryPublisher
	recorder         RelayRecorder
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher HistoryPublisher,
	recorder RelayRecorder,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		recorder:         recorder,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.ProcessPending(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

// ProcessPending relays one batch of pending messages. A message that keeps
// failing is marked FAILED_TO_PUBLISH once it reaches the retry limit.
func (p *Poller) ProcessPending(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		logger := p.logger.With("outbox_id", msg.ID, "payment_id", msg.PaymentID)

		if err := p.publisher.PublishToHistory(ctx, msg); err != nil {
			p.record(false)
			logger.Error("Failed to relay outbox message", "current_attempts", msg.Attempts, "error", err)

			if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
				logger.Error("Failed to increment attempts for outbox message", "error", errInc)
				continue
			}

			if msg.Attempts+1 >= p.maxRetryAttempts {
				logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH", "attempts_made", msg.Attempts+1)
				if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
					logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH after max retries", "error", errUpdate)
				}
			}
			continue
		}
		p.record(true)
	}
	return nil
}

func (p *Poller) record(success bool) {
	if p.recorder != nil {
		p.recorder.RecordRelay(success)
	}
}
