package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vendor-payment-scheduler/internal/domain/history"
	"github.com/vendor-payment-scheduler/internal/domain/outbox"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// HistoryPublisher publishes outbox messages to the payment history
type HistoryPublisher interface {
	PublishToHistory(ctx context.Context, message *outbox.Message) error
}

// HistoryPublisherImpl implements HistoryPublisher
type HistoryPublisherImpl struct {
	outboxRepo  outbox.Repository
	historyRepo history.Repository
	logger      *slog.Logger
}

func NewHistoryPublisher(
	outboxRepo outbox.Repository,
	historyRepo history.Repository,
	logger *slog.Logger,
) HistoryPublisher {
	return &HistoryPublisherImpl{
		outboxRepo:  outboxRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// PublishToHistory writes the message's record to the history store and marks
// the message as processed. A record that already exists counts as written.
func (p *HistoryPublisherImpl) PublishToHistory(ctx context.Context, message *outbox.Message) error {
	record, err := message.HistoryRecord()
	if err != nil {
		p.logger.Error("Failed to unmarshal history record from outbox payload",
			"outbox_id", message.ID, "payment_id", message.PaymentID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if record.CorrelationID != "" {
		logger = p.logger.With("correlation_id", record.CorrelationID)
	}

	now := time.Now().UTC()
	record.RecordedAt = &now

	err = p.historyRepo.Create(ctx, record)
	switch {
	case errors.Is(err, history.ErrDuplicateRecord{}):
		logger.Info("History record already exists", "payment_id", record.PaymentID)
	case err != nil:
		logger.Error("Failed to create history record in MongoDB", "payment_id", record.PaymentID, "error", err)
		return fmt.Errorf("failed to create history record %s: %w", record.PaymentID, err)
	default:
		logger.Debug("Created history record", "payment_id", record.PaymentID, "occurrence", record.OccurrenceNumber)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "payment_id", message.PaymentID, "error", err,
		)
		return fmt.Errorf("history write for %s OK, but failed to mark outbox %d as PROCESSED: %w", message.PaymentID, message.ID, err)
	}

	logger.Info("Outbox message relayed to payment history", "outbox_id", message.ID, "payment_id", message.PaymentID)
	return nil
}
