package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
	"github.com/vendor-payment-scheduler/internal/platform/messaging/producers"
	"github.com/vendor-payment-scheduler/internal/schedule_executor/service"
)

// ExecutionRequestHandler handles incoming execution request messages from Kafka
type ExecutionRequestHandler struct {
	executionService service.ExecutionService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

func NewExecutionRequestHandler(
	logger *slog.Logger,
	executionService service.ExecutionService,
	producer producers.DeadLetterPublisher,
) *ExecutionRequestHandler {
	return &ExecutionRequestHandler{
		executionService: executionService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage processes Kafka messages. A nil return commits the offset.
func (h *ExecutionRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.ExecutionRequest
	if err := json.Unmarshal(value, &request); err != nil {
		return h.reject(ctx, key, value, "Failed to unmarshal execution request from Kafka message", err)
	}
	if request.ScheduledPaymentID == uuid.Nil {
		return h.reject(ctx, key, value, "Execution request has no scheduled payment id", nil)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received execution request",
		"request_id", request.RequestID.String(),
		"schedule_id", request.ScheduledPaymentID.String(),
		"trigger", string(request.Trigger),
	)

	if err := h.executionService.ExecuteSchedule(ctx, &request); err != nil {
		logger.Error("Failed to execute scheduled payment",
			"schedule_id", request.ScheduledPaymentID.String(),
			"error", err,
		)
		return fmt.Errorf("execution request %s failed: %w", request.RequestID.String(), err)
	}
	return nil
}

// reject sends an unprocessable message to the DLQ. The message is committed
// only when the DLQ accepted it.
func (h *ExecutionRequestHandler) reject(ctx context.Context, key, value []byte, reason string, cause error) error {
	logger := h.logger.With("message_key", string(key))
	dlqReason := reason
	if cause != nil {
		dlqReason = fmt.Sprintf("%s: %s", reason, cause.Error())
		logger.Error(reason, "error", cause)
	} else {
		logger.Error(reason)
	}

	if h.producer != nil {
		dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason)
		if dlqErr == nil {
			logger.Info("Published unprocessable message to DLQ", "reason", dlqReason)
			return nil
		}
		logger.Error("Failed to publish message to DLQ", "dlq_error", dlqErr)
	}

	if cause != nil {
		return fmt.Errorf("failed to unmarshal message value: %w", cause)
	}
	return fmt.Errorf("unprocessable execution request: %s", reason)
}
