package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/vendor-payment-scheduler/internal/config"
)

// ExecutionRequestProducer publishes execution requests keyed by schedule ID,
// so every request for one schedule lands on the same partition in order.
type ExecutionRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewExecutionRequestProducer creates the producer and ensures its topic exists
func NewExecutionRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ExecutionRequestProducer, error) {
	if cfg.ExecutionTopic == "" {
		return nil, fmt.Errorf("kafka execution topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for execution request producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.ExecutionTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure execution topic %s exists: %w", cfg.ExecutionTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.ExecutionTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.MaxWait,
	}

	return &ExecutionRequestProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.ExecutionTopic,
	}, nil
}

// Publish writes value as JSON. The call returns once the broker has
// acknowledged the message.
func (p *ExecutionRequestProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal execution request: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish execution request",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish execution request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published execution request",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *ExecutionRequestProducer) Close() error {
	p.logger.Info("Closing execution request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
