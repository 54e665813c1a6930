package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	topicReadAttempts = 5
	topicReadBackoff  = 2 * time.Second
)

// topicAdmin is the subset of *kafka.Conn used to provision topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

// createKafkaTopicIfNotExists creates the topic when no partition can be read
// for it after a few attempts. Zero partition or replication counts default to one.
func createKafkaTopicIfNotExists(conn topicAdmin, topicName string, numPartitions int, replicationFactor int, log *slog.Logger) error {
	return ensureTopic(conn, topicName, numPartitions, replicationFactor, topicReadBackoff, log)
}

func ensureTopic(conn topicAdmin, topicName string, numPartitions, replicationFactor int, backoff time.Duration, log *slog.Logger) error {
	var partitions []kafka.Partition
	var err error

	for attempt := 1; attempt <= topicReadAttempts; attempt++ {
		partitions, err = conn.ReadPartitions(topicName)
		if err == nil && len(partitions) > 0 {
			log.Info("Kafka topic already exists", "topic", topicName, "partitions", len(partitions))
			return nil
		}
		log.Warn("Failed to read topic partitions", "topic", topicName, "attempt", attempt, "error", err)
		if attempt < topicReadAttempts {
			time.Sleep(backoff)
		}
	}

	topicConfig := kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     max(numPartitions, 1),
		ReplicationFactor: max(replicationFactor, 1),
	}
	log.Info("Creating Kafka topic",
		"topic", topicName,
		"partitions", topicConfig.NumPartitions,
		"replication_factor", topicConfig.ReplicationFactor,
	)
	if err := conn.CreateTopics(topicConfig); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topicName, err)
	}
	return nil
}
