// Package mongo provides the MongoDB read model of issued payments.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vendor-payment-scheduler/internal/domain/history"
)

var _ history.Repository = (*HistoryRepository)(nil)

// HistoryRepository implements the history.Repository interface for MongoDB
type HistoryRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewHistoryRepository creates a new MongoDB payment history repository
func NewHistoryRepository(logger *slog.Logger, db *mongo.Database, collectionName string) *HistoryRepository {
	return &HistoryRepository{
		collection: db.Collection(collectionName),
		logger:     logger,
	}
}

// EnsureIndexes creates the unique payment index that makes Create idempotent
// and the per-schedule listing index.
func (r *HistoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "payment_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_payment_id"),
		},
		{
			Keys:    bson.D{{Key: "scheduled_payment_id", Value: 1}, {Key: "occurrence_number", Value: -1}},
			Options: options.Index().SetName("schedule_occurrence"),
		},
	})
	if err != nil {
		r.logger.Error("Failed to create payment history indexes", "error", err)
		return fmt.Errorf("failed to create payment history indexes: %w", err)
	}
	return nil
}

// Create stores a new history record.
// Returns ErrDuplicateRecord if the payment was already recorded.
func (r *HistoryRepository) Create(ctx context.Context, record *history.Record) error {
	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return history.ErrDuplicateRecord{PaymentID: record.PaymentID}
		}
		r.logger.Error("Failed to create payment history record",
			"payment_id", record.PaymentID.String(),
			"error", err)
		return fmt.Errorf("failed to create payment history record: %w", err)
	}

	return nil
}

// GetByPaymentID retrieves the history record of one payment.
// Returns ErrRecordNotFound if no record exists.
func (r *HistoryRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*history.Record, error) {
	var record history.Record
	err := r.collection.FindOne(ctx, bson.M{"payment_id": paymentID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, history.ErrRecordNotFound{PaymentID: paymentID}
		}
		r.logger.Error("Failed to get payment history record",
			"payment_id", paymentID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get payment history record: %w", err)
	}

	return &record, nil
}

// ListBySchedule retrieves paginated records of a schedule, latest occurrence first.
func (r *HistoryRepository) ListBySchedule(ctx context.Context, scheduledPaymentID uuid.UUID, limit, offset int) ([]*history.Record, error) {
	filter := bson.M{"scheduled_payment_id": scheduledPaymentID}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurrence_number", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list payment history",
			"scheduled_payment_id", scheduledPaymentID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list payment history: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*history.Record, 0)
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode payment history",
			"scheduled_payment_id", scheduledPaymentID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode payment history: %w", err)
	}

	return records, nil
}

// CountBySchedule counts the history records of a schedule
func (r *HistoryRepository) CountBySchedule(ctx context.Context, scheduledPaymentID uuid.UUID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"scheduled_payment_id": scheduledPaymentID})
	if err != nil {
		r.logger.Error("Failed to count payment history",
			"scheduled_payment_id", scheduledPaymentID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count payment history: %w", err)
	}

	return count, nil
}
