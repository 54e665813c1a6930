package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendor-payment-scheduler/internal/domain/history"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

func testRecord() *history.Record {
	return &history.Record{
		PaymentID:          uuid.New(),
		ScheduledPaymentID: uuid.New(),
		OccurrenceNumber:   3,
		OccurrenceDate:     time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
		VendorName:         "Acme Supplies",
		Amount:             12550,
		Currency:           "USD",
		RequestedBy:        "user-1",
		Trigger:            shared.ExecutionTriggerManual,
		CorrelationID:      "corr-1",
		IssuedAt:           time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC),
	}
}

func TestNewMessage(t *testing.T) {
	record := testRecord()

	before := time.Now()
	msg, err := NewMessage(record)
	after := time.Now()

	require.NoError(t, err)
	assert.Equal(t, record.PaymentID, msg.PaymentID)
	assert.Equal(t, record.ScheduledPaymentID, msg.ScheduledPaymentID)
	assert.Equal(t, shared.OutboxStatusPending, msg.Status)
	assert.Equal(t, 0, msg.Attempts)
	assert.Nil(t, msg.LastAttemptAt)
	assert.WithinDuration(t, before, msg.CreatedAt, after.Sub(before)+time.Millisecond)

	var decoded history.Record
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, record.PaymentID, decoded.PaymentID)
	assert.Equal(t, record.Amount, decoded.Amount)
}

func TestMessage_StateChanges(t *testing.T) {
	t.Run("IncrementAttempts", func(t *testing.T) {
		msg := &Message{Attempts: 1}
		msg.IncrementAttempts()

		assert.Equal(t, 2, msg.Attempts)
		require.NotNil(t, msg.LastAttemptAt)
	})

	t.Run("MarkAsProcessed", func(t *testing.T) {
		msg := &Message{Status: shared.OutboxStatusPending}
		msg.MarkAsProcessed()

		assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)
		require.NotNil(t, msg.LastAttemptAt)
	})

	t.Run("MarkAsFailed", func(t *testing.T) {
		msg := &Message{Status: shared.OutboxStatusPending}
		msg.MarkAsFailed()

		assert.Equal(t, shared.OutboxStatusFailedToPublish, msg.Status)
		require.NotNil(t, msg.LastAttemptAt)
	})
}

func TestMessage_HistoryRecord(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		record := testRecord()
		msg, err := NewMessage(record)
		require.NoError(t, err)

		decoded, err := msg.HistoryRecord()
		require.NoError(t, err)
		assert.Equal(t, record.PaymentID, decoded.PaymentID)
		assert.Equal(t, record.OccurrenceNumber, decoded.OccurrenceNumber)
		assert.Equal(t, record.Trigger, decoded.Trigger)
		assert.True(t, record.IssuedAt.Equal(decoded.IssuedAt))
	})

	t.Run("CorruptPayload", func(t *testing.T) {
		msg := &Message{Payload: json.RawMessage(`{"payment_id":`)}

		decoded, err := msg.HistoryRecord()
		assert.Error(t, err)
		assert.Nil(t, decoded)
	})
}
