package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vendor-payment-scheduler/internal/domain/history"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// Message carries an issued payment's history record from the execution
// transaction to the MongoDB read model
type Message struct {
	ID                 int64               `json:"id"`
	PaymentID          uuid.UUID           `json:"payment_id"`
	ScheduledPaymentID uuid.UUID           `json:"scheduled_payment_id"`
	Payload            json.RawMessage     `json:"payload"`
	Status             shared.OutboxStatus `json:"status"`
	Attempts           int                 `json:"attempts"`
	CreatedAt          time.Time           `json:"created_at"`
	LastAttemptAt      *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(record *history.Record) (*Message, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	return &Message{
		PaymentID:          record.PaymentID,
		ScheduledPaymentID: record.ScheduledPaymentID,
		Payload:            payload,
		Status:             shared.OutboxStatusPending,
		CreatedAt:          time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// HistoryRecord decodes the history record from the payload
func (m *Message) HistoryRecord() (*history.Record, error) {
	var record history.Record
	if err := json.Unmarshal(m.Payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
