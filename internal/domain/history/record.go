package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendor-payment-scheduler/internal/domain/payment"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// Record is the read-model entry for one issued payment
type Record struct {
	PaymentID          uuid.UUID               `json:"payment_id" bson:"payment_id"`
	ScheduledPaymentID uuid.UUID               `json:"scheduled_payment_id" bson:"scheduled_payment_id"`
	ParentPaymentID    *uuid.UUID              `json:"parent_payment_id,omitempty" bson:"parent_payment_id,omitempty"`
	OccurrenceNumber   int                     `json:"occurrence_number" bson:"occurrence_number"`
	OccurrenceDate     time.Time               `json:"occurrence_date" bson:"occurrence_date"`
	VendorName         string                  `json:"vendor_name" bson:"vendor_name"`
	Category           string                  `json:"category" bson:"category"`
	Amount             int64                   `json:"amount" bson:"amount"` // Stored in cents/minor units
	Currency           string                  `json:"currency" bson:"currency"`
	BillReference      string                  `json:"bill_reference,omitempty" bson:"bill_reference,omitempty"`
	RequestedBy        string                  `json:"requested_by" bson:"requested_by"`
	Trigger            shared.ExecutionTrigger `json:"trigger" bson:"trigger"`
	CorrelationID      string                  `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	IssuedAt           time.Time               `json:"issued_at" bson:"issued_at"`
	RecordedAt         *time.Time              `json:"recorded_at,omitempty" bson:"recorded_at,omitempty"`
}

// NewRecord builds a history record from an issued payment
func NewRecord(p *payment.Payment, trigger shared.ExecutionTrigger, correlationID string) *Record {
	return &Record{
		PaymentID:          p.ID,
		ScheduledPaymentID: p.ScheduledPaymentID,
		ParentPaymentID:    p.ParentPaymentID,
		OccurrenceNumber:   p.OccurrenceNumber,
		OccurrenceDate:     p.OccurrenceDate,
		VendorName:         p.VendorName,
		Category:           p.Category,
		Amount:             p.Amount,
		Currency:           p.Currency,
		BillReference:      p.BillReference,
		RequestedBy:        p.RequestedBy,
		Trigger:            trigger,
		CorrelationID:      correlationID,
		IssuedAt:           p.IssuedAt,
	}
}
