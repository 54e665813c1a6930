package payment

import (
	"time"

	"github.com/google/uuid"
)

// Status defines the state of a produced payment record
type Status string

const (
	StatusIssued Status = "issued"
)

// Payment is the concrete record produced when a scheduled occurrence executes
type Payment struct {
	ID                 uuid.UUID  `json:"id"`
	ScheduledPaymentID uuid.UUID  `json:"scheduled_payment_id"`
	ParentPaymentID    *uuid.UUID `json:"parent_payment_id,omitempty"`
	OccurrenceNumber   int        `json:"occurrence_number"`
	OccurrenceDate     time.Time  `json:"occurrence_date"`
	VendorName         string     `json:"vendor_name"`
	Category           string     `json:"category"`
	Amount             int64      `json:"amount"` // Stored in cents/minor units
	Currency           string     `json:"currency"`
	Description        string     `json:"description,omitempty"`
	BillReference      string     `json:"bill_reference,omitempty"`
	RequestedBy        string     `json:"requested_by"`
	Status             Status     `json:"status"`
	IssuedAt           time.Time  `json:"issued_at"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Details holds the fields copied from a schedule onto a new payment
type Details struct {
	ScheduledPaymentID uuid.UUID
	ParentPaymentID    *uuid.UUID
	OccurrenceNumber   int
	OccurrenceDate     time.Time
	VendorName         string
	Category           string
	Amount             int64
	Currency           string
	Description        string
	BillReference      string
	RequestedBy        string
}

// New creates an issued payment stamped with the issuance time
func New(d Details, issuedAt time.Time) *Payment {
	return &Payment{
		ID:                 uuid.New(),
		ScheduledPaymentID: d.ScheduledPaymentID,
		ParentPaymentID:    d.ParentPaymentID,
		OccurrenceNumber:   d.OccurrenceNumber,
		OccurrenceDate:     d.OccurrenceDate,
		VendorName:         d.VendorName,
		Category:           d.Category,
		Amount:             d.Amount,
		Currency:           d.Currency,
		Description:        d.Description,
		BillReference:      d.BillReference,
		RequestedBy:        d.RequestedBy,
		Status:             StatusIssued,
		IssuedAt:           issuedAt,
		CreatedAt:          issuedAt,
	}
}
