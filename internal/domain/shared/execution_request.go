package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTrigger  = errors.New("invalid execution trigger")
	ErrAmountPrecision = errors.New("amount has more decimal places than the currency allows")
)

// ExecutionTrigger identifies what asked for an execution
type ExecutionTrigger string

const (
	ExecutionTriggerManual ExecutionTrigger = "MANUAL"
	ExecutionTriggerSweep  ExecutionTrigger = "SWEEP"
)

// Valid reports whether t is a known trigger
func (t ExecutionTrigger) Valid() bool {
	return t == ExecutionTriggerManual || t == ExecutionTriggerSweep
}

// ExecutionRequest defines a Kafka message asking the executor to run the due
// occurrence of a scheduled payment
type ExecutionRequest struct {
	RequestID          uuid.UUID `json:"request_id"`
	ScheduledPaymentID uuid.UUID `json:"scheduled_payment_id"`

	// ExpectedExecutionCount pins the request to one occurrence so that a
	// redelivered or duplicated request cannot execute the next one.
	ExpectedExecutionCount *int `json:"expected_execution_count,omitempty"`

	Trigger       ExecutionTrigger `json:"trigger"`
	RequestedBy   string           `json:"requested_by,omitempty"`
	CorrelationID string           `json:"correlation_id"`
	Timestamp     time.Time        `json:"timestamp"`
}
