// Package schedule holds the scheduled payment entity, its recurrence
// projection and the state machine that governs cancellation and execution.
// Everything here is pure: callers pass the current time in and persist the
// resulting state themselves.
package schedule

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vendor-payment-scheduler/internal/domain/payment"
)

// Status defines the lifecycle state of a scheduled payment
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusCancelled:
		return true
	}
	return false
}

// Payload carries the descriptive and monetary fields of a schedule. The
// lifecycle never computes these, it copies them onto each produced payment.
type Payload struct {
	VendorName    string `json:"vendor_name"`
	Category      string `json:"category"`
	Amount        int64  `json:"amount"` // Stored in cents/minor units
	Currency      string `json:"currency"`
	Description   string `json:"description,omitempty"`
	BillReference string `json:"bill_reference,omitempty"`
	RequestedBy   string `json:"requested_by"`
}

// ScheduledPayment represents a future, possibly repeating, payment intent
type ScheduledPayment struct {
	ID                 uuid.UUID  `json:"id"`
	ScheduledFor       time.Time  `json:"scheduled_for"`
	Status             Status     `json:"status"`
	IsRecurring        bool       `json:"is_recurring"`
	RecurrencePattern  Pattern    `json:"recurrence_pattern,omitempty"`
	RecurrenceEndType  EndType    `json:"recurrence_end_type,omitempty"`
	RecurrenceEndAfter *int       `json:"recurrence_end_after,omitempty"`
	RecurrenceEndDate  *time.Time `json:"recurrence_end_date,omitempty"`
	ExecutionCount     int        `json:"execution_count"`
	NextExecution      *time.Time `json:"next_execution,omitempty"`
	LastExecutionDate  *time.Time `json:"last_execution_date,omitempty"`
	ParentPaymentID    *uuid.UUID `json:"parent_payment_id,omitempty"`
	PaymentID          *uuid.UUID `json:"payment_id,omitempty"` // Most recently produced payment
	Payload
	Version     int        `json:"version"` // For optimistic locking
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// CreateInput is the user submission a schedule is created from
type CreateInput struct {
	ScheduledFor       time.Time
	IsRecurring        bool
	RecurrencePattern  Pattern
	RecurrenceEndType  EndType
	RecurrenceEndAfter *int
	RecurrenceEndDate  *time.Time
	ParentPaymentID    *uuid.UUID
	Payload            Payload
}

// NewScheduledPayment validates input and returns a pending schedule with no
// executions. NextExecution stays empty until the first execution.
func NewScheduledPayment(input CreateInput, now time.Time) (*ScheduledPayment, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	sp := &ScheduledPayment{
		ID:              uuid.New(),
		ScheduledFor:    DateOf(input.ScheduledFor),
		Status:          StatusPending,
		IsRecurring:     input.IsRecurring,
		ParentPaymentID: input.ParentPaymentID,
		Payload:         input.Payload,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	sp.Currency = strings.ToUpper(sp.Currency)

	if input.IsRecurring {
		sp.RecurrencePattern = input.RecurrencePattern
		sp.RecurrenceEndType = input.RecurrenceEndType
		switch input.RecurrenceEndType {
		case EndTypeAfter:
			endAfter := *input.RecurrenceEndAfter
			sp.RecurrenceEndAfter = &endAfter
		case EndTypeOn:
			endDate := DateOf(*input.RecurrenceEndDate)
			sp.RecurrenceEndDate = &endDate
		}
	}

	return sp, nil
}

func validateCreateInput(input CreateInput) error {
	if input.ScheduledFor.IsZero() {
		return ValidationError{Field: "scheduled_for", Reason: "is required"}
	}
	if strings.TrimSpace(input.Payload.VendorName) == "" {
		return ValidationError{Field: "vendor_name", Reason: "is required"}
	}
	if input.Payload.Amount <= 0 {
		return ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if len(input.Payload.Currency) != 3 {
		return ValidationError{Field: "currency", Reason: "must be a 3-letter code"}
	}
	if strings.TrimSpace(input.Payload.RequestedBy) == "" {
		return ValidationError{Field: "requested_by", Reason: "is required"}
	}

	if !input.IsRecurring {
		return nil
	}
	if !input.RecurrencePattern.Valid() {
		return ValidationError{Field: "recurrence_pattern", Reason: "is required for recurring schedules"}
	}
	if !input.RecurrenceEndType.Valid() {
		return ValidationError{Field: "recurrence_end_type", Reason: "is required for recurring schedules"}
	}

	switch input.RecurrenceEndType {
	case EndTypeAfter:
		if input.RecurrenceEndAfter == nil || *input.RecurrenceEndAfter < 1 {
			return ValidationError{Field: "recurrence_end_after", Reason: "must be a positive occurrence count"}
		}
	case EndTypeOn:
		if input.RecurrenceEndDate == nil {
			return ValidationError{Field: "recurrence_end_date", Reason: "is required when recurrence ends on a date"}
		}
		if !DateOf(*input.RecurrenceEndDate).After(DateOf(input.ScheduledFor)) {
			return ValidationError{Field: "recurrence_end_date", Reason: "must be after scheduled_for"}
		}
	}
	return nil
}

// Recurrence returns the projection parameters of the schedule
func (sp *ScheduledPayment) Recurrence() Recurrence {
	r := Recurrence{
		ScheduledFor: sp.ScheduledFor,
		IsRecurring:  sp.IsRecurring,
		Pattern:      sp.RecurrencePattern,
		EndType:      sp.RecurrenceEndType,
		EndDate:      sp.RecurrenceEndDate,
	}
	if sp.RecurrenceEndAfter != nil {
		r.EndAfter = *sp.RecurrenceEndAfter
	}
	return r
}

// DueDate returns the date of the next occurrence awaiting execution.
// It is ScheduledFor before the first execution and NextExecution afterwards.
func (sp *ScheduledPayment) DueDate() (time.Time, bool) {
	if sp.Status == StatusCancelled {
		return time.Time{}, false
	}
	if sp.ExecutionCount == 0 {
		return sp.ScheduledFor, true
	}
	if sp.NextExecution != nil {
		return *sp.NextExecution, true
	}
	return time.Time{}, false
}

// IsExhausted reports whether every occurrence has executed
func (sp *ScheduledPayment) IsExhausted() bool {
	return sp.Status == StatusProcessed && sp.ExecutionCount > 0 && sp.NextExecution == nil
}

// IsTerminal reports whether no further transition is possible
func (sp *ScheduledPayment) IsTerminal() bool {
	return sp.Status == StatusCancelled || sp.IsExhausted()
}

// IsDue reports whether the next occurrence falls on or before now's date
func (sp *ScheduledPayment) IsDue(now time.Time) bool {
	due, ok := sp.DueDate()
	return ok && !due.After(DateOf(now))
}

// Cancel moves the schedule to cancelled. Cancelling a schedule that is
// already cancelled or exhausted is a StateConflict.
func (sp *ScheduledPayment) Cancel(now time.Time) error {
	if sp.Status == StatusCancelled {
		return StateConflict{ScheduleID: sp.ID, Reason: "schedule is already cancelled"}
	}
	if sp.IsExhausted() {
		return StateConflict{ScheduleID: sp.ID, Reason: "schedule has no remaining occurrences"}
	}

	sp.Status = StatusCancelled
	sp.NextExecution = nil
	sp.CancelledAt = &now
	sp.UpdatedAt = now
	sp.Version++
	return nil
}

// Execute converts the due occurrence into a payment and advances the
// schedule. All checks run before any field is touched, so on error the
// schedule is unchanged.
func (sp *ScheduledPayment) Execute(now time.Time) (*payment.Payment, error) {
	if sp.Status == StatusCancelled {
		return nil, StateConflict{ScheduleID: sp.ID, Reason: "schedule is cancelled"}
	}
	if sp.IsExhausted() {
		return nil, StateConflict{ScheduleID: sp.ID, Reason: "schedule has no remaining occurrences"}
	}
	due, ok := sp.DueDate()
	if !ok {
		return nil, StateConflict{ScheduleID: sp.ID, Reason: "schedule has no due occurrence"}
	}
	if due.After(DateOf(now)) {
		return nil, StateConflict{ScheduleID: sp.ID, Reason: "next occurrence is not due until " + due.Format(time.DateOnly)}
	}

	occurrence := sp.ExecutionCount + 1
	pay := payment.New(payment.Details{
		ScheduledPaymentID: sp.ID,
		ParentPaymentID:    sp.ParentPaymentID,
		OccurrenceNumber:   occurrence,
		OccurrenceDate:     due,
		VendorName:         sp.VendorName,
		Category:           sp.Category,
		Amount:             sp.Amount,
		Currency:           sp.Currency,
		Description:        sp.Description,
		BillReference:      sp.BillReference,
		RequestedBy:        sp.RequestedBy,
	}, now)

	sp.LastExecutionDate = &now
	sp.ExecutionCount = occurrence
	sp.Status = StatusProcessed
	sp.NextExecution = nil
	if sp.IsRecurring {
		if next, ok := NextAfter(sp.Recurrence(), sp.ExecutionCount); ok {
			sp.NextExecution = &next
		}
	}
	sp.PaymentID = &pay.ID
	sp.UpdatedAt = now
	sp.Version++

	return pay, nil
}

// Clone returns a deep copy so a transition can be attempted without touching
// the original.
func (sp *ScheduledPayment) Clone() *ScheduledPayment {
	c := *sp
	c.RecurrenceEndAfter = clonePtr(sp.RecurrenceEndAfter)
	c.RecurrenceEndDate = clonePtr(sp.RecurrenceEndDate)
	c.NextExecution = clonePtr(sp.NextExecution)
	c.LastExecutionDate = clonePtr(sp.LastExecutionDate)
	c.ParentPaymentID = clonePtr(sp.ParentPaymentID)
	c.PaymentID = clonePtr(sp.PaymentID)
	c.CancelledAt = clonePtr(sp.CancelledAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
