package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vendor-payment-scheduler/internal/domain/history"
	"github.com/vendor-payment-scheduler/internal/domain/payment"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// CreateScheduleRequest represents a request to create a scheduled payment.
// Dates use the YYYY-MM-DD layout and amounts are in minor units.
type CreateScheduleRequest struct {
	ScheduledFor       string `json:"scheduled_for" binding:"required"`
	IsRecurring        bool   `json:"is_recurring"`
	RecurrencePattern  string `json:"recurrence_pattern,omitempty" binding:"omitempty,oneof=weekly monthly quarterly yearly"`
	RecurrenceEndType  string `json:"recurrence_end_type,omitempty" binding:"omitempty,oneof=after on never"`
	RecurrenceEndAfter *int   `json:"recurrence_end_after,omitempty"`
	RecurrenceEndDate  string `json:"recurrence_end_date,omitempty"`
	ParentPaymentID    string `json:"parent_payment_id,omitempty" binding:"omitempty,uuid"`
	VendorName         string `json:"vendor_name" binding:"required"`
	Category           string `json:"category"`
	Amount             int64  `json:"amount" binding:"required,gt=0"`
	Currency           string `json:"currency" binding:"required,len=3"`
	Description        string `json:"description,omitempty"`
	BillReference      string `json:"bill_reference,omitempty"`
}

// PreviewRequest represents a recurrence to project without storing it
type PreviewRequest struct {
	ScheduledFor       string `json:"scheduled_for" binding:"required"`
	RecurrencePattern  string `json:"recurrence_pattern" binding:"required,oneof=weekly monthly quarterly yearly"`
	RecurrenceEndType  string `json:"recurrence_end_type,omitempty" binding:"omitempty,oneof=after on never"`
	RecurrenceEndAfter *int   `json:"recurrence_end_after,omitempty"`
	RecurrenceEndDate  string `json:"recurrence_end_date,omitempty"`
	MaxResults         int    `json:"max_results" binding:"min=0"`
}

// ScheduleResponse represents a scheduled payment in API responses
type ScheduleResponse struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	ScheduledFor       string `json:"scheduled_for"`
	IsRecurring        bool   `json:"is_recurring"`
	RecurrencePattern  string `json:"recurrence_pattern,omitempty"`
	RecurrenceEndType  string `json:"recurrence_end_type,omitempty"`
	RecurrenceEndAfter *int   `json:"recurrence_end_after,omitempty"`
	RecurrenceEndDate  string `json:"recurrence_end_date,omitempty"`
	ExecutionCount     int    `json:"execution_count"`
	NextExecution      string `json:"next_execution,omitempty"`
	DueDate            string `json:"due_date,omitempty"`
	LastExecutionDate  string `json:"last_execution_date,omitempty"`
	ParentPaymentID    string `json:"parent_payment_id,omitempty"`
	PaymentID          string `json:"payment_id,omitempty"`
	VendorName         string `json:"vendor_name"`
	Category           string `json:"category,omitempty"`
	Amount             int64  `json:"amount"`
	AmountDisplay      string `json:"amount_display"`
	Currency           string `json:"currency"`
	Description        string `json:"description,omitempty"`
	BillReference      string `json:"bill_reference,omitempty"`
	RequestedBy        string `json:"requested_by"`
	Version            int    `json:"version"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
	CancelledAt        string `json:"cancelled_at,omitempty"`
}

// PaymentResponse represents an issued payment in API responses
type PaymentResponse struct {
	ID                 string `json:"id"`
	ScheduledPaymentID string `json:"scheduled_payment_id"`
	OccurrenceNumber   int    `json:"occurrence_number"`
	OccurrenceDate     string `json:"occurrence_date"`
	VendorName         string `json:"vendor_name"`
	Amount             int64  `json:"amount"`
	AmountDisplay      string `json:"amount_display"`
	Currency           string `json:"currency"`
	BillReference      string `json:"bill_reference,omitempty"`
	Status             string `json:"status"`
	IssuedAt           string `json:"issued_at"`
}

// HistoryResponse represents a payment history record in API responses
type HistoryResponse struct {
	PaymentID        string `json:"payment_id"`
	OccurrenceNumber int    `json:"occurrence_number"`
	OccurrenceDate   string `json:"occurrence_date"`
	VendorName       string `json:"vendor_name"`
	Amount           int64  `json:"amount"`
	AmountDisplay    string `json:"amount_display"`
	Currency         string `json:"currency"`
	Trigger          string `json:"trigger"`
	RequestedBy      string `json:"requested_by"`
	IssuedAt         string `json:"issued_at"`
	RecordedAt       string `json:"recorded_at,omitempty"`
}

// PreviewResponse represents projected occurrence dates
type PreviewResponse struct {
	Dates                []string `json:"dates"`
	EstimatedOccurrences *int     `json:"estimated_occurrences"`
}

// ExecutionAcceptedResponse is returned when an execution request is queued
type ExecutionAcceptedResponse struct {
	RequestID              string `json:"request_id"`
	ScheduledPaymentID     string `json:"scheduled_payment_id"`
	ExpectedExecutionCount int    `json:"expected_execution_count"`
	Status                 string `json:"status"`
}

// DashboardResponse represents the dashboard counters
type DashboardResponse struct {
	TotalsByStatus   map[string]int `json:"totals_by_status"`
	Total            int            `json:"total"`
	ProcessedToday   int            `json:"processed_today"`
	UpcomingThisWeek int            `json:"upcoming_this_week"`
	DueNow           int            `json:"due_now"`
	ActiveRecurring  int            `json:"active_recurring"`
	PendingAmount    int64          `json:"pending_amount"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// ListSchedulesParams represents the query of the schedule listing
type ListSchedulesParams struct {
	Page        int    `form:"page,default=1" binding:"min=1"`
	PerPage     int    `form:"per_page,default=10" binding:"min=1,max=100"`
	Status      string `form:"status" binding:"omitempty,oneof=pending processed cancelled"`
	RequestedBy string `form:"requested_by"`
}

// OccurrenceParams represents the query of the stored-schedule preview
type OccurrenceParams struct {
	Max int `form:"max,default=5" binding:"min=1"`
}

// parseDate parses a YYYY-MM-DD value, reporting failures against field
func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, schedule.ValidationError{Field: field, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return d, nil
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := parseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// toCreateInput converts the request into a domain input owned by requestedBy
func (r CreateScheduleRequest) toCreateInput(requestedBy string) (schedule.CreateInput, error) {
	scheduledFor, err := parseDate("scheduled_for", r.ScheduledFor)
	if err != nil {
		return schedule.CreateInput{}, err
	}
	endDate, err := parseOptionalDate("recurrence_end_date", r.RecurrenceEndDate)
	if err != nil {
		return schedule.CreateInput{}, err
	}

	input := schedule.CreateInput{
		ScheduledFor:       scheduledFor,
		IsRecurring:        r.IsRecurring,
		RecurrencePattern:  schedule.Pattern(r.RecurrencePattern),
		RecurrenceEndType:  schedule.EndType(r.RecurrenceEndType),
		RecurrenceEndAfter: r.RecurrenceEndAfter,
		RecurrenceEndDate:  endDate,
		Payload: schedule.Payload{
			VendorName:    r.VendorName,
			Category:      r.Category,
			Amount:        r.Amount,
			Currency:      r.Currency,
			Description:   r.Description,
			BillReference: r.BillReference,
			RequestedBy:   requestedBy,
		},
	}
	if r.ParentPaymentID != "" {
		parentID, err := uuid.Parse(r.ParentPaymentID)
		if err != nil {
			return schedule.CreateInput{}, schedule.ValidationError{Field: "parent_payment_id", Reason: "must be a UUID"}
		}
		input.ParentPaymentID = &parentID
	}
	return input, nil
}

// toRecurrence converts the request into projection parameters. The end type
// defaults to never.
func (r PreviewRequest) toRecurrence() (schedule.Recurrence, error) {
	scheduledFor, err := parseDate("scheduled_for", r.ScheduledFor)
	if err != nil {
		return schedule.Recurrence{}, err
	}

	rec := schedule.Recurrence{
		ScheduledFor: scheduledFor,
		IsRecurring:  true,
		Pattern:      schedule.Pattern(r.RecurrencePattern),
		EndType:      schedule.EndType(r.RecurrenceEndType),
	}
	if rec.EndType == "" {
		rec.EndType = schedule.EndTypeNever
	}

	if r.RecurrenceEndAfter != nil {
		rec.EndAfter = *r.RecurrenceEndAfter
	}
	if rec.EndType == schedule.EndTypeOn {
		endDate, err := parseDate("recurrence_end_date", r.RecurrenceEndDate)
		if err != nil {
			return schedule.Recurrence{}, err
		}
		rec.EndDate = &endDate
	}
	if err := rec.Validate(); err != nil {
		return schedule.Recurrence{}, err
	}
	return rec, nil
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatOptionalID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// mapScheduleToResponse maps a scheduled payment to a response DTO
func mapScheduleToResponse(sp *schedule.ScheduledPayment) ScheduleResponse {
	response := ScheduleResponse{
		ID:                 sp.ID.String(),
		Status:             string(sp.Status),
		ScheduledFor:       formatDate(sp.ScheduledFor),
		IsRecurring:        sp.IsRecurring,
		RecurrencePattern:  string(sp.RecurrencePattern),
		RecurrenceEndType:  string(sp.RecurrenceEndType),
		RecurrenceEndAfter: sp.RecurrenceEndAfter,
		RecurrenceEndDate:  formatOptionalDate(sp.RecurrenceEndDate),
		ExecutionCount:     sp.ExecutionCount,
		NextExecution:      formatOptionalDate(sp.NextExecution),
		LastExecutionDate:  formatOptionalTime(sp.LastExecutionDate),
		ParentPaymentID:    formatOptionalID(sp.ParentPaymentID),
		PaymentID:          formatOptionalID(sp.PaymentID),
		VendorName:         sp.VendorName,
		Category:           sp.Category,
		Amount:             sp.Amount,
		AmountDisplay:      shared.FormatAmount(sp.Amount, sp.Currency),
		Currency:           sp.Currency,
		Description:        sp.Description,
		BillReference:      sp.BillReference,
		RequestedBy:        sp.RequestedBy,
		Version:            sp.Version,
		CreatedAt:          sp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          sp.UpdatedAt.Format(time.RFC3339),
		CancelledAt:        formatOptionalTime(sp.CancelledAt),
	}
	if !sp.IsTerminal() {
		if due, ok := sp.DueDate(); ok {
			response.DueDate = formatDate(due)
		}
	}
	return response
}

func mapPaymentToResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 p.ID.String(),
		ScheduledPaymentID: p.ScheduledPaymentID.String(),
		OccurrenceNumber:   p.OccurrenceNumber,
		OccurrenceDate:     formatDate(p.OccurrenceDate),
		VendorName:         p.VendorName,
		Amount:             p.Amount,
		AmountDisplay:      shared.FormatAmount(p.Amount, p.Currency),
		Currency:           p.Currency,
		BillReference:      p.BillReference,
		Status:             string(p.Status),
		IssuedAt:           p.IssuedAt.Format(time.RFC3339),
	}
}

func mapHistoryToResponse(r *history.Record) HistoryResponse {
	return HistoryResponse{
		PaymentID:        r.PaymentID.String(),
		OccurrenceNumber: r.OccurrenceNumber,
		OccurrenceDate:   formatDate(r.OccurrenceDate),
		VendorName:       r.VendorName,
		Amount:           r.Amount,
		AmountDisplay:    shared.FormatAmount(r.Amount, r.Currency),
		Currency:         r.Currency,
		Trigger:          string(r.Trigger),
		RequestedBy:      r.RequestedBy,
		IssuedAt:         r.IssuedAt.Format(time.RFC3339),
		RecordedAt:       formatOptionalTime(r.RecordedAt),
	}
}

func mapPreviewToResponse(dates []time.Time, estimated *int) PreviewResponse {
	response := PreviewResponse{
		Dates:                make([]string, 0, len(dates)),
		EstimatedOccurrences: estimated,
	}
	for _, d := range dates {
		response.Dates = append(response.Dates, formatDate(d))
	}
	return response
}

func mapSummaryToResponse(s schedule.Summary) DashboardResponse {
	totals := make(map[string]int, len(s.TotalsByStatus))
	for status, n := range s.TotalsByStatus {
		totals[string(status)] = n
	}
	return DashboardResponse{
		TotalsByStatus:   totals,
		Total:            s.Total,
		ProcessedToday:   s.ProcessedToday,
		UpcomingThisWeek: s.UpcomingThisWeek,
		DueNow:           s.DueNow,
		ActiveRecurring:  s.ActiveRecurring,
		PendingAmount:    s.PendingAmount,
	}
}
