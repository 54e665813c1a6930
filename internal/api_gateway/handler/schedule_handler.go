package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vendor-payment-scheduler/internal/api_gateway/middleware"
	"github.com/vendor-payment-scheduler/internal/api_gateway/service"
	"github.com/vendor-payment-scheduler/internal/domain/schedule"
)

// ScheduleHandler handles HTTP requests for scheduled payment operations
type ScheduleHandler struct {
	scheduleService service.ScheduleService
	previewService  service.PreviewService
	previewMax      int
	logger          *slog.Logger
}

// NewScheduleHandler creates a new schedule handler. previewMax caps the
// number of dates any preview returns.
func NewScheduleHandler(
	logger *slog.Logger,
	scheduleService service.ScheduleService,
	previewService service.PreviewService,
	previewMax int,
) *ScheduleHandler {
	if previewMax < 1 {
		previewMax = schedule.DefaultPreviewResults
	}
	return &ScheduleHandler{
		scheduleService: scheduleService,
		previewService:  previewService,
		previewMax:      previewMax,
		logger:          logger,
	}
}

// Create stores a new scheduled payment owned by the requesting user
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	input, err := req.toCreateInput(middleware.GetUserID(c))
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	sp, err := h.scheduleService.CreateSchedule(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapScheduleToResponse(sp))
}

// GetByID retrieves a scheduled payment, returns 404 if not found
func (h *ScheduleHandler) GetByID(c *gin.Context) {
	id, ok := parseScheduleID(c, h.logger)
	if !ok {
		return
	}

	sp, err := h.scheduleService.GetSchedule(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapScheduleToResponse(sp))
}

// List retrieves a page of scheduled payments, newest first
func (h *ScheduleHandler) List(c *gin.Context) {
	var params ListSchedulesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Warn("Invalid list parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	filter := schedule.ListFilter{
		Status:      schedule.Status(params.Status),
		RequestedBy: params.RequestedBy,
		Limit:       params.PerPage,
		Offset:      (params.Page - 1) * params.PerPage,
	}

	schedules, total, err := h.scheduleService.ListSchedules(c.Request.Context(), filter)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	responses := make([]ScheduleResponse, 0, len(schedules))
	for _, sp := range schedules {
		responses = append(responses, mapScheduleToResponse(sp))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.PerPage, int(total))
}

// Cancel cancels a scheduled payment, returns 409 if it is already terminal
func (h *ScheduleHandler) Cancel(c *gin.Context) {
	id, ok := parseScheduleID(c, h.logger)
	if !ok {
		return
	}

	sp, err := h.scheduleService.CancelSchedule(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	h.logger.Info("Scheduled payment cancelled",
		"schedule_id", id.String(),
		"user_id", middleware.GetUserID(c),
		"correlation_id", middleware.GetCorrelationID(c),
	)
	RespondOK(c, mapScheduleToResponse(sp))
}

// Payments lists the payments a schedule has produced
func (h *ScheduleHandler) Payments(c *gin.Context) {
	id, ok := parseScheduleID(c, h.logger)
	if !ok {
		return
	}

	payments, err := h.scheduleService.ListPayments(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, mapPaymentToResponse(p))
	}
	RespondOK(c, responses)
}

// Occurrences previews the upcoming occurrences of a stored schedule
func (h *ScheduleHandler) Occurrences(c *gin.Context) {
	id, ok := parseScheduleID(c, h.logger)
	if !ok {
		return
	}

	var params OccurrenceParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	preview, err := h.scheduleService.PreviewSchedule(c.Request.Context(), id, min(params.Max, h.previewMax))
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapPreviewToResponse(preview.Dates, preview.EstimatedOccurrences))
}

// Preview projects a recurrence that is not stored
func (h *ScheduleHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rec, err := req.toRecurrence()
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	maxResults := req.MaxResults
	if maxResults < 1 {
		maxResults = schedule.DefaultPreviewResults
	}
	preview := h.previewService.Preview(rec, min(maxResults, h.previewMax))

	RespondOK(c, mapPreviewToResponse(preview.Dates, preview.EstimatedOccurrences))
}

// Dashboard summarizes the requesting user's schedules, or all schedules for
// anonymous callers
func (h *ScheduleHandler) Dashboard(c *gin.Context) {
	summary, err := h.scheduleService.Dashboard(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapSummaryToResponse(summary))
}

// parseScheduleID reads the :id path parameter, responding 400 when it is malformed
func parseScheduleID(c *gin.Context, logger *slog.Logger) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		logger.Warn("Invalid scheduled payment ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid scheduled payment ID")
		return uuid.Nil, false
	}
	return id, true
}
