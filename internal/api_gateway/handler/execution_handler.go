package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vendor-payment-scheduler/internal/api_gateway/middleware"
	"github.com/vendor-payment-scheduler/internal/api_gateway/service"
	"github.com/vendor-payment-scheduler/internal/domain/shared"
)

// ExecutionHandler handles execution requests and payment history
type ExecutionHandler struct {
	executionService service.ExecutionService
	logger           *slog.Logger
}

func NewExecutionHandler(logger *slog.Logger, executionService service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{
		executionService: executionService,
		logger:           logger,
	}
}

// Execute queues execution of the schedule's due occurrence. The executor
// applies it asynchronously, so the response is 202 Accepted.
func (h *ExecutionHandler) Execute(c *gin.Context) {
	id, ok := parseScheduleID(c, h.logger)
	if !ok {
		return
	}

	request := &shared.ExecutionRequest{
		RequestID:          uuid.New(),
		ScheduledPaymentID: id,
		Trigger:            shared.ExecutionTriggerManual,
		RequestedBy:        middleware.GetUserID(c),
		CorrelationID:      middleware.GetCorrelationID(c),
		Timestamp:          time.Now().UTC(),
	}

	if err := h.executionService.RequestExecution(c.Request.Context(), request); err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	response := ExecutionAcceptedResponse{
		RequestID:          request.RequestID.String(),
		ScheduledPaymentID: id.String(),
		Status:             "PENDING",
	}
	if request.ExpectedExecutionCount != nil {
		response.ExpectedExecutionCount = *request.ExpectedExecutionCount
	}
	RespondAccepted(c, response)
}

// History retrieves the paginated payment history of a schedule
func (h *ExecutionHandler) History(c *gin.Context) {
	id, ok := parseScheduleID(c, h.logger)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Warn("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, total, err := h.executionService.GetHistory(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondServiceError(c, h.logger, err)
		return
	}

	responses := make([]HistoryResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, mapHistoryToResponse(r))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}
