package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finledger/internal/services"
)

// PipelineHandler exposes job-runner endpoints, guarded by an API key.
type PipelineHandler struct {
	recurring    services.RecurringProcessor
	auditService services.AuditServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(recurring services.RecurringProcessor, auditService services.AuditServicer) *PipelineHandler {
	return &PipelineHandler{recurring: recurring, auditService: auditService}
}

// ProcessRecurring fires every schedule due on the given day
// @Summary     Process due recurring schedules
// @Description Idempotent per day. Failures of single schedules are reported in the result, not as an error status.
// @Tags        pipeline
// @Produce     json
// @Security    ApiKeyAuth
// @Param       date query string false "Day to process (default today)"
// @Success     200 {object} services.ProcessResult
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/recurring/process [post]
func (h *PipelineHandler) ProcessRecurring(c *gin.Context) {
	today, err := parseDate("date", c.Query("date"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.recurring.ProcessDue(c.Request.Context(), today)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("PROCESS_RECURRING", "schedule", "", c.ClientIP(),
		map[string]any{"date": result.Date, "fired": result.Fired, "failures": len(result.Failures)})
	c.JSON(http.StatusOK, result)
}
