package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finledger/internal/models"
	"finledger/internal/pagination"
	"finledger/internal/services"
)

// ScheduleHandler handles recurring schedule requests.
type ScheduleHandler struct {
	scheduleService services.ScheduleServicer
	auditService    services.AuditServicer
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService services.ScheduleServicer, auditService services.AuditServicer) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService, auditService: auditService}
}

// CreateScheduleRequest represents the request payload for creating a schedule.
type CreateScheduleRequest struct {
	Kind                 string           `json:"kind" binding:"required,schedule_kind"`
	Frequency            string           `json:"frequency" binding:"required,frequency"`
	DayOfWeek            *int             `json:"day_of_week" binding:"omitempty,min=0,max=6"`
	DayOfMonth           *int             `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	AccountID            string           `json:"account_id" binding:"required,uuid"`
	ToAccountID          *string          `json:"to_account_id" binding:"omitempty,uuid"`
	CategoryID           *string          `json:"category_id" binding:"omitempty,max=64"`
	Amount               decimal.Decimal  `json:"amount" swaggertype:"string" example:"-250000"`
	AmountTo             *decimal.Decimal `json:"amount_to" swaggertype:"string"`
	Description          string           `json:"description" binding:"max=500"`
	RemainingOccurrences *int             `json:"remaining_occurrences" binding:"omitempty,min=1"`
	EndDate              string           `json:"end_date" binding:"omitempty,calendar_date"`
}

// UpdateScheduleRequest represents the request payload for updating a
// schedule. Send null to clear an optional field.
type UpdateScheduleRequest struct {
	Frequency            *string                   `json:"frequency" binding:"omitempty,frequency"`
	DayOfWeek            optional[int]             `json:"day_of_week" swaggertype:"integer"`
	DayOfMonth           optional[int]             `json:"day_of_month" swaggertype:"integer"`
	ToAccountID          optional[string]          `json:"to_account_id" swaggertype:"string"`
	CategoryID           optional[string]          `json:"category_id" swaggertype:"string"`
	Amount               *decimal.Decimal          `json:"amount" swaggertype:"string"`
	AmountTo             optional[decimal.Decimal] `json:"amount_to" swaggertype:"string"`
	Description          *string                   `json:"description" binding:"omitempty,max=500"`
	IsActive             *bool                     `json:"is_active"`
	RemainingOccurrences optional[int]             `json:"remaining_occurrences" swaggertype:"integer"`
	EndDate              optional[string]          `json:"end_date" swaggertype:"string"`
}

// ListSchedulesQuery holds the filters of GET /schedules.
type ListSchedulesQuery struct {
	pagination.PageRequest
	AccountID string `form:"account_id" binding:"omitempty,uuid"`
	IsActive  *bool  `form:"is_active"`
	Kind      string `form:"kind" binding:"omitempty,schedule_kind"`
}

// CreateSchedule stores a new recurring schedule
// @Summary     Create a recurring schedule
// @Description Transaction schedules need a category; transfer schedules need to_account_id and a positive amount.
// @Tags        schedules
// @Accept      json
// @Produce     json
// @Param       request body CreateScheduleRequest true "Schedule details"
// @Success     201 {object} models.RecurringSchedule "Schedule created"
// @Failure     400 {object} ErrorResponse "Invalid schedule"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /schedules [post]
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var endDate *time.Time
	if req.EndDate != "" {
		end, err := parseDate("end_date", req.EndDate)
		if err != nil {
			respondWithError(c, err)
			return
		}
		endDate = &end
	}

	schedule, err := h.scheduleService.CreateSchedule(c.Request.Context(), services.ScheduleInput{
		Kind:                 models.ScheduleKind(req.Kind),
		Frequency:            models.Frequency(req.Frequency),
		DayOfWeek:            req.DayOfWeek,
		DayOfMonth:           req.DayOfMonth,
		AccountID:            req.AccountID,
		ToAccountID:          req.ToAccountID,
		CategoryID:           req.CategoryID,
		Amount:               req.Amount,
		AmountTo:             nullDecimal(req.AmountTo),
		Description:          req.Description,
		RemainingOccurrences: req.RemainingOccurrences,
		EndDate:              endDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_SCHEDULE", "schedule", schedule.ID, c.ClientIP(),
		map[string]any{"kind": req.Kind, "frequency": req.Frequency, "account_id": req.AccountID})

	c.JSON(http.StatusCreated, gin.H{"schedule": schedule})
}

// ListSchedules lists schedules in creation order
// @Summary     List recurring schedules
// @Tags        schedules
// @Produce     json
// @Param       account_id query string false "Source or target account"
// @Param       is_active  query bool   false "Active flag"
// @Param       kind       query string false "transaction or transfer"
// @Param       page       query int    false "Page number"
// @Param       page_size  query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.RecurringSchedule]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /schedules [get]
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	var q ListSchedulesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter := services.ScheduleFilter{IsActive: q.IsActive}
	if q.AccountID != "" {
		filter.AccountID = &q.AccountID
	}
	if q.Kind != "" {
		kind := models.ScheduleKind(q.Kind)
		filter.Kind = &kind
	}

	result, err := h.scheduleService.ListSchedules(c.Request.Context(), filter, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSchedule returns one schedule
// @Summary     Get a recurring schedule
// @Tags        schedules
// @Produce     json
// @Param       id path string true "Schedule ID"
// @Success     200 {object} models.RecurringSchedule
// @Failure     404 {object} ErrorResponse "Schedule not found"
// @Router      /schedules/{id} [get]
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	schedule, err := h.scheduleService.GetSchedule(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

// UpdateSchedule changes a schedule and re-validates it
// @Summary     Update a recurring schedule
// @Tags        schedules
// @Accept      json
// @Produce     json
// @Param       id      path string                true "Schedule ID"
// @Param       request body UpdateScheduleRequest true "Fields to change"
// @Success     200 {object} models.RecurringSchedule
// @Failure     400 {object} ErrorResponse "Invalid schedule"
// @Failure     404 {object} ErrorResponse "Schedule not found"
// @Router      /schedules/{id} [put]
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	fields := services.ScheduleUpdateFields{
		DayOfWeek:            req.DayOfWeek.field(),
		DayOfMonth:           req.DayOfMonth.field(),
		ToAccountID:          req.ToAccountID.field(),
		CategoryID:           req.CategoryID.field(),
		Amount:               req.Amount,
		Description:          req.Description,
		IsActive:             req.IsActive,
		RemainingOccurrences: req.RemainingOccurrences.field(),
	}
	if req.Frequency != nil {
		frequency := models.Frequency(*req.Frequency)
		fields.Frequency = &frequency
	}
	if amountTo := req.AmountTo.field(); amountTo != nil {
		var nd decimal.NullDecimal
		if *amountTo != nil {
			nd = decimal.NewNullDecimal(**amountTo)
		}
		fields.AmountTo = &nd
	}
	if raw := req.EndDate.field(); raw != nil {
		var end *time.Time
		if *raw != nil {
			if end, err = parseDatePtr("end_date", *raw); err != nil {
				respondWithError(c, err)
				return
			}
		}
		fields.EndDate = &end
	}

	schedule, err := h.scheduleService.UpdateSchedule(c.Request.Context(), id, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_SCHEDULE", "schedule", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

// DeleteSchedule removes a schedule; movements it produced are kept
// @Summary     Delete a recurring schedule
// @Tags        schedules
// @Produce     json
// @Param       id path string true "Schedule ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} ErrorResponse "Schedule not found"
// @Router      /schedules/{id} [delete]
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.scheduleService.DeleteSchedule(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_SCHEDULE", "schedule", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Schedule deleted"})
}
