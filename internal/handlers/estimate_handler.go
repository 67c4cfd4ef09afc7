package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finledger/internal/services"
)

// EstimateHandler serves spending projections.
type EstimateHandler struct {
	estimateService services.EstimateServicer
}

// NewEstimateHandler creates a new EstimateHandler.
func NewEstimateHandler(estimateService services.EstimateServicer) *EstimateHandler {
	return &EstimateHandler{estimateService: estimateService}
}

// EstimateQuery holds the parameters of GET /estimates.
type EstimateQuery struct {
	Horizon     string   `form:"horizon" binding:"omitempty,horizon"`
	Currency    string   `form:"currency" binding:"omitempty,iso4217"`
	CategoryIDs []string `form:"category_id"`
	Today       string   `form:"today" binding:"omitempty,calendar_date"`
}

// GetEstimate projects spending for the current week or month
// @Summary     Estimate spending
// @Description Blends recent and full-history average spend with recurring charges still due in the period.
// @Tags        estimates
// @Produce     json
// @Param       horizon     query string   false "week or month (default month)"
// @Param       currency    query string   false "Report currency (default configured)"
// @Param       category_id query []string false "Restrict to categories" collectionFormat(multi)
// @Param       today       query string   false "Evaluate as of this day"
// @Success     200 {object} services.Estimate
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /estimates [get]
func (h *EstimateHandler) GetEstimate(c *gin.Context) {
	var q EstimateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	today, err := parseDate("today", q.Today)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var categories []string
	for _, raw := range q.CategoryIDs {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				categories = append(categories, id)
			}
		}
	}

	estimate, err := h.estimateService.Estimate(c.Request.Context(), services.EstimateRequest{
		Horizon:     services.Horizon(q.Horizon),
		Currency:    q.Currency,
		CategoryIDs: categories,
		Today:       today,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"estimate": estimate})
}
