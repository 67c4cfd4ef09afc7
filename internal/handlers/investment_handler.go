package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finledger/internal/pagination"
	"finledger/internal/services"
)

// InvestmentHandler handles trade requests. Trades are created through
// POST /transactions on an investment account.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
	ledgerService     services.LedgerServicer
	auditService      services.AuditServicer
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(
	investmentService services.InvestmentServicer,
	ledgerService services.LedgerServicer,
	auditService services.AuditServicer,
) *InvestmentHandler {
	return &InvestmentHandler{
		investmentService: investmentService,
		ledgerService:     ledgerService,
		auditService:      auditService,
	}
}

// ListInvestmentTransactions lists an account's trades, newest first
// @Summary     List trades of an investment account
// @Tags        investments
// @Produce     json
// @Param       id        path  string true  "Account ID"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.InvestmentTransaction]
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/investment-transactions [get]
func (h *InvestmentHandler) ListInvestmentTransactions(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.investmentService.ListInvestmentTransactions(c.Request.Context(), id, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetInvestmentTransaction returns one trade
// @Summary     Get a trade
// @Tags        investments
// @Produce     json
// @Param       id path string true "Investment transaction ID"
// @Success     200 {object} models.InvestmentTransaction
// @Failure     404 {object} ErrorResponse "Investment transaction not found"
// @Router      /investment-transactions/{id} [get]
func (h *InvestmentHandler) GetInvestmentTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	trade, err := h.investmentService.GetInvestmentTransaction(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"investment_transaction": trade})
}

// DeleteInvestmentTransaction removes a trade and reverses its quantity
// @Summary     Delete a trade
// @Description Deleting a transfer leg deletes the whole transfer.
// @Tags        investments
// @Produce     json
// @Param       id path string true "Investment transaction ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} ErrorResponse "Investment transaction not found"
// @Router      /investment-transactions/{id} [delete]
func (h *InvestmentHandler) DeleteInvestmentTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledgerService.DeleteInvestmentTransaction(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_INVESTMENT_TRANSACTION", "investment_transaction", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Investment transaction deleted"})
}
