package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finledger/internal/services"
)

// TransferHandler handles movements between two accounts.
type TransferHandler struct {
	ledgerService     services.LedgerServicer
	investmentService services.InvestmentServicer
	auditService      services.AuditServicer
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(
	ledgerService services.LedgerServicer,
	investmentService services.InvestmentServicer,
	auditService services.AuditServicer,
) *TransferHandler {
	return &TransferHandler{
		ledgerService:     ledgerService,
		investmentService: investmentService,
		auditService:      auditService,
	}
}

// CreateTransferRequest represents the request payload for a transfer.
// AmountTo defaults to AmountFrom. Fee is recorded and noted in the
// description; it does not change either leg.
type CreateTransferRequest struct {
	FromAccountID string           `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string           `json:"to_account_id" binding:"required,uuid"`
	AmountFrom    decimal.Decimal  `json:"amount_from" swaggertype:"string" example:"1000"`
	AmountTo      *decimal.Decimal `json:"amount_to" swaggertype:"string" example:"2.6"`
	Fee           decimal.Decimal  `json:"fee" swaggertype:"string" example:"0"`
	Description   string           `json:"description" binding:"max=500"`
	Date          string           `json:"date" binding:"omitempty,calendar_date" example:"2024-05-01"`
	Price         *decimal.Decimal `json:"price" swaggertype:"string"`
}

// CreateTransfer moves value between two accounts atomically
// @Summary     Create a transfer
// @Description Debits the source and credits the target in one database transaction. Investment sides become a sell or a buy.
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Param       request body CreateTransferRequest true "Transfer details"
// @Success     201 {object} services.TransferResult "Transfer created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     422 {object} ErrorResponse "No price available"
// @Router      /transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.ledgerService.CreateTransfer(c.Request.Context(), services.CreateTransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		AmountFrom:    req.AmountFrom,
		AmountTo:      nullDecimal(req.AmountTo),
		Fee:           req.Fee,
		Description:   req.Description,
		Date:          date,
		Price:         nullDecimal(req.Price),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_TRANSFER", "transfer", result.Transfer.ID, c.ClientIP(),
		map[string]any{
			"from_account_id": req.FromAccountID,
			"to_account_id":   req.ToAccountID,
			"amount_from":     req.AmountFrom.String(),
		})

	c.JSON(http.StatusCreated, result)
}

// GetTransfer returns one transfer
// @Summary     Get a transfer
// @Tags        transfers
// @Produce     json
// @Param       id path string true "Transfer ID"
// @Success     200 {object} models.Transfer
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /transfers/{id} [get]
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.investmentService.GetTransfer(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfer": transfer})
}

// DeleteTransfer removes both legs and reverses their balance effects
// @Summary     Delete a transfer
// @Tags        transfers
// @Produce     json
// @Param       id path string true "Transfer ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /transfers/{id} [delete]
func (h *TransferHandler) DeleteTransfer(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledgerService.DeleteTransfer(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_TRANSFER", "transfer", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Transfer deleted"})
}
