package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "finledger/internal/errors"
	"finledger/internal/pagination"
	"finledger/internal/services"
)

// TransactionHandler handles cash movement requests.
type TransactionHandler struct {
	ledgerService      services.LedgerServicer
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(
	ledgerService services.LedgerServicer,
	transactionService services.TransactionServicer,
	auditService services.AuditServicer,
) *TransactionHandler {
	return &TransactionHandler{
		ledgerService:      ledgerService,
		transactionService: transactionService,
		auditService:       auditService,
	}
}

// CreateTransactionRequest represents the request payload for recording a movement.
// On an investment account Amount is a quantity; Price is then optional.
type CreateTransactionRequest struct {
	AccountID           string           `json:"account_id" binding:"required,uuid"`
	CategoryID          *string          `json:"category_id" binding:"omitempty,max=64"`
	Amount              decimal.Decimal  `json:"amount" swaggertype:"string" example:"-42.50"`
	Description         string           `json:"description" binding:"max=500"`
	Date                string           `json:"date" binding:"omitempty,calendar_date" example:"2024-05-01"`
	Price               *decimal.Decimal `json:"price" swaggertype:"string"`
	ExcludeFromEstimate bool             `json:"exclude_from_estimate"`
}

// UpdateTransactionRequest represents the request payload for editing a movement.
// Send "category_id": null to clear the category.
type UpdateTransactionRequest struct {
	AccountID           *string          `json:"account_id" binding:"omitempty,uuid"`
	CategoryID          optional[string] `json:"category_id" swaggertype:"string"`
	Amount              *decimal.Decimal `json:"amount" swaggertype:"string"`
	Description         *string          `json:"description" binding:"omitempty,max=500"`
	Date                *string          `json:"date" binding:"omitempty,calendar_date"`
	ExcludeFromEstimate *bool            `json:"exclude_from_estimate"`
}

// ListTransactionsQuery holds the filters of GET /transactions.
type ListTransactionsQuery struct {
	pagination.PageRequest
	pagination.SortRequest
	AccountID   string `form:"account_id" binding:"omitempty,uuid"`
	CategoryID  string `form:"category_id"`
	FromDate    string `form:"from_date" binding:"omitempty,calendar_date"`
	ToDate      string `form:"to_date" binding:"omitempty,calendar_date"`
	MinAmount   string `form:"min_amount"`
	MaxAmount   string `form:"max_amount"`
	IsRecurring *bool  `form:"is_recurring"`
}

// CreateTransaction records a movement and applies it to the balance
// @Summary     Record a transaction
// @Description Record a signed movement. Cash accounts get a transaction; investment accounts get a buy or sell priced from the request or the quote provider.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body CreateTransactionRequest true "Movement details"
// @Success     201 {object} services.Movement "Movement recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     422 {object} ErrorResponse "No price available"
// @Failure     429 {object} ErrorResponse "Quote provider rate limited"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	movement, err := h.ledgerService.RecordTransaction(c.Request.Context(), services.RecordTransactionInput{
		AccountID:           req.AccountID,
		CategoryID:          req.CategoryID,
		Amount:              req.Amount,
		Description:         req.Description,
		Date:                date,
		Price:               nullDecimal(req.Price),
		ExcludeFromEstimate: req.ExcludeFromEstimate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_TRANSACTION", "transaction", movement.ID(), c.ClientIP(),
		map[string]any{"account_id": req.AccountID, "amount": req.Amount.String()})

	c.JSON(http.StatusCreated, movement)
}

// ListTransactions lists cash movements
// @Summary     List transactions
// @Tags        transactions
// @Produce     json
// @Param       account_id   query string false "Account ID"
// @Param       category_id  query string false "Category ID"
// @Param       from_date    query string false "Inclusive start day"
// @Param       to_date      query string false "Inclusive end day"
// @Param       min_amount   query string false "Minimum signed amount"
// @Param       max_amount   query string false "Maximum signed amount"
// @Param       is_recurring query bool   false "Only schedule-produced rows"
// @Param       sort_by      query string false "date, amount or description"
// @Param       sort_order   query string false "asc or desc"
// @Param       page         query int    false "Page number"
// @Param       page_size    query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Transaction]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var q ListTransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter := services.TransactionFilter{IsRecurring: q.IsRecurring}
	var err error
	if filter.MinAmount, err = parseAmount("min_amount", q.MinAmount); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.MaxAmount, err = parseAmount("max_amount", q.MaxAmount); err != nil {
		respondWithError(c, err)
		return
	}
	if q.AccountID != "" {
		filter.AccountID = &q.AccountID
	}
	if q.CategoryID != "" {
		filter.CategoryID = &q.CategoryID
	}
	if q.FromDate != "" {
		from, err := parseDate("from_date", q.FromDate)
		if err != nil {
			respondWithError(c, err)
			return
		}
		filter.FromDate = &from
	}
	if q.ToDate != "" {
		to, err := parseDate("to_date", q.ToDate)
		if err != nil {
			respondWithError(c, err)
			return
		}
		filter.ToDate = &to
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_date must not be before from_date"))
		return
	}

	result, err := h.transactionService.ListTransactions(c.Request.Context(), filter, q.PageRequest, q.SortRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTransaction returns one cash movement
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction edits a movement and re-applies it to the balance
// @Summary     Update a transaction
// @Description Amount and account of transfer legs cannot be changed; edit the transfer instead.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseDatePtr("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.ledgerService.UpdateTransaction(c.Request.Context(), id, services.TransactionUpdateFields{
		AccountID:           req.AccountID,
		CategoryID:          req.CategoryID.field(),
		Amount:              req.Amount,
		Description:         req.Description,
		Date:                date,
		ExcludeFromEstimate: req.ExcludeFromEstimate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_TRANSACTION", "transaction", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction removes a movement and reverses its balance effect
// @Summary     Delete a transaction
// @Description Deleting a transfer leg deletes the whole transfer.
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledgerService.DeleteTransaction(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_TRANSACTION", "transaction", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted"})
}
