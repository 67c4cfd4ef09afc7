package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
	"finledger/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService     services.AccountServicer
	ledgerService      services.LedgerServicer
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	accountService services.AccountServicer,
	ledgerService services.LedgerServicer,
	transactionService services.TransactionServicer,
	auditService services.AuditServicer,
) *AccountHandler {
	return &AccountHandler{
		accountService:     accountService,
		ledgerService:      ledgerService,
		transactionService: transactionService,
		auditService:       auditService,
	}
}

// CreateAccountRequest represents the request payload for creating an account.
type CreateAccountRequest struct {
	Name                  string           `json:"name" binding:"required,min=1,max=100"`
	Type                  string           `json:"type" binding:"omitempty,account_type"`
	Currency              string           `json:"currency" binding:"required,iso4217"`
	Symbol                string           `json:"symbol" binding:"max=32"`
	AssetType             string           `json:"asset_type" binding:"omitempty,asset_type"`
	InitialBalance        decimal.Decimal  `json:"initial_balance" swaggertype:"string" example:"1000.00"`
	InitialPrice          *decimal.Decimal `json:"initial_price" swaggertype:"string" example:"110.50"`
	ExcludeFromNetWorth   bool             `json:"exclude_from_net_worth"`
	ExcludeFromCashTotals bool             `json:"exclude_from_cash_totals"`
}

// UpdateAccountRequest represents the request payload for updating an account.
type UpdateAccountRequest struct {
	Name                  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Symbol                *string `json:"symbol" binding:"omitempty,max=32"`
	AssetType             *string `json:"asset_type" binding:"omitempty,asset_type"`
	ExcludeFromNetWorth   *bool   `json:"exclude_from_net_worth"`
	ExcludeFromCashTotals *bool   `json:"exclude_from_cash_totals"`
}

// SetBalanceRequest overwrites a stored balance without recording a movement.
type SetBalanceRequest struct {
	Balance *decimal.Decimal `json:"balance" binding:"required" swaggertype:"string" example:"1500.00"`
	At      string           `json:"at" binding:"omitempty,calendar_date" example:"2024-05-01"`
}

// ListAccountsQuery holds the filters of GET /accounts.
type ListAccountsQuery struct {
	pagination.PageRequest
	Type string `form:"type" binding:"omitempty,account_type"`
}

// CreateAccount handles the creation of a new account
// @Summary     Create an account
// @Description Create a cash or investment account. A non-zero initial balance is recorded as an opening movement.
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "No price for the opening trade"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), services.CreateAccountInput{
		Name:                  req.Name,
		Type:                  models.AccountType(req.Type),
		Currency:              req.Currency,
		Symbol:                req.Symbol,
		AssetType:             req.AssetType,
		InitialBalance:        req.InitialBalance,
		InitialPrice:          nullDecimal(req.InitialPrice),
		ExcludeFromNetWorth:   req.ExcludeFromNetWorth,
		ExcludeFromCashTotals: req.ExcludeFromCashTotals,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_ACCOUNT", "account", account.ID, c.ClientIP(),
		map[string]any{"name": req.Name, "type": account.Type, "currency": account.Currency})

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// ListAccounts lists accounts by name
// @Summary     List accounts
// @Tags        accounts
// @Produce     json
// @Param       type      query string false "cash or investment"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Account]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	var q ListAccountsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var filter services.AccountFilter
	if q.Type != "" {
		t := models.AccountType(q.Type)
		filter.Type = &t
	}

	result, err := h.accountService.ListAccounts(c.Request.Context(), filter, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAccount returns one account
// @Summary     Get an account
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateAccount updates account attributes. Balances are never changed here.
// @Summary     Update an account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       id      path string               true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to change"
// @Success     200 {object} models.Account
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), id, services.AccountUpdateFields{
		Name:                  req.Name,
		Symbol:                req.Symbol,
		AssetType:             req.AssetType,
		ExcludeFromNetWorth:   req.ExcludeFromNetWorth,
		ExcludeFromCashTotals: req.ExcludeFromCashTotals,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_ACCOUNT", "account", account.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// SetBalance overwrites the stored balance
// @Summary     Set an account balance
// @Description Overwrite the stored balance without recording a movement. Use reconcile to check drift afterwards.
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       id      path string            true "Account ID"
// @Param       request body SetBalanceRequest true "New balance"
// @Success     200 {object} models.Account
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/balance [put]
func (h *AccountHandler) SetBalance(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	at, err := parseDate("at", req.At)
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.SetBalance(c.Request.Context(), id, *req.Balance, at)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("SET_BALANCE", "account", account.ID, c.ClientIP(),
		map[string]any{"balance": req.Balance.String()})
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DeleteAccount deletes an account and all of its history
// @Summary     Delete an account
// @Description Removes the account's movements, reverts counterpart legs of its transfers and deactivates schedules that reference it.
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_ACCOUNT", "account", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Account deleted"})
}

// ReconcileAccount compares the stored balance with its movements
// @Summary     Reconcile an account balance
// @Tags        accounts
// @Produce     json
// @Param       id  path  string true  "Account ID"
// @Param       fix query bool   false "Overwrite the stored balance when it drifted"
// @Success     200 {object} services.Reconciliation
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/reconcile [post]
func (h *AccountHandler) ReconcileAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	fix := c.Query("fix") == "true"
	result, err := h.ledgerService.ReconcileBalance(c.Request.Context(), id, fix)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if result.Fixed {
		h.auditService.Log("RECONCILE_ACCOUNT", "account", id, c.ClientIP(),
			map[string]any{"stored": result.Stored.String(), "computed": result.Computed.String()})
	}
	c.JSON(http.StatusOK, gin.H{"reconciliation": result})
}

// ListAccountTransactions lists an account's cash movements in a period
// @Summary     List account transactions by date pattern
// @Tags        accounts
// @Produce     json
// @Param       id      path  string true "Account ID"
// @Param       pattern query string true "YYYY, YYYY-MM or YYYY-MM-DD"
// @Success     200 {array} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid pattern"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/transactions [get]
func (h *AccountHandler) ListAccountTransactions(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	pattern := c.Query("pattern")
	if pattern == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "pattern is required"))
		return
	}

	if _, err := h.accountService.GetAccount(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.FindByAccountAndDatePattern(c.Request.Context(), id, pattern)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}
