package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finledger/internal/models"
	"finledger/internal/pagination"
)

// AccountFilter holds optional filter parameters for listing accounts.
type AccountFilter struct {
	Type *models.AccountType
}

// CreateAccountInput describes a new account. A non-zero InitialBalance is
// recorded as an opening movement so the balance matches its movements.
type CreateAccountInput struct {
	Name                  string
	Type                  models.AccountType
	Currency              string
	Symbol                string
	AssetType             string
	InitialBalance        decimal.Decimal
	InitialPrice          decimal.NullDecimal
	ExcludeFromNetWorth   bool
	ExcludeFromCashTotals bool
}

// AccountUpdateFields holds the optional fields of an account update.
type AccountUpdateFields struct {
	Name                  *string
	Symbol                *string
	AssetType             *string
	ExcludeFromNetWorth   *bool
	ExcludeFromCashTotals *bool
}

// AccountServicer defines the contract for the account store.
type AccountServicer interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context, filter AccountFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	UpdateAccount(ctx context.Context, id string, fields AccountUpdateFields) (*models.Account, error)
	SetBalance(ctx context.Context, id string, balance decimal.Decimal, at time.Time) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	AccountID   *string
	CategoryID  *string
	FromDate    *time.Time
	ToDate      *time.Time
	MinAmount   *decimal.Decimal
	MaxAmount   *decimal.Decimal
	IsRecurring *bool
}

// TransactionSortFields is the allow-list of sortable transaction columns.
var TransactionSortFields = []string{"date", "amount", "description"}

// TransactionServicer defines the read contract of the cash movement store.
// Mutations go through LedgerServicer so balances stay consistent.
type TransactionServicer interface {
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter, page pagination.PageRequest, sort pagination.SortRequest) (*pagination.PageResponse[models.Transaction], error)
	FindByAccountAndDatePattern(ctx context.Context, accountID, pattern string) ([]models.Transaction, error)
	FindByDateRange(ctx context.Context, from, to time.Time) ([]models.Transaction, error)
	FindActiveOrRecurring(ctx context.Context, since time.Time) ([]models.Transaction, error)
}

// InvestmentServicer defines the read contract of the trade store.
type InvestmentServicer interface {
	GetInvestmentTransaction(ctx context.Context, id string) (*models.InvestmentTransaction, error)
	ListInvestmentTransactions(ctx context.Context, accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.InvestmentTransaction], error)
	GetTransfer(ctx context.Context, id string) (*models.Transfer, error)
}

// RecordTransactionInput describes a single signed movement. On an
// investment account Amount is a quantity change.
type RecordTransactionInput struct {
	AccountID           string
	CategoryID          *string
	Amount              decimal.Decimal
	Description         string
	Date                time.Time
	Price               decimal.NullDecimal
	ExcludeFromEstimate bool
	IsRecurring         bool
}

// Movement is the record produced by RecordTransaction. Exactly one field is set.
type Movement struct {
	Transaction           *models.Transaction           `json:"transaction,omitempty"`
	InvestmentTransaction *models.InvestmentTransaction `json:"investment_transaction,omitempty"`
}

// ID returns the id of whichever record the movement holds.
func (m Movement) ID() string {
	if m.Transaction != nil {
		return m.Transaction.ID
	}
	if m.InvestmentTransaction != nil {
		return m.InvestmentTransaction.ID
	}
	return ""
}

// TransactionUpdateFields holds the optional fields of a transaction update.
// CategoryID is doubly indirect: nil leaves it, a nil inner pointer clears it.
type TransactionUpdateFields struct {
	AccountID           *string
	CategoryID          **string
	Amount              *decimal.Decimal
	Description         *string
	Date                *time.Time
	ExcludeFromEstimate *bool
}

// CreateTransferInput describes a movement between two accounts. AmountTo
// defaults to AmountFrom. Price applies to any investment side.
type CreateTransferInput struct {
	FromAccountID string
	ToAccountID   string
	AmountFrom    decimal.Decimal
	AmountTo      decimal.NullDecimal
	Fee           decimal.Decimal
	Description   string
	Date          time.Time
	Price         decimal.NullDecimal
	IsRecurring   bool
}

// TransferResult is the transfer entity plus both of its legs.
type TransferResult struct {
	Transfer *models.Transfer `json:"transfer"`
	Source   Movement         `json:"source"`
	Target   Movement         `json:"target"`
}

// Reconciliation compares a stored balance with the fold of movements.
type Reconciliation struct {
	AccountID  string          `json:"account_id"`
	Stored     decimal.Decimal `json:"stored"`
	Computed   decimal.Decimal `json:"computed"`
	Difference decimal.Decimal `json:"difference"`
	Fixed      bool            `json:"fixed"`
}

// Consistent reports whether the stored balance matched the movements.
func (r *Reconciliation) Consistent() bool {
	return r.Difference.IsZero()
}

// LedgerServicer owns every balance-mutating operation.
//
// The WithDB variants run inside a caller-owned database transaction and
// do not take account locks; callers must hold them.
type LedgerServicer interface {
	RecordTransaction(ctx context.Context, input RecordTransactionInput) (*Movement, error)
	UpdateTransaction(ctx context.Context, id string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	CreateTransfer(ctx context.Context, input CreateTransferInput) (*TransferResult, error)
	DeleteTransfer(ctx context.Context, id string) error
	DeleteInvestmentTransaction(ctx context.Context, id string) error
	ReconcileBalance(ctx context.Context, accountID string, fix bool) (*Reconciliation, error)

	RecordTransactionWithDB(ctx context.Context, tx *gorm.DB, input RecordTransactionInput) (*Movement, error)
	CreateTransferWithDB(ctx context.Context, tx *gorm.DB, input CreateTransferInput) (*TransferResult, error)
}

// ScheduleInput describes a new recurring schedule.
type ScheduleInput struct {
	Kind                 models.ScheduleKind
	Frequency            models.Frequency
	DayOfWeek            *int
	DayOfMonth           *int
	AccountID            string
	ToAccountID          *string
	CategoryID           *string
	Amount               decimal.Decimal
	AmountTo             decimal.NullDecimal
	Description          string
	RemainingOccurrences *int
	EndDate              *time.Time
}

// ScheduleUpdateFields holds the optional fields of a schedule update.
// Doubly indirect fields: nil leaves the value, a nil inner pointer clears it.
type ScheduleUpdateFields struct {
	Frequency            *models.Frequency
	DayOfWeek            **int
	DayOfMonth           **int
	ToAccountID          **string
	CategoryID           **string
	Amount               *decimal.Decimal
	AmountTo             *decimal.NullDecimal
	Description          *string
	IsActive             *bool
	RemainingOccurrences **int
	EndDate              **time.Time
}

// ScheduleFilter holds optional filter parameters for listing schedules.
type ScheduleFilter struct {
	AccountID *string
	IsActive  *bool
	Kind      *models.ScheduleKind
}

// ScheduleServicer defines the contract for the schedule store.
type ScheduleServicer interface {
	CreateSchedule(ctx context.Context, input ScheduleInput) (*models.RecurringSchedule, error)
	GetSchedule(ctx context.Context, id string) (*models.RecurringSchedule, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringSchedule], error)
	FindActive(ctx context.Context) ([]models.RecurringSchedule, error)
	UpdateSchedule(ctx context.Context, id string, fields ScheduleUpdateFields) (*models.RecurringSchedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// ScheduleFailure records one schedule that could not be processed.
type ScheduleFailure struct {
	ScheduleID string `json:"schedule_id"`
	Error      string `json:"error"`
}

// ProcessResult summarizes one ProcessDue run.
type ProcessResult struct {
	Date        string            `json:"date"`
	Checked     int               `json:"checked"`
	Fired       int               `json:"fired"`
	Deactivated int               `json:"deactivated"`
	Skipped     int               `json:"skipped"`
	Failures    []ScheduleFailure `json:"failures"`
}

// RecurringProcessor materializes due schedules.
type RecurringProcessor interface {
	ProcessDue(ctx context.Context, today time.Time) (*ProcessResult, error)
}

// Horizon is the period an estimate projects over.
type Horizon string

const (
	HorizonWeek  Horizon = "week"
	HorizonMonth Horizon = "month"
)

// EstimateRequest selects what to project. Empty Currency means the
// configured default; zero Today means the current day.
type EstimateRequest struct {
	Horizon     Horizon
	Currency    string
	CategoryIDs []string
	Today       time.Time
}

// CategoryEstimate is the blended projection of one category. Uncategorized
// spending has an empty CategoryID.
type CategoryEstimate struct {
	CategoryID    string          `json:"category_id"`
	RecentAverage decimal.Decimal `json:"recent_average"`
	FullAverage   decimal.Decimal `json:"full_average"`
	Recurring     decimal.Decimal `json:"recurring"`
	Estimate      decimal.Decimal `json:"estimate"`
}

// Estimate is a forward spending projection. All amounts are positive
// spend in Currency, rounded to two places.
type Estimate struct {
	Horizon         Horizon            `json:"horizon"`
	Currency        string             `json:"currency"`
	PeriodStart     string             `json:"period_start"`
	PeriodEnd       string             `json:"period_end"`
	MonthsOfHistory int                `json:"months_of_history"`
	RecentAverage   decimal.Decimal    `json:"recent_average"`
	FullAverage     decimal.Decimal    `json:"full_average"`
	Baseline        decimal.Decimal    `json:"baseline"`
	Recurring       decimal.Decimal    `json:"recurring"`
	Total           decimal.Decimal    `json:"total"`
	Confidence      int                `json:"confidence"`
	Categories      []CategoryEstimate `json:"categories"`
}

// EstimateServicer produces spending projections.
type EstimateServicer interface {
	Estimate(ctx context.Context, req EstimateRequest) (*Estimate, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
