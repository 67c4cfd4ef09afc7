package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"finledger/internal/calendar"
	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// transactionService is the query side of the cash movement store.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// GetTransaction retrieves a transaction by ID.
func (s *transactionService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).First(&transaction, "id = ?", id).Error; err != nil {
		return nil, storeError(err, apperrors.ErrTransactionNotFound)
	}
	return &transaction, nil
}

// ListTransactions retrieves a paginated, filtered and sorted list of transactions.
func (s *transactionService) ListTransactions(
	ctx context.Context,
	filter TransactionFilter,
	page pagination.PageRequest,
	sort pagination.SortRequest,
) (*pagination.PageResponse[models.Transaction], error) {
	order, err := sort.OrderClause(TransactionSortFields, "date", "desc")
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	page.Defaults()

	base := applyTransactionFilters(s.db.WithContext(ctx).Model(&models.Transaction{}), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}

	var transactions []models.Transaction
	if err := base.Order(order).Order("id DESC").Scopes(pagination.Paginate(page)).Find(&transactions).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.FromDate != nil {
		q = q.Where("date >= ?", calendar.Day(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", calendar.Day(*f.ToDate))
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	if f.IsRecurring != nil {
		q = q.Where("is_recurring = ?", *f.IsRecurring)
	}
	return q
}

// FindByAccountAndDatePattern returns an account's transactions whose date
// falls in the year, month or day named by pattern (YYYY, YYYY-MM, YYYY-MM-DD).
func (s *transactionService) FindByAccountAndDatePattern(ctx context.Context, accountID, pattern string) ([]models.Transaction, error) {
	from, to, err := calendar.PatternRange(pattern)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	var transactions []models.Transaction
	if err := s.db.WithContext(ctx).
		Where("account_id = ? AND date >= ? AND date < ?", accountID, from, to).
		Order("date ASC").Order("id ASC").
		Find(&transactions).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}
	return transactions, nil
}

// FindByDateRange returns every transaction dated within [from, to].
func (s *transactionService) FindByDateRange(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	from, to = calendar.Day(from), calendar.Day(to)
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "range end is before its start")
	}

	var transactions []models.Transaction
	if err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").Order("id ASC").
		Find(&transactions).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}
	return transactions, nil
}

// FindActiveOrRecurring returns transactions dated on or after since, plus
// every transaction produced by a schedule regardless of date.
func (s *transactionService) FindActiveOrRecurring(ctx context.Context, since time.Time) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.WithContext(ctx).
		Where("date >= ? OR is_recurring = ?", calendar.Day(since), true).
		Order("date DESC").Order("id DESC").
		Find(&transactions).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}
	return transactions, nil
}
