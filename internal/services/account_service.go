package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finledger/internal/calendar"
	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db     *gorm.DB
	ledger LedgerServicer
	locks  *accountLocks
}

// NewAccountService creates a new AccountServicer. Opening balances are
// recorded through ledger.
func NewAccountService(db *gorm.DB, ledger LedgerServicer) AccountServicer {
	return &accountService{db: db, ledger: ledger, locks: ledgerLocks}
}

// CreateAccount creates a new cash or investment account.
func (s *accountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*models.Account, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	accountType := input.Type
	if accountType == "" {
		accountType = models.AccountTypeCash
	}
	if accountType != models.AccountTypeCash && accountType != models.AccountTypeInvestment {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account type must be cash or investment")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency is required")
	}

	account := &models.Account{
		Name:                  strings.TrimSpace(input.Name),
		Type:                  accountType,
		Balance:               decimal.Zero,
		Currency:              currency,
		Symbol:                strings.TrimSpace(input.Symbol),
		AssetType:             input.AssetType,
		ExcludeFromNetWorth:   input.ExcludeFromNetWorth,
		ExcludeFromCashTotals: input.ExcludeFromCashTotals,
		LastUpdated:           time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return storeError(err, apperrors.ErrInternalServer)
		}

		if input.InitialBalance.IsZero() {
			return nil
		}
		if _, err := s.ledger.RecordTransactionWithDB(ctx, tx, RecordTransactionInput{
			AccountID:           account.ID,
			Amount:              input.InitialBalance,
			Description:         "Opening balance",
			Date:                calendar.Today(),
			Price:               input.InitialPrice,
			ExcludeFromEstimate: true,
		}); err != nil {
			return err
		}
		return tx.First(account, "id = ?", account.ID).Error
	})
	if err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (s *accountService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return loadAccount(s.db.WithContext(ctx), id)
}

// ListAccounts retrieves a paginated list of accounts.
func (s *accountService) ListAccounts(ctx context.Context, filter AccountFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Account{})
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}

	var accounts []models.Account
	if err := base.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&accounts).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateAccount updates descriptive fields. Balance and currency are not
// editable here.
func (s *accountService) UpdateAccount(ctx context.Context, id string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name must not be empty")
		}
		updates["name"] = name
	}
	if fields.ExcludeFromNetWorth != nil {
		updates["exclude_from_net_worth"] = *fields.ExcludeFromNetWorth
	}
	if fields.ExcludeFromCashTotals != nil {
		updates["exclude_from_cash_totals"] = *fields.ExcludeFromCashTotals
	}

	// Investment-only fields
	if account.IsInvestment() {
		if fields.Symbol != nil {
			updates["symbol"] = strings.TrimSpace(*fields.Symbol)
		}
		if fields.AssetType != nil {
			updates["asset_type"] = *fields.AssetType
		}
	}

	if len(updates) == 0 {
		return account, nil
	}

	if err := s.db.WithContext(ctx).Model(account).Updates(updates).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}
	return s.GetAccount(ctx, id)
}

// SetBalance overwrites the stored balance without recording a movement.
func (s *accountService) SetBalance(ctx context.Context, id string, balance decimal.Decimal, at time.Time) (*models.Account, error) {
	if at.IsZero() {
		at = time.Now()
	}

	unlock := s.locks.lock(id)
	defer unlock()

	res := s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).
		Updates(map[string]interface{}{"balance": balance, "last_updated": at})
	if res.Error != nil {
		return nil, storeError(res.Error, apperrors.ErrInternalServer)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrAccountNotFound
	}
	return s.GetAccount(ctx, id)
}

// DeleteAccount removes an account with its movements. Transfers touching
// the account are removed in full so counterpart balances are reverted,
// and schedules referencing it are deactivated.
func (s *accountService) DeleteAccount(ctx context.Context, id string) error {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}

	var transfers []models.Transfer
	if err := s.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", id, id).
		Find(&transfers).Error; err != nil {
		return storeError(err, apperrors.ErrInternalServer)
	}

	lockIDs := []string{id}
	for _, t := range transfers {
		lockIDs = append(lockIDs, t.FromAccountID, t.ToAccountID)
	}
	unlock := s.locks.lock(lockIDs...)
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range transfers {
			if err := deleteTransferWithDB(tx, &transfers[i]); err != nil {
				return err
			}
		}

		if err := tx.Where("account_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return storeError(err, apperrors.ErrInternalServer)
		}
		if err := tx.Where("account_id = ?", id).Delete(&models.InvestmentTransaction{}).Error; err != nil {
			return storeError(err, apperrors.ErrInternalServer)
		}

		res := tx.Model(&models.RecurringSchedule{}).
			Where("(account_id = ? OR to_account_id = ?) AND is_active = ?", id, id, true).
			Update("is_active", false)
		if res.Error != nil {
			return storeError(res.Error, apperrors.ErrInternalServer)
		}
		if res.RowsAffected > 0 {
			logger.Get().Infow("deactivated schedules of deleted account", "account_id", id, "count", res.RowsAffected)
		}

		if err := tx.Delete(account).Error; err != nil {
			return storeError(err, apperrors.ErrInternalServer)
		}
		return nil
	})
	return err
}
