package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finledger/internal/calendar"
	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
	"finledger/internal/models"
	"finledger/internal/provider"
	"finledger/internal/uuid"
)

// ledgerService applies every movement together with its balance effect
// inside one database transaction.
type ledgerService struct {
	db     *gorm.DB
	quotes provider.QuoteProvider
	locks  *accountLocks
}

// NewLedgerService creates a new LedgerServicer. quotes prices investment
// movements that arrive without a price and may be nil.
func NewLedgerService(db *gorm.DB, quotes provider.QuoteProvider) LedgerServicer {
	return &ledgerService{db: db, quotes: quotes, locks: ledgerLocks}
}

// RecordTransaction records a signed movement on an account.
func (s *ledgerService) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*Movement, error) {
	if input.AccountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account ID is required")
	}

	unlock := s.locks.lock(input.AccountID)
	defer unlock()

	var result *Movement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.RecordTransactionWithDB(ctx, tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordTransactionWithDB records a movement using the given transaction handle.
func (s *ledgerService) RecordTransactionWithDB(ctx context.Context, tx *gorm.DB, input RecordTransactionInput) (*Movement, error) {
	if input.Amount.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}

	account, err := loadAccount(tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	date := calendar.Today()
	if !input.Date.IsZero() {
		date = calendar.Day(input.Date)
	}

	if account.IsInvestment() {
		trade, err := s.tradeWithDB(ctx, tx, account, input.Amount, input.Price, date, input.Description, nil)
		if err != nil {
			return nil, err
		}
		return &Movement{InvestmentTransaction: trade}, nil
	}

	transaction := &models.Transaction{
		AccountID:           account.ID,
		CategoryID:          input.CategoryID,
		Amount:              input.Amount,
		Description:         input.Description,
		Date:                date,
		Price:               input.Price,
		ExcludeFromEstimate: input.ExcludeFromEstimate,
		IsRecurring:         input.IsRecurring,
	}
	if err := tx.Create(transaction).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}
	if err := adjustBalance(tx, account.ID, transaction.Amount); err != nil {
		return nil, err
	}
	return &Movement{Transaction: transaction}, nil
}

// tradeWithDB records a buy (quantity > 0) or sell (quantity < 0) and moves
// the account balance by the signed quantity.
func (s *ledgerService) tradeWithDB(
	ctx context.Context,
	tx *gorm.DB,
	account *models.Account,
	signedQuantity decimal.Decimal,
	suppliedPrice decimal.NullDecimal,
	date time.Time,
	notes string,
	transferID *string,
) (*models.InvestmentTransaction, error) {
	price, err := s.resolvePrice(ctx, account, suppliedPrice)
	if err != nil {
		return nil, err
	}

	tradeType := models.InvestmentTransactionBuy
	if signedQuantity.IsNegative() {
		tradeType = models.InvestmentTransactionSell
	}
	quantity := signedQuantity.Abs()

	trade := &models.InvestmentTransaction{
		AccountID:   account.ID,
		Type:        tradeType,
		Quantity:    quantity,
		Price:       price,
		TotalAmount: quantity.Mul(price),
		Date:        date,
		Notes:       notes,
		TransferID:  transferID,
	}
	if err := tx.Create(trade).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}
	if err := adjustBalance(tx, account.ID, trade.SignedQuantity()); err != nil {
		return nil, err
	}
	return trade, nil
}

// resolvePrice returns the supplied price, or a quote for the account's
// symbol, then for its currency code.
func (s *ledgerService) resolvePrice(ctx context.Context, account *models.Account, supplied decimal.NullDecimal) (decimal.Decimal, error) {
	if supplied.Valid {
		if !supplied.Decimal.IsPositive() {
			return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, "price must be greater than zero")
		}
		return supplied.Decimal, nil
	}
	if s.quotes == nil {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrPriceUnavailable, "no price supplied and no quote provider configured")
	}

	candidates := []string{account.QuoteSymbol()}
	if account.Symbol != "" && account.Currency != "" && account.Currency != account.Symbol {
		candidates = append(candidates, account.Currency)
	}

	var lastErr error
	for _, symbol := range candidates {
		price, err := s.quotes.GetQuote(ctx, symbol)
		if err == nil && price.IsPositive() {
			return price, nil
		}
		if errors.Is(err, apperrors.ErrRateLimited) {
			return decimal.Zero, err
		}
		lastErr = err
	}

	logger.Get().Warnw("no price resolved", "account_id", account.ID, "symbols", candidates, "error", lastErr)
	return decimal.Zero, apperrors.Wrap(
		apperrors.WithMessage(apperrors.ErrPriceUnavailable, fmt.Sprintf("no price available for %s", account.QuoteSymbol())),
		lastErr,
	)
}

// UpdateTransaction reverses the old effect, applies the field changes and
// re-applies the new effect, in that order.
func (s *ledgerService) UpdateTransaction(ctx context.Context, id string, fields TransactionUpdateFields) (*models.Transaction, error) {
	var current models.Transaction
	if err := s.db.WithContext(ctx).First(&current, "id = ?", id).Error; err != nil {
		return nil, storeError(err, apperrors.ErrTransactionNotFound)
	}

	moving := fields.AccountID != nil && *fields.AccountID != current.AccountID
	changingAmount := fields.Amount != nil && !fields.Amount.Equal(current.Amount)
	if current.IsTransferLeg() && (moving || changingAmount) {
		return nil, apperrors.ErrTransactionNotEditable
	}
	if fields.Amount != nil && fields.Amount.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}

	newAccountID := current.AccountID
	if moving {
		newAccountID = *fields.AccountID
	}

	unlock := s.locks.lock(current.AccountID, newAccountID)
	defer unlock()

	var result models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&result, "id = ?", id).Error; err != nil {
			return storeError(err, apperrors.ErrTransactionNotFound)
		}
		oldAccountID, oldAmount := result.AccountID, result.Amount

		if moving {
			target, err := loadAccount(tx, newAccountID)
			if err != nil {
				return err
			}
			if target.IsInvestment() {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot move a transaction onto an investment account")
			}
		}

		// 1. reverse the old effect
		if err := adjustBalance(tx, oldAccountID, oldAmount.Neg()); err != nil {
			return err
		}

		// 2. apply the field changes
		result.AccountID = newAccountID
		if fields.Amount != nil {
			result.Amount = *fields.Amount
		}
		if fields.CategoryID != nil {
			result.CategoryID = *fields.CategoryID
		}
		if fields.Description != nil {
			result.Description = *fields.Description
		}
		if fields.Date != nil {
			result.Date = calendar.Day(*fields.Date)
		}
		if fields.ExcludeFromEstimate != nil {
			result.ExcludeFromEstimate = *fields.ExcludeFromEstimate
		}
		if err := tx.Save(&result).Error; err != nil {
			return storeError(err, apperrors.ErrInternalServer)
		}

		// 3. apply the new effect
		return adjustBalance(tx, result.AccountID, result.Amount)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteTransaction removes a transaction and its balance effect. A transfer
// leg takes the whole transfer with it.
func (s *ledgerService) DeleteTransaction(ctx context.Context, id string) error {
	var current models.Transaction
	if err := s.db.WithContext(ctx).First(&current, "id = ?", id).Error; err != nil {
		return storeError(err, apperrors.ErrTransactionNotFound)
	}

	if current.TransferID != nil {
		err := s.DeleteTransfer(ctx, *current.TransferID)
		if !errors.Is(err, apperrors.ErrTransferNotFound) {
			return err
		}
		// Orphaned leg; fall through to the pairwise path.
	}

	lockIDs := []string{current.AccountID}
	var linked models.Transaction
	hasLinked := false
	if current.LinkedTransactionID != nil {
		if err := s.db.WithContext(ctx).First(&linked, "id = ?", *current.LinkedTransactionID).Error; err == nil {
			hasLinked = true
			lockIDs = append(lockIDs, linked.AccountID)
		}
	}

	unlock := s.locks.lock(lockIDs...)
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := removeCashLegWithDB(tx, id); err != nil {
			return err
		}
		if current.LinkedTransactionID == nil {
			return nil
		}
		if !hasLinked {
			logger.Get().Warnw("linked transaction not found", "transaction_id", id, "linked_transaction_id", *current.LinkedTransactionID)
			return nil
		}
		if err := removeCashLegWithDB(tx, linked.ID); err != nil && !errors.Is(err, apperrors.ErrTransactionNotFound) {
			return err
		}
		return nil
	})
}

// removeCashLegWithDB reverses and deletes one transaction.
func removeCashLegWithDB(tx *gorm.DB, id string) error {
	var t models.Transaction
	if err := tx.First(&t, "id = ?", id).Error; err != nil {
		return storeError(err, apperrors.ErrTransactionNotFound)
	}
	if err := adjustBalance(tx, t.AccountID, t.Amount.Neg()); err != nil {
		return err
	}
	if err := tx.Delete(&t).Error; err != nil {
		return storeError(err, apperrors.ErrInternalServer)
	}
	return nil
}

// removeTradeWithDB reverses and deletes one trade.
func removeTradeWithDB(tx *gorm.DB, id string) error {
	var t models.InvestmentTransaction
	if err := tx.First(&t, "id = ?", id).Error; err != nil {
		return storeError(err, apperrors.ErrInvestmentTransactionNotFound)
	}
	if err := adjustBalance(tx, t.AccountID, t.SignedQuantity().Neg()); err != nil {
		return err
	}
	if err := tx.Delete(&t).Error; err != nil {
		return storeError(err, apperrors.ErrInternalServer)
	}
	return nil
}

func removeLegWithDB(tx *gorm.DB, kind models.LegKind, id string) error {
	if kind == models.LegKindInvestment {
		return removeTradeWithDB(tx, id)
	}
	return removeCashLegWithDB(tx, id)
}

// CreateTransfer debits the source by AmountFrom and credits the target by
// AmountTo. The fee is already part of AmountFrom and is only noted.
func (s *ledgerService) CreateTransfer(ctx context.Context, input CreateTransferInput) (*TransferResult, error) {
	if err := validateTransfer(input); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(input.FromAccountID, input.ToAccountID)
	defer unlock()

	var result *TransferResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.CreateTransferWithDB(ctx, tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validateTransfer(input CreateTransferInput) error {
	if input.FromAccountID == "" || input.ToAccountID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "both accounts are required")
	}
	if input.FromAccountID == input.ToAccountID {
		return apperrors.ErrSameAccountTransfer
	}
	if !input.AmountFrom.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount_from must be greater than zero")
	}
	if input.AmountTo.Valid && !input.AmountTo.Decimal.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount_to must be greater than zero")
	}
	if input.Fee.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "fee must not be negative")
	}
	return nil
}

// CreateTransferWithDB creates both legs and the transfer entity using the
// given transaction handle.
func (s *ledgerService) CreateTransferWithDB(ctx context.Context, tx *gorm.DB, input CreateTransferInput) (*TransferResult, error) {
	if err := validateTransfer(input); err != nil {
		return nil, err
	}

	from, err := loadAccount(tx, input.FromAccountID)
	if err != nil {
		return nil, err
	}
	to, err := loadAccount(tx, input.ToAccountID)
	if err != nil {
		return nil, err
	}

	amountTo := input.AmountFrom
	if input.AmountTo.Valid {
		amountTo = input.AmountTo.Decimal
	}
	date := calendar.Today()
	if !input.Date.IsZero() {
		date = calendar.Day(input.Date)
	}
	description := input.Description
	if input.Fee.IsPositive() {
		description = fmt.Sprintf("%s (fee: %s)", description, input.Fee.String())
	}

	transferID := uuid.New()
	sourceID, targetID := uuid.New(), uuid.New()
	bothCash := !from.IsInvestment() && !to.IsInvestment()

	transfer := &models.Transfer{
		Base:          models.Base{ID: transferID},
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		AmountFrom:    input.AmountFrom,
		AmountTo:      amountTo,
		Fee:           input.Fee,
		Date:          date,
		Description:   description,
	}
	result := &TransferResult{Transfer: transfer}

	// Source leg.
	if from.IsInvestment() {
		trade, err := s.tradeWithDB(ctx, tx, from, input.AmountFrom.Neg(), input.Price, date, description, &transferID)
		if err != nil {
			return nil, err
		}
		transfer.SourceLegKind, transfer.SourceLegID = models.LegKindInvestment, trade.ID
		result.Source = Movement{InvestmentTransaction: trade}
	} else {
		leg := &models.Transaction{
			Base:        models.Base{ID: sourceID},
			AccountID:   from.ID,
			Amount:      input.AmountFrom.Neg(),
			Description: description,
			Date:        date,
			TransferID:  &transferID,
			IsRecurring: input.IsRecurring,
		}
		if bothCash {
			leg.LinkedTransactionID = &targetID
		}
		if err := tx.Create(leg).Error; err != nil {
			return nil, storeError(err, apperrors.ErrInternalServer)
		}
		if err := adjustBalance(tx, from.ID, leg.Amount); err != nil {
			return nil, err
		}
		transfer.SourceLegKind, transfer.SourceLegID = models.LegKindCash, leg.ID
		result.Source = Movement{Transaction: leg}
	}

	// Target leg.
	if to.IsInvestment() {
		trade, err := s.tradeWithDB(ctx, tx, to, amountTo, input.Price, date, description, &transferID)
		if err != nil {
			return nil, err
		}
		transfer.TargetLegKind, transfer.TargetLegID = models.LegKindInvestment, trade.ID
		result.Target = Movement{InvestmentTransaction: trade}
	} else {
		leg := &models.Transaction{
			Base:        models.Base{ID: targetID},
			AccountID:   to.ID,
			Amount:      amountTo,
			Description: description,
			Date:        date,
			TransferID:  &transferID,
			IsRecurring: input.IsRecurring,
		}
		if bothCash {
			leg.LinkedTransactionID = &sourceID
		}
		if err := tx.Create(leg).Error; err != nil {
			return nil, storeError(err, apperrors.ErrInternalServer)
		}
		if err := adjustBalance(tx, to.ID, leg.Amount); err != nil {
			return nil, err
		}
		transfer.TargetLegKind, transfer.TargetLegID = models.LegKindCash, leg.ID
		result.Target = Movement{Transaction: leg}
	}

	if err := tx.Create(transfer).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}
	return result, nil
}

// DeleteTransfer removes both legs of a transfer and reverts both effects.
// A leg that is already gone is tolerated.
func (s *ledgerService) DeleteTransfer(ctx context.Context, id string) error {
	var transfer models.Transfer
	if err := s.db.WithContext(ctx).First(&transfer, "id = ?", id).Error; err != nil {
		return storeError(err, apperrors.ErrTransferNotFound)
	}

	unlock := s.locks.lock(transfer.FromAccountID, transfer.ToAccountID)
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteTransferWithDB(tx, &transfer)
	})
}

func deleteTransferWithDB(tx *gorm.DB, transfer *models.Transfer) error {
	legs := []struct {
		kind models.LegKind
		id   string
	}{
		{transfer.SourceLegKind, transfer.SourceLegID},
		{transfer.TargetLegKind, transfer.TargetLegID},
	}
	for _, leg := range legs {
		err := removeLegWithDB(tx, leg.kind, leg.id)
		if errors.Is(err, apperrors.ErrTransactionNotFound) || errors.Is(err, apperrors.ErrInvestmentTransactionNotFound) {
			logger.Get().Warnw("transfer leg already gone", "transfer_id", transfer.ID, "leg_kind", leg.kind, "leg_id", leg.id)
			continue
		}
		if err != nil {
			return err
		}
	}
	if err := tx.Delete(transfer).Error; err != nil {
		return storeError(err, apperrors.ErrInternalServer)
	}
	return nil
}

// DeleteInvestmentTransaction reverses a trade's quantity and deletes it.
func (s *ledgerService) DeleteInvestmentTransaction(ctx context.Context, id string) error {
	var trade models.InvestmentTransaction
	if err := s.db.WithContext(ctx).First(&trade, "id = ?", id).Error; err != nil {
		return storeError(err, apperrors.ErrInvestmentTransactionNotFound)
	}

	if trade.TransferID != nil {
		err := s.DeleteTransfer(ctx, *trade.TransferID)
		if !errors.Is(err, apperrors.ErrTransferNotFound) {
			return err
		}
	}

	unlock := s.locks.lock(trade.AccountID)
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return removeTradeWithDB(tx, id)
	})
}

// ReconcileBalance folds the account's movements and compares the result
// with the stored balance, optionally overwriting it.
func (s *ledgerService) ReconcileBalance(ctx context.Context, accountID string, fix bool) (*Reconciliation, error) {
	unlock := s.locks.lock(accountID)
	defer unlock()

	var result *Reconciliation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := loadAccount(tx, accountID)
		if err != nil {
			return err
		}

		computed, err := foldMovements(tx, accountID)
		if err != nil {
			return err
		}

		result = &Reconciliation{
			AccountID:  accountID,
			Stored:     account.Balance,
			Computed:   computed,
			Difference: account.Balance.Sub(computed),
		}
		if !fix || result.Consistent() {
			return nil
		}

		if err := tx.Model(&models.Account{}).Where("id = ?", accountID).
			Updates(map[string]interface{}{"balance": computed, "last_updated": time.Now()}).Error; err != nil {
			return storeError(err, apperrors.ErrInternalServer)
		}
		result.Fixed = true
		logger.Get().Infow("balance reconciled",
			"account_id", accountID,
			"stored", account.Balance.String(),
			"computed", computed.String(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// foldMovements sums the signed effect of every live movement on an account.
func foldMovements(tx *gorm.DB, accountID string) (decimal.Decimal, error) {
	var transactions []models.Transaction
	if err := tx.Select("amount").Where("account_id = ?", accountID).Find(&transactions).Error; err != nil {
		return decimal.Zero, storeError(err, apperrors.ErrInternalServer)
	}
	var trades []models.InvestmentTransaction
	if err := tx.Select("type", "quantity").Where("account_id = ?", accountID).Find(&trades).Error; err != nil {
		return decimal.Zero, storeError(err, apperrors.ErrInternalServer)
	}

	total := decimal.Zero
	for _, t := range transactions {
		total = total.Add(t.Amount)
	}
	for i := range trades {
		total = total.Add(trades[i].SignedQuantity())
	}
	return total, nil
}
