package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
)

// storeError maps a gorm failure to the taxonomy. Record-not-found becomes
// notFound; anything else is StoreUnavailable.
func storeError(err error, notFound *apperrors.AppError) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.Wrap(apperrors.ErrStoreUnavailable, err)
}

func loadAccount(tx *gorm.DB, id string) (*models.Account, error) {
	var account models.Account
	if err := tx.First(&account, "id = ?", id).Error; err != nil {
		return nil, storeError(err, apperrors.ErrAccountNotFound)
	}
	return &account, nil
}

// adjustBalance adds delta to the stored balance in a single statement, so
// concurrent writers cannot lose each other's updates.
func adjustBalance(tx *gorm.DB, accountID string, delta decimal.Decimal) error {
	res := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance + ?", delta),
			"last_updated": time.Now(),
		})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}
