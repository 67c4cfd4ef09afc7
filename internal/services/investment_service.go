package services

import (
	"context"

	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// investmentService is the query side of the trade and transfer stores.
type investmentService struct {
	db *gorm.DB
}

// NewInvestmentService creates a new InvestmentServicer.
func NewInvestmentService(db *gorm.DB) InvestmentServicer {
	return &investmentService{db: db}
}

// GetInvestmentTransaction retrieves a trade by ID.
func (s *investmentService) GetInvestmentTransaction(ctx context.Context, id string) (*models.InvestmentTransaction, error) {
	var trade models.InvestmentTransaction
	if err := s.db.WithContext(ctx).First(&trade, "id = ?", id).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInvestmentTransactionNotFound)
	}
	return &trade, nil
}

// ListInvestmentTransactions lists the trades of one account, newest first.
func (s *investmentService) ListInvestmentTransactions(ctx context.Context, accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.InvestmentTransaction], error) {
	if _, err := loadAccount(s.db.WithContext(ctx), accountID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.InvestmentTransaction{}).Where("account_id = ?", accountID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}

	var trades []models.InvestmentTransaction
	if err := base.Order("date DESC").Order("id DESC").Scopes(pagination.Paginate(page)).Find(&trades).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}

	result := pagination.NewPageResponse(trades, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransfer retrieves a transfer entity by ID.
func (s *investmentService) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := s.db.WithContext(ctx).First(&transfer, "id = ?", id).Error; err != nil {
		return nil, storeError(err, apperrors.ErrTransferNotFound)
	}
	return &transfer, nil
}
