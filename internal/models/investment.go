package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentTransactionType represents the type of investment transaction.
type InvestmentTransactionType string

const (
	InvestmentTransactionBuy  InvestmentTransactionType = "buy"
	InvestmentTransactionSell InvestmentTransactionType = "sell"
)

// InvestmentTransaction is a buy or sell of units on an investment account.
type InvestmentTransaction struct {
	Base
	AccountID   string                    `gorm:"type:uuid;not null;index" json:"account_id"`
	Type        InvestmentTransactionType `gorm:"not null" json:"type"`
	Quantity    decimal.Decimal           `gorm:"type:decimal(24,8);not null" json:"quantity"`
	Price       decimal.Decimal           `gorm:"type:decimal(24,8);not null" json:"price"`
	TotalAmount decimal.Decimal           `gorm:"type:decimal(24,8);not null" json:"total_amount"`
	Date        time.Time                 `gorm:"type:date;not null;index" json:"date"`
	Notes       string                    `json:"notes"`
	TransferID  *string                   `gorm:"type:uuid;index" json:"transfer_id,omitempty"`
}

// SignedQuantity is the effect of the trade on the account balance.
func (t *InvestmentTransaction) SignedQuantity() decimal.Decimal {
	if t.Type == InvestmentTransactionSell {
		return t.Quantity.Neg()
	}
	return t.Quantity
}
