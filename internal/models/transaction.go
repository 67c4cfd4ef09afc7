package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a signed monetary movement on a cash account. Positive
// amounts are income, negative amounts are spending.
type Transaction struct {
	Base
	AccountID   string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID  *string         `gorm:"index" json:"category_id,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`

	// Price is the unit price recorded for the movement, if any.
	Price decimal.NullDecimal `gorm:"type:decimal(24,8)" json:"price"`

	// Transfer legs. LinkedTransactionID points at the opposite cash leg.
	LinkedTransactionID *string `gorm:"type:uuid" json:"linked_transaction_id,omitempty"`
	TransferID          *string `gorm:"type:uuid;index" json:"transfer_id,omitempty"`

	ExcludeFromEstimate bool `gorm:"not null;default:false" json:"exclude_from_estimate"`
	IsRecurring         bool `gorm:"not null;default:false" json:"is_recurring"`
}

// IsTransferLeg reports whether the transaction belongs to a transfer.
func (t *Transaction) IsTransferLeg() bool {
	return t.TransferID != nil || t.LinkedTransactionID != nil
}
