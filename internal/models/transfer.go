package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegKind names the table a transfer leg lives in.
type LegKind string

const (
	LegKindCash       LegKind = "cash"
	LegKindInvestment LegKind = "investment"
)

// Transfer ties the two legs of a cross-account movement together so
// either leg can find and remove the other.
type Transfer struct {
	Base
	FromAccountID string          `gorm:"type:uuid;not null;index" json:"from_account_id"`
	ToAccountID   string          `gorm:"type:uuid;not null;index" json:"to_account_id"`
	SourceLegKind LegKind         `gorm:"not null" json:"source_leg_kind"`
	SourceLegID   string          `gorm:"type:uuid;not null" json:"source_leg_id"`
	TargetLegKind LegKind         `gorm:"not null" json:"target_leg_kind"`
	TargetLegID   string          `gorm:"type:uuid;not null" json:"target_leg_id"`
	AmountFrom    decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"amount_from"`
	AmountTo      decimal.Decimal `gorm:"type:decimal(24,8);not null" json:"amount_to"`
	Fee           decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0" json:"fee"`
	Date          time.Time       `gorm:"type:date;not null" json:"date"`
	Description   string          `json:"description"`
}
