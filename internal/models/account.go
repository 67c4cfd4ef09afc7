package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeInvestment AccountType = "investment"
)

// Account is a money or holdings container. For investment accounts the
// balance is a quantity of units of Symbol, not a monetary value.
type Account struct {
	Base
	Name     string          `gorm:"not null" json:"name"`
	Type     AccountType     `gorm:"not null;index" json:"type"`
	Balance  decimal.Decimal `gorm:"type:decimal(24,8);not null;default:0" json:"balance"`
	Currency string          `gorm:"size:16;not null" json:"currency"`

	// For investment accounts
	Symbol    string `json:"symbol,omitempty"`
	AssetType string `json:"asset_type,omitempty"`

	ExcludeFromNetWorth   bool      `gorm:"not null;default:false" json:"exclude_from_net_worth"`
	ExcludeFromCashTotals bool      `gorm:"not null;default:false" json:"exclude_from_cash_totals"`
	LastUpdated           time.Time `json:"last_updated"`
}

// IsInvestment reports whether balance changes are quantity changes.
func (a *Account) IsInvestment() bool {
	return a.Type == AccountTypeInvestment
}

// QuoteSymbol is the ticker used to price the account's units. Accounts
// without a symbol are priced by their currency code.
func (a *Account) QuoteSymbol() string {
	if a.Symbol != "" {
		return a.Symbol
	}
	return a.Currency
}
