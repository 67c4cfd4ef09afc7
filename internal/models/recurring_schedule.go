package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleKind selects what a schedule materializes.
type ScheduleKind string

const (
	ScheduleKindTransaction ScheduleKind = "transaction"
	ScheduleKindTransfer    ScheduleKind = "transfer"
)

// Frequency is the cadence of a schedule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// RecurringSchedule is a rule that materializes a transaction or a transfer
// on matching calendar days, at most once per day.
type RecurringSchedule struct {
	Base
	Kind      ScheduleKind `gorm:"not null" json:"kind"`
	Frequency Frequency    `gorm:"not null" json:"frequency"`

	// DayOfWeek is 0 (Sunday) to 6, set for weekly schedules only.
	DayOfWeek *int `json:"day_of_week,omitempty"`
	// DayOfMonth is 1 to 31, set for monthly schedules only. Short months
	// fire on their last day.
	DayOfMonth *int `json:"day_of_month,omitempty"`

	AccountID   string              `gorm:"type:uuid;not null;index" json:"account_id"`
	ToAccountID *string             `gorm:"type:uuid;index" json:"to_account_id,omitempty"`
	CategoryID  *string             `json:"category_id,omitempty"`
	Amount      decimal.Decimal     `gorm:"type:decimal(24,8);not null" json:"amount"`
	AmountTo    decimal.NullDecimal `gorm:"type:decimal(24,8)" json:"amount_to"`
	Description string              `json:"description"`

	IsActive             bool       `gorm:"not null;index" json:"is_active"`
	LastProcessedDate    *time.Time `gorm:"type:date" json:"last_processed_date,omitempty"`
	RemainingOccurrences *int       `json:"remaining_occurrences,omitempty"`
	EndDate              *time.Time `gorm:"type:date" json:"end_date,omitempty"`
}

// TargetAmount is the amount credited to the destination of a transfer.
func (s *RecurringSchedule) TargetAmount() decimal.Decimal {
	if s.AmountTo.Valid {
		return s.AmountTo.Decimal
	}
	return s.Amount
}
