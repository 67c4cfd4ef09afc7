package models

import (
	"time"

	"finledger/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables. Deletes are soft.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// All lists every persisted model, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Account{},
		&Transaction{},
		&InvestmentTransaction{},
		&Transfer{},
		&RecurringSchedule{},
		&AuditLog{},
	}
}
