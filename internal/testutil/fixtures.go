package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finledger/internal/calendar"
	"finledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal, panicking on bad input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestCashAccount creates a cash account in the given currency with zero balance.
func CreateTestCashAccount(t *testing.T, db *gorm.DB, currency string) *models.Account {
	t.Helper()
	return CreateTestCashAccountWithBalance(t, db, currency, "0")
}

// CreateTestCashAccountWithBalance creates a cash account with the given
// balance. No opening movement is recorded.
func CreateTestCashAccountWithBalance(t *testing.T, db *gorm.DB, currency, balance string) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:        fmt.Sprintf("Test Account %d", nextID()),
		Type:        models.AccountTypeCash,
		Balance:     Dec(balance),
		Currency:    currency,
		LastUpdated: time.Now(),
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test cash account: %v", err)
	}
	return account
}

// CreateTestInvestmentAccount creates an investment account holding symbol.
func CreateTestInvestmentAccount(t *testing.T, db *gorm.DB, symbol string) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:        fmt.Sprintf("Test Investment Account %d", nextID()),
		Type:        models.AccountTypeInvestment,
		Currency:    "SHARE",
		Symbol:      symbol,
		AssetType:   "etf",
		LastUpdated: time.Now(),
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test investment account: %v", err)
	}
	return account
}

// CreateTestTransaction inserts a transaction row without touching the
// account balance. Use it to seed history.
func CreateTestTransaction(t *testing.T, db *gorm.DB, accountID, amount string, date time.Time, categoryID *string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		AccountID:   accountID,
		CategoryID:  categoryID,
		Amount:      Dec(amount),
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        calendar.Day(date),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestSchedule inserts a schedule as given, marking it active.
func CreateTestSchedule(t *testing.T, db *gorm.DB, schedule *models.RecurringSchedule) *models.RecurringSchedule {
	t.Helper()

	schedule.IsActive = true
	if schedule.Description == "" {
		schedule.Description = fmt.Sprintf("Test Schedule %d", nextID())
	}
	if err := db.Create(schedule).Error; err != nil {
		t.Fatalf("failed to create test schedule: %v", err)
	}
	return schedule
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }

// ReloadAccount reads the account back from the store.
func ReloadAccount(t *testing.T, db *gorm.DB, id string) *models.Account {
	t.Helper()

	var account models.Account
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload account %s: %v", id, err)
	}
	return &account
}

// AssertBalance fails the test unless the stored balance equals want.
func AssertBalance(t *testing.T, db *gorm.DB, accountID, want string) {
	t.Helper()

	got := ReloadAccount(t, db, accountID).Balance
	if !got.Equal(Dec(want)) {
		t.Errorf("expected balance %s, got %s", want, got)
	}
}
