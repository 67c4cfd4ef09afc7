package testutil_test

import (
	"context"
	"testing"
	"time"

	"finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"accounts", "transactions", "investment_transactions", "transfers", "recurring_schedules", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestCashAccount(t, first, "HUF")

	var count int64
	second.Model(&models.Account{}).Count(&count)
	if count != 0 {
		t.Errorf("expected isolated database, found %d accounts", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	account := testutil.CreateTestCashAccountWithBalance(t, db, "HUF", "1000")
	if account.ID == "" {
		t.Fatal("account should have an ID")
	}
	testutil.AssertBalance(t, db, account.ID, "1000")

	inv := testutil.CreateTestInvestmentAccount(t, db, "VWCE.DE")
	if inv.Type != models.AccountTypeInvestment {
		t.Errorf("expected investment account type, got %s", inv.Type)
	}

	tx := testutil.CreateTestTransaction(t, db, account.ID, "-12.5", time.Now(), testutil.StrPtr("food"))
	if !tx.Amount.Equal(testutil.Dec("-12.5")) {
		t.Errorf("expected amount -12.5, got %s", tx.Amount)
	}
	testutil.AssertBalance(t, db, account.ID, "1000")
}

func TestFakeQuotes(t *testing.T) {
	q := &testutil.FakeQuotes{Prices: map[string]string{"AAPL": "190.5"}}

	price, err := q.GetQuote(context.Background(), "AAPL")
	testutil.AssertNoError(t, err)
	if !price.Equal(testutil.Dec("190.5")) {
		t.Errorf("expected 190.5, got %s", price)
	}

	_, err = q.GetQuote(context.Background(), "MSFT")
	testutil.AssertAppError(t, err, "PRICE_UNAVAILABLE")
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
