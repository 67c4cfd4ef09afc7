package services

import (
	"context"
	"testing"

	"finledger/internal/calendar"
	"finledger/internal/pagination"
	"finledger/internal/testutil"
)

func TestListTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("filters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		a := testutil.CreateTestCashAccount(t, db, "HUF")
		b := testutil.CreateTestCashAccount(t, db, "HUF")

		testutil.CreateTestTransaction(t, db, a.ID, "-10", calendar.Date(2024, 1, 5), testutil.StrPtr("food"))
		testutil.CreateTestTransaction(t, db, a.ID, "-200", calendar.Date(2024, 2, 5), testutil.StrPtr("rent"))
		testutil.CreateTestTransaction(t, db, a.ID, "1000", calendar.Date(2024, 3, 5), nil)
		testutil.CreateTestTransaction(t, db, b.ID, "-15", calendar.Date(2024, 1, 6), testutil.StrPtr("food"))

		page := pagination.PageRequest{Page: 1, PageSize: 20}

		byAccount, err := svc.ListTransactions(ctx, TransactionFilter{AccountID: &a.ID}, page, pagination.SortRequest{})
		testutil.AssertNoError(t, err)
		if byAccount.TotalItems != 3 {
			t.Errorf("expected 3 transactions on account a, got %d", byAccount.TotalItems)
		}

		food := "food"
		byCategory, err := svc.ListTransactions(ctx, TransactionFilter{CategoryID: &food}, page, pagination.SortRequest{})
		testutil.AssertNoError(t, err)
		if byCategory.TotalItems != 2 {
			t.Errorf("expected 2 food transactions, got %d", byCategory.TotalItems)
		}

		from, to := calendar.Date(2024, 1, 6), calendar.Date(2024, 2, 5)
		byDate, err := svc.ListTransactions(ctx, TransactionFilter{FromDate: &from, ToDate: &to}, page, pagination.SortRequest{})
		testutil.AssertNoError(t, err)
		if byDate.TotalItems != 2 {
			t.Errorf("expected 2 transactions in range, got %d", byDate.TotalItems)
		}

		maxAmount := testutil.Dec("-100")
		byAmount, err := svc.ListTransactions(ctx, TransactionFilter{MaxAmount: &maxAmount}, page, pagination.SortRequest{})
		testutil.AssertNoError(t, err)
		if byAmount.TotalItems != 1 {
			t.Errorf("expected 1 transaction at or below -100, got %d", byAmount.TotalItems)
		}
	})

	t.Run("default_sort_newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		a := testutil.CreateTestCashAccount(t, db, "HUF")

		testutil.CreateTestTransaction(t, db, a.ID, "-1", calendar.Date(2024, 1, 1), nil)
		newest := testutil.CreateTestTransaction(t, db, a.ID, "-2", calendar.Date(2024, 6, 1), nil)
		testutil.CreateTestTransaction(t, db, a.ID, "-3", calendar.Date(2024, 3, 1), nil)

		result, err := svc.ListTransactions(ctx, TransactionFilter{}, pagination.PageRequest{}, pagination.SortRequest{})
		testutil.AssertNoError(t, err)
		if result.Data[0].ID != newest.ID {
			t.Errorf("expected newest first, got %s", result.Data[0].Date)
		}
	})

	t.Run("sort_by_amount_ascending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		a := testutil.CreateTestCashAccount(t, db, "HUF")

		testutil.CreateTestTransaction(t, db, a.ID, "-1", calendar.Date(2024, 1, 1), nil)
		smallest := testutil.CreateTestTransaction(t, db, a.ID, "-50", calendar.Date(2024, 1, 2), nil)

		result, err := svc.ListTransactions(ctx, TransactionFilter{}, pagination.PageRequest{},
			pagination.SortRequest{SortBy: "amount", SortOrder: "asc"})
		testutil.AssertNoError(t, err)
		if result.Data[0].ID != smallest.ID {
			t.Errorf("expected smallest amount first, got %s", result.Data[0].Amount)
		}
	})

	t.Run("invalid_sort_field", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)

		_, err := svc.ListTransactions(ctx, TransactionFilter{}, pagination.PageRequest{},
			pagination.SortRequest{SortBy: "account_id; DROP TABLE accounts"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("found_and_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		a := testutil.CreateTestCashAccount(t, db, "HUF")
		created := testutil.CreateTestTransaction(t, db, a.ID, "-1", calendar.Date(2024, 1, 1), nil)

		got, err := svc.GetTransaction(ctx, created.ID)
		testutil.AssertNoError(t, err)
		if got.ID != created.ID {
			t.Errorf("expected %s, got %s", created.ID, got.ID)
		}

		_, err = svc.GetTransaction(ctx, "01900000-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestFindByAccountAndDatePattern(t *testing.T) {
	ctx := context.Background()

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db)
	a := testutil.CreateTestCashAccount(t, db, "HUF")
	b := testutil.CreateTestCashAccount(t, db, "HUF")

	testutil.CreateTestTransaction(t, db, a.ID, "-1", calendar.Date(2023, 12, 31), nil)
	testutil.CreateTestTransaction(t, db, a.ID, "-2", calendar.Date(2024, 2, 1), nil)
	testutil.CreateTestTransaction(t, db, a.ID, "-3", calendar.Date(2024, 2, 29), nil)
	testutil.CreateTestTransaction(t, db, a.ID, "-4", calendar.Date(2024, 3, 1), nil)
	testutil.CreateTestTransaction(t, db, b.ID, "-5", calendar.Date(2024, 2, 10), nil)

	tests := []struct {
		pattern string
		want    int
	}{
		{"2024", 3},
		{"2024-02", 2},
		{"2024-02-29", 1},
		{"2023", 1},
		{"2022", 0},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := svc.FindByAccountAndDatePattern(ctx, a.ID, tt.pattern)
			testutil.AssertNoError(t, err)
			if len(got) != tt.want {
				t.Errorf("pattern %s: expected %d, got %d", tt.pattern, tt.want, len(got))
			}
		})
	}

	t.Run("invalid_pattern", func(t *testing.T) {
		_, err := svc.FindByAccountAndDatePattern(ctx, a.ID, "02/2024")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestFindByDateRange(t *testing.T) {
	ctx := context.Background()

	t.Run("inclusive_bounds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		a := testutil.CreateTestCashAccount(t, db, "HUF")

		testutil.CreateTestTransaction(t, db, a.ID, "-1", calendar.Date(2024, 1, 1), nil)
		testutil.CreateTestTransaction(t, db, a.ID, "-2", calendar.Date(2024, 1, 15), nil)
		testutil.CreateTestTransaction(t, db, a.ID, "-3", calendar.Date(2024, 1, 31), nil)
		testutil.CreateTestTransaction(t, db, a.ID, "-4", calendar.Date(2024, 2, 1), nil)

		got, err := svc.FindByDateRange(ctx, calendar.Date(2024, 1, 1), calendar.Date(2024, 1, 31))
		testutil.AssertNoError(t, err)
		if len(got) != 3 {
			t.Errorf("expected 3 transactions, got %d", len(got))
		}
	})

	t.Run("reversed_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)

		_, err := svc.FindByDateRange(ctx, calendar.Date(2024, 2, 1), calendar.Date(2024, 1, 1))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestFindActiveOrRecurring(t *testing.T) {
	ctx := context.Background()

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db)
	a := testutil.CreateTestCashAccount(t, db, "HUF")

	old := testutil.CreateTestTransaction(t, db, a.ID, "-1", calendar.Date(2023, 1, 1), nil)
	oldRecurring := testutil.CreateTestTransaction(t, db, a.ID, "-2", calendar.Date(2023, 1, 2), nil)
	db.Model(oldRecurring).Update("is_recurring", true)
	recent := testutil.CreateTestTransaction(t, db, a.ID, "-3", calendar.Date(2024, 5, 1), nil)

	got, err := svc.FindActiveOrRecurring(ctx, calendar.Date(2024, 1, 1))
	testutil.AssertNoError(t, err)

	ids := map[string]bool{}
	for _, tr := range got {
		ids[tr.ID] = true
	}
	if len(got) != 2 || !ids[recent.ID] || !ids[oldRecurring.ID] {
		t.Errorf("expected recent and recurring transactions, got %d rows", len(got))
	}
	if ids[old.ID] {
		t.Error("expected old non-recurring transaction excluded")
	}
}
