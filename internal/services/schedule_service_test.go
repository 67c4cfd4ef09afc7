package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/calendar"
	"finledger/internal/models"
	"finledger/internal/pagination"
	"finledger/internal/testutil"
)

func monthlyInput(accountID string, day int) ScheduleInput {
	return ScheduleInput{
		Kind:        models.ScheduleKindTransaction,
		Frequency:   models.FrequencyMonthly,
		DayOfMonth:  testutil.IntPtr(day),
		AccountID:   accountID,
		CategoryID:  testutil.StrPtr("rent"),
		Amount:      testutil.Dec("-500"),
		Description: "Rent",
	}
}

func TestScheduleService_CreateSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("monthly_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewScheduleService(db)
		account := testutil.CreateTestCashAccount(t, db, "HUF")

		input := monthlyInput(account.ID, 31)
		input.EndDate = testutil.TimePtr(calendar.Date(2024, 12, 31).Add(15 * time.Hour))
		schedule, err := svc.CreateSchedule(ctx, input)
		testutil.AssertNoError(t, err)

		if !schedule.IsActive {
			t.Error("expected new schedule to be active")
		}
		if schedule.LastProcessedDate != nil {
			t.Error("expected no last processed date")
		}
		if !schedule.EndDate.Equal(calendar.Date(2024, 12, 31)) {
			t.Errorf("expected end date truncated to the day, got %v", schedule.EndDate)
		}
	})

	t.Run("transfer_with_target_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewScheduleService(db)
		from := testutil.CreateTestCashAccount(t, db, "HUF")
		to := testutil.CreateTestCashAccount(t, db, "EUR")

		schedule, err := svc.CreateSchedule(ctx, ScheduleInput{
			Kind:        models.ScheduleKindTransfer,
			Frequency:   models.FrequencyWeekly,
			DayOfWeek:   testutil.IntPtr(1),
			AccountID:   from.ID,
			ToAccountID: &to.ID,
			Amount:      testutil.Dec("4000"),
			AmountTo:    decimal.NewNullDecimal(testutil.Dec("10")),
		})
		testutil.AssertNoError(t, err)
		if !schedule.TargetAmount().Equal(testutil.Dec("10")) {
			t.Errorf("expected target amount 10, got %s", schedule.TargetAmount())
		}
	})

	t.Run("rejects_invalid_shapes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewScheduleService(db)
		account := testutil.CreateTestCashAccount(t, db, "HUF")
		other := testutil.CreateTestCashAccount(t, db, "HUF")

		tests := []struct {
			name   string
			mutate func(in *ScheduleInput)
			code   string
		}{
			{"unknown_frequency", func(in *ScheduleInput) { in.Frequency = "yearly" }, "INVALID_SCHEDULE"},
			{"day_of_month_zero", func(in *ScheduleInput) { in.DayOfMonth = testutil.IntPtr(0) }, "INVALID_SCHEDULE"},
			{"day_of_month_32", func(in *ScheduleInput) { in.DayOfMonth = testutil.IntPtr(32) }, "INVALID_SCHEDULE"},
			{"monthly_with_weekday", func(in *ScheduleInput) { in.DayOfWeek = testutil.IntPtr(2) }, "INVALID_SCHEDULE"},
			{"weekly_without_weekday", func(in *ScheduleInput) {
				in.Frequency = models.FrequencyWeekly
				in.DayOfMonth = nil
			}, "INVALID_SCHEDULE"},
			{"weekly_day_seven", func(in *ScheduleInput) {
				in.Frequency = models.FrequencyWeekly
				in.DayOfMonth = nil
				in.DayOfWeek = testutil.IntPtr(7)
			}, "INVALID_SCHEDULE"},
			{"daily_with_day", func(in *ScheduleInput) { in.Frequency = models.FrequencyDaily }, "INVALID_SCHEDULE"},
			{"zero_amount", func(in *ScheduleInput) { in.Amount = decimal.Zero }, "INVALID_SCHEDULE"},
			{"zero_remaining", func(in *ScheduleInput) { in.RemainingOccurrences = testutil.IntPtr(0) }, "INVALID_SCHEDULE"},
			{"missing_category", func(in *ScheduleInput) { in.CategoryID = nil }, "INVALID_SCHEDULE"},
			{"transaction_with_target", func(in *ScheduleInput) { in.ToAccountID = &other.ID }, "INVALID_SCHEDULE"},
			{"transaction_with_amount_to", func(in *ScheduleInput) { in.AmountTo = decimal.NewNullDecimal(testutil.Dec("5")) }, "INVALID_SCHEDULE"},
			{"unknown_kind", func(in *ScheduleInput) { in.Kind = "payment" }, "INVALID_SCHEDULE"},
			{"transfer_without_target", func(in *ScheduleInput) { in.Kind = models.ScheduleKindTransfer }, "INVALID_SCHEDULE"},
			{"transfer_to_self", func(in *ScheduleInput) {
				in.Kind = models.ScheduleKindTransfer
				in.ToAccountID = &account.ID
			}, "SAME_ACCOUNT_TRANSFER"},
			{"negative_transfer", func(in *ScheduleInput) {
				in.Kind = models.ScheduleKindTransfer
				in.ToAccountID = &other.ID
			}, "INVALID_SCHEDULE"},
			{"missing_account", func(in *ScheduleInput) { in.AccountID = "01900000-0000-7000-8000-000000000999" }, "ACCOUNT_NOT_FOUND"},
			{"missing_target_account", func(in *ScheduleInput) {
				in.Kind = models.ScheduleKindTransfer
				in.Amount = testutil.Dec("5")
				in.ToAccountID = testutil.StrPtr("01900000-0000-7000-8000-000000000999")
			}, "ACCOUNT_NOT_FOUND"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				input := monthlyInput(account.ID, 15)
				tt.mutate(&input)
				_, err := svc.CreateSchedule(ctx, input)
				testutil.AssertAppError(t, err, tt.code)
			})
		}

		var count int64
		db.Model(&models.RecurringSchedule{}).Count(&count)
		if count != 0 {
			t.Errorf("expected nothing stored, got %d schedules", count)
		}
	})
}

func TestScheduleService_ListSchedules(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewScheduleService(db)
	a := testutil.CreateTestCashAccount(t, db, "HUF")
	b := testutil.CreateTestCashAccount(t, db, "HUF")
	c := testutil.CreateTestCashAccount(t, db, "HUF")

	_, err := svc.CreateSchedule(ctx, monthlyInput(a.ID, 1))
	testutil.AssertNoError(t, err)
	transfer, err := svc.CreateSchedule(ctx, ScheduleInput{
		Kind:        models.ScheduleKindTransfer,
		Frequency:   models.FrequencyDaily,
		AccountID:   c.ID,
		ToAccountID: &b.ID,
		Amount:      testutil.Dec("10"),
	})
	testutil.AssertNoError(t, err)
	inactive, err := svc.CreateSchedule(ctx, monthlyInput(b.ID, 2))
	testutil.AssertNoError(t, err)
	off := false
	_, err = svc.UpdateSchedule(ctx, inactive.ID, ScheduleUpdateFields{IsActive: &off})
	testutil.AssertNoError(t, err)

	t.Run("by_account_either_side", func(t *testing.T) {
		result, err := svc.ListSchedules(ctx, ScheduleFilter{AccountID: &b.ID}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 schedules touching b, got %d", result.TotalItems)
		}
	})

	t.Run("active_only", func(t *testing.T) {
		on := true
		result, err := svc.ListSchedules(ctx, ScheduleFilter{IsActive: &on}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 active schedules, got %d", result.TotalItems)
		}
	})

	t.Run("by_kind", func(t *testing.T) {
		kind := models.ScheduleKindTransfer
		result, err := svc.ListSchedules(ctx, ScheduleFilter{Kind: &kind}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if len(result.Data) != 1 || result.Data[0].ID != transfer.ID {
			t.Errorf("expected only the transfer schedule, got %+v", result.Data)
		}
	})

	t.Run("find_active", func(t *testing.T) {
		active, err := svc.FindActive(ctx)
		testutil.AssertNoError(t, err)
		if len(active) != 2 {
			t.Errorf("expected 2 active schedules, got %d", len(active))
		}
		for _, s := range active {
			if s.ID == inactive.ID {
				t.Error("inactive schedule returned")
			}
		}
	})
}

func TestScheduleService_UpdateSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("switch_to_weekly", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewScheduleService(db)
		account := testutil.CreateTestCashAccount(t, db, "HUF")
		schedule, err := svc.CreateSchedule(ctx, monthlyInput(account.ID, 10))
		testutil.AssertNoError(t, err)

		weekly := models.FrequencyWeekly
		monday := testutil.IntPtr(1)
		updated, err := svc.UpdateSchedule(ctx, schedule.ID, ScheduleUpdateFields{
			Frequency: &weekly,
			DayOfWeek: &monday,
		})
		testutil.AssertNoError(t, err)
		if updated.DayOfMonth != nil {
			t.Error("expected day_of_month cleared")
		}
		if updated.DayOfWeek == nil || *updated.DayOfWeek != 1 {
			t.Errorf("expected day_of_week 1, got %v", updated.DayOfWeek)
		}
	})

	t.Run("switch_without_day_fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewScheduleService(db)
		account := testutil.CreateTestCashAccount(t, db, "HUF")
		schedule, err := svc.CreateSchedule(ctx, monthlyInput(account.ID, 10))
		testutil.AssertNoError(t, err)

		weekly := models.FrequencyWeekly
		_, err = svc.UpdateSchedule(ctx, schedule.ID, ScheduleUpdateFields{Frequency: &weekly})
		testutil.AssertAppError(t, err, "INVALID_SCHEDULE")

		stored, err := svc.GetSchedule(ctx, schedule.ID)
		testutil.AssertNoError(t, err)
		if stored.Frequency != models.FrequencyMonthly {
			t.Errorf("expected schedule unchanged, got %s", stored.Frequency)
		}
	})

	t.Run("clears_optional_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewScheduleService(db)
		account := testutil.CreateTestCashAccount(t, db, "HUF")
		input := monthlyInput(account.ID, 10)
		input.RemainingOccurrences = testutil.IntPtr(3)
		input.EndDate = testutil.TimePtr(calendar.Date(2030, 1, 1))
		schedule, err := svc.CreateSchedule(ctx, input)
		testutil.AssertNoError(t, err)

		var noInt *int
		var noTime *time.Time
		amount := testutil.Dec("-650")
		updated, err := svc.UpdateSchedule(ctx, schedule.ID, ScheduleUpdateFields{
			RemainingOccurrences: &noInt,
			EndDate:              &noTime,
			Amount:               &amount,
		})
		testutil.AssertNoError(t, err)
		if updated.RemainingOccurrences != nil || updated.EndDate != nil {
			t.Errorf("expected limits cleared, got %v %v", updated.RemainingOccurrences, updated.EndDate)
		}
		if !updated.Amount.Equal(amount) {
			t.Errorf("expected amount -650, got %s", updated.Amount)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewScheduleService(db)

		desc := "x"
		_, err := svc.UpdateSchedule(ctx, "01900000-0000-7000-8000-000000000999", ScheduleUpdateFields{Description: &desc})
		testutil.AssertAppError(t, err, "SCHEDULE_NOT_FOUND")
	})
}

func TestScheduleService_DeleteSchedule(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewScheduleService(db)
	account := testutil.CreateTestCashAccount(t, db, "HUF")
	schedule, err := svc.CreateSchedule(ctx, monthlyInput(account.ID, 10))
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, svc.DeleteSchedule(ctx, schedule.ID))

	_, err = svc.GetSchedule(ctx, schedule.ID)
	testutil.AssertAppError(t, err, "SCHEDULE_NOT_FOUND")
	testutil.AssertAppError(t, svc.DeleteSchedule(ctx, schedule.ID), "SCHEDULE_NOT_FOUND")
}
