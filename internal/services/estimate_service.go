package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finledger/internal/calendar"
	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
	"finledger/internal/models"
	"finledger/internal/provider"
	"finledger/internal/recurrence"
)

const (
	recentMonths       = 6
	fullConfidenceAt   = 12
	estimateRoundPlace = 2
)

var (
	recentWeight = decimal.RequireFromString("0.7")
	fullWeight   = decimal.RequireFromString("0.3")
)

// estimateService projects spending from history and active schedules.
type estimateService struct {
	db              *gorm.DB
	schedules       ScheduleServicer
	rates           provider.RateProvider
	defaultCurrency string
}

// NewEstimateService creates a new EstimateServicer. Requests without a
// currency are answered in defaultCurrency.
func NewEstimateService(db *gorm.DB, schedules ScheduleServicer, rates provider.RateProvider, defaultCurrency string) EstimateServicer {
	return &estimateService{
		db:              db,
		schedules:       schedules,
		rates:           rates,
		defaultCurrency: strings.ToUpper(defaultCurrency),
	}
}

// expense is one historical spend, already converted and made positive.
type expense struct {
	month    time.Time
	day      int
	category string
	spend    decimal.Decimal
}

// window is the horizon period containing today.
type window struct {
	start, end time.Time
	week       int
}

func periodFor(h Horizon, today time.Time) window {
	monthStart := calendar.MonthStart(today)
	if h == HorizonWeek {
		w := calendar.WeekOfMonth(today)
		first, last := calendar.WeekBounds(monthStart, w)
		return window{
			start: monthStart.AddDate(0, 0, first-1),
			end:   monthStart.AddDate(0, 0, last-1),
			week:  w,
		}
	}
	return window{
		start: monthStart,
		end:   monthStart.AddDate(0, 0, calendar.DaysIn(today)-1),
	}
}

// Estimate blends recent and full-history monthly spend with the remaining
// recurring charges of the current period.
func (s *estimateService) Estimate(ctx context.Context, req EstimateRequest) (*Estimate, error) {
	horizon := req.Horizon
	if horizon == "" {
		horizon = HorizonMonth
	}
	if horizon != HorizonMonth && horizon != HorizonWeek {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "horizon must be week or month")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	today := calendar.Today()
	if !req.Today.IsZero() {
		today = calendar.Day(req.Today)
	}
	period := periodFor(horizon, today)

	categories := make(map[string]bool, len(req.CategoryIDs))
	for _, id := range req.CategoryIDs {
		categories[id] = true
	}
	allowed := func(categoryID *string) bool {
		if len(categories) == 0 {
			return true
		}
		return categories[categoryKey(categoryID)]
	}

	currencies, err := s.accountCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	rates := s.rates.GetRates(ctx, currency)
	convert := func(amount decimal.Decimal, accountID string) decimal.Decimal {
		rate, ok := rates[currencies[accountID]]
		if !ok || rate.IsZero() {
			return amount
		}
		return amount.Div(rate)
	}

	history, err := s.history(ctx, today, allowed, convert)
	if err != nil {
		return nil, err
	}

	months := historyMonths(history, today)
	n := len(months)
	recentFrom := 0
	if n > recentMonths {
		recentFrom = n - recentMonths
	}

	// Per-month values keyed by category; index i matches months[i].
	perMonth := make(map[string][]decimal.Decimal)
	total := make([]decimal.Decimal, n)
	index := make(map[time.Time]int, n)
	for i, m := range months {
		index[m] = i
	}
	for _, e := range history {
		i, ok := index[e.month]
		if !ok {
			continue
		}
		if horizon == HorizonWeek {
			first, last := calendar.WeekBounds(e.month, period.week)
			if e.day < first || e.day > last {
				continue
			}
		}
		if perMonth[e.category] == nil {
			perMonth[e.category] = make([]decimal.Decimal, n)
		}
		perMonth[e.category][i] = perMonth[e.category][i].Add(e.spend)
		total[i] = total[i].Add(e.spend)
	}

	recurring, err := s.recurring(ctx, today, period.end, allowed, convert)
	if err != nil {
		return nil, err
	}

	recentAvg, fullAvg := averages(total, recentFrom)
	recurringTotal := decimal.Zero
	for _, v := range recurring {
		recurringTotal = recurringTotal.Add(v)
	}
	baseline := blend(recentAvg, fullAvg)

	keys := make(map[string]bool, len(perMonth)+len(recurring))
	for k := range perMonth {
		keys[k] = true
	}
	for k := range recurring {
		keys[k] = true
	}
	breakdown := make([]CategoryEstimate, 0, len(keys))
	for k := range keys {
		r, f := averages(perMonth[k], recentFrom)
		breakdown = append(breakdown, CategoryEstimate{
			CategoryID:    k,
			RecentAverage: round(r),
			FullAverage:   round(f),
			Recurring:     round(recurring[k]),
			Estimate:      round(blend(r, f).Add(recurring[k])),
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if c := breakdown[i].Estimate.Cmp(breakdown[j].Estimate); c != 0 {
			return c > 0
		}
		return breakdown[i].CategoryID < breakdown[j].CategoryID
	})

	confidence := n * 100 / fullConfidenceAt
	if confidence > 100 {
		confidence = 100
	}

	return &Estimate{
		Horizon:         horizon,
		Currency:        currency,
		PeriodStart:     period.start.Format(calendar.DateLayout),
		PeriodEnd:       period.end.Format(calendar.DateLayout),
		MonthsOfHistory: n,
		RecentAverage:   round(recentAvg),
		FullAverage:     round(fullAvg),
		Baseline:        round(baseline),
		Recurring:       round(recurringTotal),
		Total:           round(baseline.Add(recurringTotal)),
		Confidence:      confidence,
		Categories:      breakdown,
	}, nil
}

func (s *estimateService) accountCurrencies(ctx context.Context) (map[string]string, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Select("id", "currency").Find(&accounts).Error; err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}
	out := make(map[string]string, len(accounts))
	for _, a := range accounts {
		out[a.ID] = a.Currency
	}
	return out, nil
}

// history loads every eligible expense dated before today.
func (s *estimateService) history(
	ctx context.Context,
	today time.Time,
	allowed func(*string) bool,
	convert func(decimal.Decimal, string) decimal.Decimal,
) ([]expense, error) {
	var rows []models.Transaction
	err := s.db.WithContext(ctx).
		Select("account_id", "category_id", "amount", "date").
		Where("amount < ?", 0).
		Where("transfer_id IS NULL AND linked_transaction_id IS NULL").
		Where("exclude_from_estimate = ? AND is_recurring = ?", false, false).
		Where("date < ?", today).
		Find(&rows).Error
	if err != nil {
		return nil, storeError(err, apperrors.ErrInternalServer)
	}

	out := make([]expense, 0, len(rows))
	for _, t := range rows {
		if !allowed(t.CategoryID) {
			continue
		}
		day := calendar.Day(t.Date)
		out = append(out, expense{
			month:    calendar.MonthStart(day),
			day:      day.Day(),
			category: categoryKey(t.CategoryID),
			spend:    convert(t.Amount, t.AccountID).Neg(),
		})
	}
	return out, nil
}

// recurring sums the spend of active expense schedules still due between
// today and end, per category.
func (s *estimateService) recurring(
	ctx context.Context,
	today, end time.Time,
	allowed func(*string) bool,
	convert func(decimal.Decimal, string) decimal.Decimal,
) (map[string]decimal.Decimal, error) {
	schedules, err := s.schedules.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal)
	for i := range schedules {
		sch := &schedules[i]
		if sch.Kind != models.ScheduleKindTransaction || !sch.Amount.IsNegative() || !allowed(sch.CategoryID) {
			continue
		}
		count := recurrence.Occurrences(sch, today, end)
		if count == 0 {
			continue
		}
		spend := convert(sch.Amount, sch.AccountID).Neg().Mul(decimal.NewFromInt(int64(count)))
		key := categoryKey(sch.CategoryID)
		out[key] = out[key].Add(spend)
	}
	logger.Get().Debugw("recurring estimate", "from", today, "to", end, "categories", len(out))
	return out, nil
}

// historyMonths lists the complete months from the earliest expense up to
// the month before today's.
func historyMonths(history []expense, today time.Time) []time.Time {
	if len(history) == 0 {
		return nil
	}
	earliest := history[0].month
	for _, e := range history[1:] {
		if e.month.Before(earliest) {
			earliest = e.month
		}
	}
	last := calendar.AddMonths(calendar.MonthStart(today), -1)

	var months []time.Time
	for m := earliest; !m.After(last); m = calendar.AddMonths(m, 1) {
		months = append(months, m)
	}
	return months
}

// averages returns the mean of values[recentFrom:] and of all values. A
// nil slice stands for all zeros.
func averages(values []decimal.Decimal, recentFrom int) (recent, full decimal.Decimal) {
	if len(values) == 0 {
		return decimal.Zero, decimal.Zero
	}
	sum, recentSum := decimal.Zero, decimal.Zero
	for i, v := range values {
		sum = sum.Add(v)
		if i >= recentFrom {
			recentSum = recentSum.Add(v)
		}
	}
	full = sum.Div(decimal.NewFromInt(int64(len(values))))
	recent = recentSum.Div(decimal.NewFromInt(int64(len(values) - recentFrom)))
	return recent, full
}

func blend(recent, full decimal.Decimal) decimal.Decimal {
	return recent.Mul(recentWeight).Add(full.Mul(fullWeight))
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(estimateRoundPlace)
}

func categoryKey(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
