// Package provider fetches market quotes and FX rate tables from external
// HTTP sources.
package provider

import (
	"context"

	"github.com/shopspring/decimal"
)

// QuoteProvider returns the current unit price of a ticker.
//
// Failures are *errors.AppError values: ErrPriceUnavailable when no price
// exists and ErrRateLimited when the source or the local throttle refuses.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// RateProvider returns an FX table keyed by currency code, where
// rates[c] is the number of units of c bought by one unit of base.
//
// It never fails: on any error the table is empty and callers fall back
// to unconverted amounts.
type RateProvider interface {
	GetRates(ctx context.Context, base string) map[string]decimal.Decimal
}
