package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	apperrors "finledger/internal/errors"
	"finledger/internal/events"
)

// FakeQuotes serves fixed prices. Unknown symbols are PriceUnavailable.
type FakeQuotes struct {
	Prices map[string]string
	Err    error

	mu    sync.Mutex
	Calls []string
}

// GetQuote implements provider.QuoteProvider.
func (f *FakeQuotes) GetQuote(_ context.Context, symbol string) (decimal.Decimal, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, symbol)
	f.mu.Unlock()

	if f.Err != nil {
		return decimal.Zero, f.Err
	}
	p, ok := f.Prices[symbol]
	if !ok {
		return decimal.Zero, apperrors.ErrPriceUnavailable
	}
	return Dec(p), nil
}

// FakeRates serves fixed FX tables keyed by base currency.
type FakeRates struct {
	Tables map[string]map[string]string
}

// GetRates implements provider.RateProvider.
func (f *FakeRates) GetRates(_ context.Context, base string) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for code, rate := range f.Tables[strings.ToUpper(base)] {
		out[code] = Dec(rate)
	}
	return out
}

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	Err error

	mu     sync.Mutex
	Events []events.ScheduleFired
}

// PublishScheduleFired implements events.Publisher.
func (p *RecordingPublisher) PublishScheduleFired(_ context.Context, e events.ScheduleFired) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, e)
	return nil
}

// Close implements events.Publisher.
func (p *RecordingPublisher) Close() error { return nil }
