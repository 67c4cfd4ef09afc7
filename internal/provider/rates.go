package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"finledger/internal/logger"
)

// ratesResponse is the open.er-api.com "latest" payload.
type ratesResponse struct {
	Result   string                     `json:"result"`
	BaseCode string                     `json:"base_code"`
	Rates    map[string]decimal.Decimal `json:"rates"`
	Error    string                     `json:"error-type"`
}

type cachedRates struct {
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

// RatesClient fetches FX tables and caches them per base currency.
// Concurrent misses for the same base share one upstream request.
type RatesClient struct {
	httpClient *http.Client
	baseURL    string
	ttl        time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedRates
	group singleflight.Group
}

// NewRatesClient creates a RatesClient against baseURL, e.g.
// https://open.er-api.com/v6/latest.
func NewRatesClient(httpClient *http.Client, baseURL string, ttl time.Duration) *RatesClient {
	return &RatesClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		ttl:        ttl,
		now:        time.Now,
		cache:      make(map[string]cachedRates),
	}
}

// GetRates returns the table for base, or an empty table if it cannot be fetched.
func (c *RatesClient) GetRates(ctx context.Context, base string) map[string]decimal.Decimal {
	base = strings.ToUpper(base)

	c.mu.RLock()
	entry, ok := c.cache[base]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return copyRates(entry.rates)
	}

	v, err, _ := c.group.Do(base, func() (interface{}, error) {
		rates, err := c.fetch(ctx, base)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[base] = cachedRates{rates: rates, fetchedAt: c.now()}
		c.mu.Unlock()
		return rates, nil
	})
	if err != nil {
		logger.Get().Warnw("fx rates unavailable", "base", base, "error", err)
		if ok {
			// Stale beats empty.
			return copyRates(entry.rates)
		}
		return map[string]decimal.Decimal{}
	}
	return copyRates(v.(map[string]decimal.Decimal))
}

func (c *RatesClient) fetch(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	url := c.baseURL + "/" + base

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates http request for %s: %w", base, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates request for %s: unexpected status %d", base, resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding rates response for %s: %w", base, err)
	}
	if body.Result != "" && body.Result != "success" {
		return nil, fmt.Errorf("rates error for %s: %s", base, body.Error)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("no rates returned for %s", base)
	}

	rates := make(map[string]decimal.Decimal, len(body.Rates)+1)
	for code, rate := range body.Rates {
		if rate.IsPositive() {
			rates[strings.ToUpper(code)] = rate
		}
	}
	rates[base] = decimal.NewFromInt(1)
	return rates, nil
}

func copyRates(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
