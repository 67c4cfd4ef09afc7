package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	apperrors "finledger/internal/errors"
)

const yahooUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"

// yahooChartResponse is the Yahoo Finance v8 chart payload.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooQuotes prices tickers from the Yahoo Finance chart endpoint.
// Outbound requests are throttled so bulk runs do not trip upstream limits.
type YahooQuotes struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewYahooQuotes creates a quote client allowing perSecond requests with a
// burst of one.
func NewYahooQuotes(httpClient *http.Client, baseURL string, perSecond float64) *YahooQuotes {
	return &YahooQuotes{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// GetQuote returns the regular market price of symbol.
func (q *YahooQuotes) GetQuote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrPriceUnavailable, "no symbol to quote")
	}

	if err := q.limiter.Wait(ctx); err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrRateLimited, err)
	}

	endpoint := q.baseURL + "/" + url.PathEscape(symbol) + "?interval=1d&range=1d"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrPriceUnavailable, fmt.Errorf("building quote request: %w", err))
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrPriceUnavailable, fmt.Errorf("quote http request for %s: %w", symbol, err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return decimal.Zero, apperrors.Wrap(apperrors.ErrRateLimited, fmt.Errorf("quote request for %s: status 429", symbol))
	case resp.StatusCode != http.StatusOK:
		return decimal.Zero, apperrors.Wrap(apperrors.ErrPriceUnavailable, fmt.Errorf("quote request for %s: unexpected status %d", symbol, resp.StatusCode))
	}

	var chart yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrPriceUnavailable, fmt.Errorf("decoding quote response for %s: %w", symbol, err))
	}
	if chart.Chart.Error != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrPriceUnavailable,
			fmt.Errorf("chart error for %s: %s: %s", symbol, chart.Chart.Error.Code, chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrPriceUnavailable, fmt.Errorf("no chart results for %s", symbol))
	}

	price := chart.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrPriceUnavailable, fmt.Errorf("invalid price for %s: %f", symbol, price))
	}
	return decimal.NewFromFloat(price), nil
}
