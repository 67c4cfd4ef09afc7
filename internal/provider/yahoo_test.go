package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finledger/internal/errors"
)

// chartResponse builds a v8 chart payload for a single symbol.
func chartResponse(symbol string, price float64) yahooChartResponse {
	var resp yahooChartResponse
	resp.Chart.Result = make([]struct {
		Meta struct {
			Symbol             string  `json:"symbol"`
			Currency           string  `json:"currency"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
		} `json:"meta"`
	}, 1)
	resp.Chart.Result[0].Meta.Symbol = symbol
	resp.Chart.Result[0].Meta.Currency = "USD"
	resp.Chart.Result[0].Meta.RegularMarketPrice = price
	return resp
}

// newChartServer serves prices by ticker; unknown tickers get a chart error.
func newChartServer(t *testing.T, prices map[string]float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.TrimPrefix(r.URL.Path, "/")
		w.Header().Set("Content-Type", "application/json")

		price, ok := prices[ticker]
		if !ok {
			var resp yahooChartResponse
			resp.Chart.Error = &struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			}{Code: "Not Found", Description: "No data found, symbol may be delisted"}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		_ = json.NewEncoder(w).Encode(chartResponse(ticker, price))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func TestYahooQuotes_GetQuote(t *testing.T) {
	t.Run("returns_market_price", func(t *testing.T) {
		srv := newChartServer(t, map[string]float64{"VWCE.DE": 112.34})
		q := NewYahooQuotes(srv.Client(), srv.URL, 100)

		price, err := q.GetQuote(context.Background(), "VWCE.DE")
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.RequireFromString("112.34")), "got %s", price)
	})

	t.Run("unknown_symbol", func(t *testing.T) {
		srv := newChartServer(t, map[string]float64{})
		q := NewYahooQuotes(srv.Client(), srv.URL, 100)

		_, err := q.GetQuote(context.Background(), "NOPE")
		assertCode(t, err, "PRICE_UNAVAILABLE")
	})

	t.Run("zero_price", func(t *testing.T) {
		srv := newChartServer(t, map[string]float64{"ZERO": 0})
		q := NewYahooQuotes(srv.Client(), srv.URL, 100)

		_, err := q.GetQuote(context.Background(), "ZERO")
		assertCode(t, err, "PRICE_UNAVAILABLE")
	})

	t.Run("empty_symbol", func(t *testing.T) {
		q := NewYahooQuotes(http.DefaultClient, "http://127.0.0.1:1", 100)

		_, err := q.GetQuote(context.Background(), " ")
		assertCode(t, err, "PRICE_UNAVAILABLE")
	})

	t.Run("upstream_429", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()
		q := NewYahooQuotes(srv.Client(), srv.URL, 100)

		_, err := q.GetQuote(context.Background(), "AAPL")
		assertCode(t, err, "RATE_LIMITED")
	})

	t.Run("upstream_500", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		q := NewYahooQuotes(srv.Client(), srv.URL, 100)

		_, err := q.GetQuote(context.Background(), "AAPL")
		assertCode(t, err, "PRICE_UNAVAILABLE")
	})

	t.Run("local_throttle_exhausted", func(t *testing.T) {
		srv := newChartServer(t, map[string]float64{"AAPL": 190})
		q := NewYahooQuotes(srv.Client(), srv.URL, 0.001)

		_, err := q.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = q.GetQuote(ctx, "AAPL")
		assertCode(t, err, "RATE_LIMITED")
	})

	t.Run("sends_user_agent", func(t *testing.T) {
		var ua string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ua = r.Header.Get("User-Agent")
			_ = json.NewEncoder(w).Encode(chartResponse("AAPL", 1))
		}))
		defer srv.Close()
		q := NewYahooQuotes(srv.Client(), srv.URL, 100)

		_, err := q.GetQuote(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, yahooUA, ua)
	})
}
