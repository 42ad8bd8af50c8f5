package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aaplQuote = `{
	"Global Quote": {
		"01. symbol": "AAPL",
		"05. price": "190.50",
		"09. change": "1.25",
		"10. change percent": "0.6606%"
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClient("demo", zerolog.Nop())
	client.SetBaseURL(server.URL)
	client.SetMinInterval(0)
	return client, &hits
}

func TestGetGlobalQuote(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "demo", r.URL.Query().Get("apikey"))
		w.Write([]byte(aaplQuote))
	})

	quote, err := client.GetGlobalQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, 190.5, quote.Price)
	assert.Equal(t, 1.25, quote.Change)
	assert.Equal(t, 0.6606, quote.ChangePercent)

	// Served from cache the second time
	_, err = client.GetGlobalQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, DefaultDailyLimit-1, client.GetRemainingRequests())
}

func TestGetGlobalQuote_UnknownSymbol(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {}}`))
	})

	_, err := client.GetGlobalQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Equal(t, ErrSymbolNotFound{Symbol: "NOPE"}, err)
}

func TestGetGlobalQuote_Throttled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	})

	_, err := client.GetGlobalQuote(context.Background(), "AAPL")
	assert.IsType(t, ErrRateLimitExceeded{}, err)
}

func TestGetGlobalQuote_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetGlobalQuote(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestDailyBudgetStopsRequests(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(aaplQuote))
	})
	client.SetDailyLimit(2)
	client.SetCacheTTL(CacheTTL{})

	for i := 0; i < 2; i++ {
		_, err := client.GetGlobalQuote(context.Background(), "AAPL")
		require.NoError(t, err)
	}

	_, err := client.GetGlobalQuote(context.Background(), "AAPL")
	assert.IsType(t, ErrRateLimitExceeded{}, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestMinIntervalSpacing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(aaplQuote))
	})
	client.SetMinInterval(100 * time.Millisecond)
	client.SetCacheTTL(CacheTTL{})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.GetGlobalQuote(context.Background(), "AAPL")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestMinIntervalHonoursContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(aaplQuote))
	})
	client.SetMinInterval(time.Hour)
	client.SetCacheTTL(CacheTTL{})

	_, err := client.GetGlobalQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.GetGlobalQuote(ctx, "AAPL")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetDailyPrices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		assert.Equal(t, "compact", r.URL.Query().Get("outputsize"))
		w.Write([]byte(`{
			"Time Series (Daily)": {
				"2024-01-12": {"4. close": "180.00"},
				"2024-01-15": {"4. close": "186.20"},
				"2024-01-11": {"4. close": "179.00"}
			}
		}`))
	})

	prices, err := client.GetDailyPrices(context.Background(), "msft")
	require.NoError(t, err)
	require.Len(t, prices, 3)
	assert.Equal(t, 15, prices[0].Date.Day())
	assert.Equal(t, 186.2, prices[0].Close)
	assert.Equal(t, 11, prices[2].Date.Day())
}

func TestGetDailyPrices_NoData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	})

	_, err := client.GetDailyPrices(context.Background(), "NOPE")
	assert.Error(t, err)

	client2, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Meta Data": {}}`))
	})
	_, err = client2.GetDailyPrices(context.Background(), "NOPE")
	assert.Equal(t, ErrSymbolNotFound{Symbol: "NOPE"}, err)
}
