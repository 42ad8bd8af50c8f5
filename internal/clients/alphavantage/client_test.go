package alphavantage

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ClientInterface = (*Client)(nil)

func TestDailyBudget(t *testing.T) {
	client := NewClient("demo", zerolog.Nop())
	client.SetDailyLimit(3)
	assert.Equal(t, 3, client.GetRemainingRequests())

	for i := 0; i < 3; i++ {
		require.NoError(t, client.checkRateLimit())
	}
	assert.Equal(t, 0, client.GetRemainingRequests())
	assert.IsType(t, ErrRateLimitExceeded{}, client.checkRateLimit())

	client.ResetDailyCounter()
	assert.Equal(t, 3, client.GetRemainingRequests())
}

func TestDailyBudget_DefaultsToFreeTier(t *testing.T) {
	client := NewClient("demo", zerolog.Nop())
	assert.Equal(t, DefaultDailyLimit, client.GetRemainingRequests())
}

func TestDailyBudget_RollsOverAtMidnight(t *testing.T) {
	client := NewClient("demo", zerolog.Nop())
	client.SetDailyLimit(1)
	require.NoError(t, client.checkRateLimit())
	require.Error(t, client.checkRateLimit())

	client.mu.Lock()
	client.resetAt = time.Now().Add(-time.Second)
	client.mu.Unlock()

	assert.Equal(t, 1, client.GetRemainingRequests())
	assert.NoError(t, client.checkRateLimit())
}

func TestDailyBudget_ZeroIsUnlimited(t *testing.T) {
	client := NewClient("demo", zerolog.Nop())
	client.SetDailyLimit(0)

	for i := 0; i < 50; i++ {
		require.NoError(t, client.checkRateLimit())
	}
	assert.Equal(t, -1, client.GetRemainingRequests())
}

func TestResponseCache(t *testing.T) {
	client := NewClient("demo", zerolog.Nop())

	quote := &GlobalQuote{Symbol: "MSFT", Price: 410}
	client.setCache("quote|MSFT", quote, time.Hour)
	client.setCache("short", "x", time.Millisecond)
	client.setCache("never", "x", 0)

	got, ok := client.getFromCache("quote|MSFT")
	require.True(t, ok)
	assert.Same(t, quote, got)

	_, ok = client.getFromCache("never")
	assert.False(t, ok, "a zero ttl is not cached")

	time.Sleep(5 * time.Millisecond)
	_, ok = client.getFromCache("short")
	assert.False(t, ok)

	client.ClearCache()
	_, ok = client.getFromCache("quote|MSFT")
	assert.False(t, ok)
}

func TestSetCacheTTL(t *testing.T) {
	client := NewClient("demo", zerolog.Nop())
	assert.Equal(t, DefaultCacheTTL(), client.ttl())

	client.SetCacheTTL(CacheTTL{Quotes: 5 * time.Second, DailySeries: 10 * time.Minute})
	assert.Equal(t, 5*time.Second, client.ttl().Quotes)
	assert.Equal(t, 10*time.Minute, client.ttl().DailySeries)
}

func TestBuildCacheKey(t *testing.T) {
	a := buildCacheKey("TIME_SERIES_DAILY", map[string]string{"symbol": "AAPL", "outputsize": "compact"})
	b := buildCacheKey("TIME_SERIES_DAILY", map[string]string{"outputsize": "compact", "symbol": "AAPL", "apikey": "secret"})

	assert.Equal(t, "TIME_SERIES_DAILY|outputsize=compact|symbol=AAPL", a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, buildCacheKey("GLOBAL_QUOTE", map[string]string{"symbol": "AAPL"}))
}

func TestConfigured(t *testing.T) {
	assert.True(t, NewClient("demo", zerolog.Nop()).Configured())
	assert.False(t, NewClient(" ", zerolog.Nop()).Configured())

	_, err := NewClient("", zerolog.Nop()).GetGlobalQuote(context.Background(), "AAPL")
	assert.IsType(t, ErrInvalidAPIKey{}, err)
}

func TestParseNumbers(t *testing.T) {
	floats := map[string]float64{
		"190.50":  190.5,
		"0.6606%": 0.6606,
		"-1.25":   -1.25,
		"None":    0,
		"-":       0,
		"":        0,
		"abc":     0,
		"NaN":     0,
		"+Inf":    0,
	}
	for in, want := range floats {
		assert.Equal(t, want, parseFloat64(in), in)
	}

	assert.Nil(t, parseFloat64Ptr("None"))
	require.NotNil(t, parseFloat64Ptr("12.5"))
	assert.Equal(t, 12.5, *parseFloat64Ptr("12.5"))

	assert.Equal(t, int64(52164535), parseInt64("52164535"))
	assert.Equal(t, int64(12000000), parseInt64("1.2E7"))
	assert.Equal(t, int64(0), parseInt64("None"))
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), parseDate(" 2025-03-07 "))
	assert.True(t, parseDate("07/03/2025").IsZero())
}

func TestParseGlobalQuote(t *testing.T) {
	quote, err := parseGlobalQuote([]byte(`{
		"Global Quote": {
			"01. symbol": "MSFT",
			"02. open": "408.10",
			"03. high": "412.00",
			"04. low": "407.55",
			"05. price": "410.34",
			"06. volume": "18234567",
			"07. latest trading day": "2025-03-07",
			"08. previous close": "406.90",
			"09. change": "3.44",
			"10. change percent": "0.8454%"
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "MSFT", quote.Symbol)
	assert.Equal(t, 410.34, quote.Price)
	assert.Equal(t, 3.44, quote.Change)
	assert.Equal(t, 0.8454, quote.ChangePercent)
	assert.Equal(t, 406.90, quote.PreviousClose)
	assert.Equal(t, int64(18234567), quote.Volume)
	assert.Equal(t, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), quote.LatestTradingDay)
}

func TestParseGlobalQuote_EmptyMeansUnknownSymbol(t *testing.T) {
	_, err := parseGlobalQuote([]byte(`{"Global Quote": {}}`))
	assert.IsType(t, ErrSymbolNotFound{}, err)

	_, err = parseGlobalQuote([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseDailyTimeSeries_NewestFirst(t *testing.T) {
	prices, err := parseDailyTimeSeries([]byte(`{
		"Time Series (Daily)": {
			"2025-03-05": {"1. open": "400", "2. high": "405", "3. low": "398", "4. close": "402.5", "5. volume": "100"},
			"2025-03-07": {"1. open": "408", "2. high": "412", "3. low": "407", "4. close": "410.3", "5. volume": "300"},
			"bogus":      {"4. close": "1"},
			"2025-03-06": {"1. open": "402", "2. high": "409", "3. low": "401", "4. close": "406.9", "5. volume": "200"}
		}
	}`))
	require.NoError(t, err)
	require.Len(t, prices, 3)

	assert.Equal(t, 7, prices[0].Date.Day())
	assert.Equal(t, 6, prices[1].Date.Day())
	assert.Equal(t, 5, prices[2].Date.Day())
	assert.Equal(t, 410.3, prices[0].Close)
	assert.Equal(t, int64(300), prices[0].Volume)

	_, err = parseDailyTimeSeries([]byte(`{}`))
	assert.IsType(t, ErrSymbolNotFound{}, err)
}

func TestCheckAPIError(t *testing.T) {
	client := NewClient("demo", zerolog.Nop())

	tests := []struct {
		name string
		body string
		want error
	}{
		{"throttle note", `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`, ErrRateLimitExceeded{}},
		{"daily limit information", `{"Information": "We have detected your API key and our standard API rate limit is 25 requests per day."}`, ErrRateLimitExceeded{}},
		{"bad key information", `{"Information": "Please provide a valid apikey."}`, ErrInvalidAPIKey{}},
		{"plain text throttle", `Thank you for using Alpha Vantage!`, ErrRateLimitExceeded{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.checkAPIError([]byte(tt.body)))
		})
	}

	err := client.checkAPIError([]byte(`{"Error Message": "Invalid API call."}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API call.")

	assert.NoError(t, client.checkAPIError([]byte(aaplQuote)))
}

func TestNextMidnightUTC(t *testing.T) {
	midnight := nextMidnightUTC()

	assert.True(t, midnight.After(time.Now()))
	assert.True(t, midnight.Sub(time.Now()) <= 24*time.Hour)
	assert.Equal(t, time.UTC, midnight.Location())
	assert.Zero(t, midnight.Hour()+midnight.Minute()+midnight.Second())
}
