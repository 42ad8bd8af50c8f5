package alphavantage

import (
	"fmt"
	"time"
)

// GlobalQuote is the latest quote of one equity (GLOBAL_QUOTE).
type GlobalQuote struct {
	Symbol           string
	Open             float64
	High             float64
	Low              float64
	Price            float64
	Volume           int64
	LatestTradingDay time.Time
	PreviousClose    float64
	Change           float64
	ChangePercent    float64
}

// DailyPrice is one bar of TIME_SERIES_DAILY.
type DailyPrice struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// CacheTTL configures how long responses are kept in memory.
type CacheTTL struct {
	Quotes      time.Duration
	DailySeries time.Duration
}

// DefaultCacheTTL returns the default cache lifetimes.
func DefaultCacheTTL() CacheTTL {
	return CacheTTL{
		Quotes:      time.Minute,
		DailySeries: time.Hour,
	}
}

// ErrRateLimitExceeded is returned when the daily budget is spent or the
// API reports throttling.
type ErrRateLimitExceeded struct{}

func (ErrRateLimitExceeded) Error() string {
	return "alpha vantage rate limit exceeded"
}

// ErrInvalidAPIKey is returned when the API rejects the key.
type ErrInvalidAPIKey struct{}

func (ErrInvalidAPIKey) Error() string {
	return "alpha vantage API key is invalid or missing"
}

// ErrSymbolNotFound is returned when the API has no data for a symbol.
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("no data for symbol %s", e.Symbol)
}
