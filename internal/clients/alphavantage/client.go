// Package alphavantage provides a rate-limited, caching client for the
// Alpha Vantage equity quote API.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the Alpha Vantage query endpoint.
	DefaultBaseURL = "https://www.alphavantage.co/query"
	// DefaultDailyLimit is the free tier request budget per UTC day.
	DefaultDailyLimit = 25
	// DefaultMinInterval spaces consecutive requests.
	DefaultMinInterval = 300 * time.Millisecond
)

// ClientInterface is the subset of the client used by price providers.
type ClientInterface interface {
	Configured() bool
	GetGlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error)
	GetDailyPrices(ctx context.Context, symbol string) ([]DailyPrice, error)
	GetRemainingRequests() int
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// Client for alphavantage.co
type Client struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	log         zerolog.Logger
	cacheTTL    CacheTTL
	minInterval time.Duration

	mu           sync.Mutex
	dailyLimit   int
	requestCount int
	resetAt      time.Time
	lastRequest  time.Time
	cache        map[string]cacheEntry
}

// NewClient creates a new Alpha Vantage client with the free tier defaults
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     DefaultBaseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log.With().Str("client", "alphavantage").Logger(),
		cacheTTL:    DefaultCacheTTL(),
		minInterval: DefaultMinInterval,
		dailyLimit:  DefaultDailyLimit,
		resetAt:     nextMidnightUTC(),
		cache:       make(map[string]cacheEntry),
	}
}

// SetBaseURL overrides the query endpoint
func (c *Client) SetBaseURL(baseURL string) {
	if baseURL != "" {
		c.baseURL = baseURL
	}
}

// SetDailyLimit sets the request budget per UTC day. 0 disables the limit.
func (c *Client) SetDailyLimit(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dailyLimit = limit
}

// SetMinInterval sets the minimum spacing between requests
func (c *Client) SetMinInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.minInterval = d
}

// SetCacheTTL sets custom cache lifetimes
func (c *Client) SetCacheTTL(ttl CacheTTL) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheTTL = ttl
}

// Configured reports whether an API key is set
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// GetRemainingRequests returns the requests left today, or -1 when unlimited
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDayLocked()
	if c.dailyLimit <= 0 {
		return -1
	}
	if remaining := c.dailyLimit - c.requestCount; remaining > 0 {
		return remaining
	}
	return 0
}

// ResetDailyCounter restores the full daily budget
func (c *Client) ResetDailyCounter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount = 0
	c.resetAt = nextMidnightUTC()
}

// ClearCache drops every cached response
func (c *Client) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

// GetGlobalQuote fetches the latest quote for a symbol
func (c *Client) GetGlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error) {
	params := map[string]string{"symbol": strings.ToUpper(symbol)}
	key := buildCacheKey("GLOBAL_QUOTE", params)
	if cached, ok := c.getFromCache(key); ok {
		return cached.(*GlobalQuote), nil
	}

	body, err := c.query(ctx, "GLOBAL_QUOTE", params)
	if err != nil {
		return nil, err
	}

	quote, err := parseGlobalQuote(body)
	if err != nil {
		if nf, ok := err.(ErrSymbolNotFound); ok && nf.Symbol == "" {
			return nil, ErrSymbolNotFound{Symbol: symbol}
		}
		return nil, err
	}

	c.setCache(key, quote, c.ttl().Quotes)
	return quote, nil
}

// GetDailyPrices fetches the compact (last ~100 trading days) daily series,
// newest first
func (c *Client) GetDailyPrices(ctx context.Context, symbol string) ([]DailyPrice, error) {
	params := map[string]string{"symbol": strings.ToUpper(symbol), "outputsize": "compact"}
	key := buildCacheKey("TIME_SERIES_DAILY", params)
	if cached, ok := c.getFromCache(key); ok {
		return cached.([]DailyPrice), nil
	}

	body, err := c.query(ctx, "TIME_SERIES_DAILY", params)
	if err != nil {
		return nil, err
	}

	prices, err := parseDailyTimeSeries(body)
	if err != nil {
		if _, ok := err.(ErrSymbolNotFound); ok {
			return nil, ErrSymbolNotFound{Symbol: symbol}
		}
		return nil, err
	}

	c.setCache(key, prices, c.ttl().DailySeries)
	return prices, nil
}

func (c *Client) ttl() CacheTTL {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cacheTTL
}

// query performs one API call, spending one unit of the daily budget.
func (c *Client) query(ctx context.Context, function string, params map[string]string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrInvalidAPIKey{}
	}
	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}
	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("function", function)
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.log.Debug().Str("function", function).Str("symbol", params["symbol"]).Msg("Querying Alpha Vantage")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if err := c.checkAPIError(body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkRateLimit spends one request of the daily budget.
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDayLocked()

	if c.dailyLimit > 0 && c.requestCount >= c.dailyLimit {
		c.log.Warn().Int("limit", c.dailyLimit).Time("reset_at", c.resetAt).Msg("Daily request budget exhausted")
		return ErrRateLimitExceeded{}
	}
	c.requestCount++
	return nil
}

func (c *Client) rollDayLocked() {
	if !time.Now().Before(c.resetAt) {
		c.requestCount = 0
		c.resetAt = nextMidnightUTC()
	}
}

// waitTurn blocks until minInterval has passed since the previous request.
func (c *Client) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	next := c.lastRequest.Add(c.minInterval)
	if next.Before(now) {
		next = now
	}
	c.lastRequest = next
	c.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// checkAPIError detects errors the API reports with a 200 status.
func (c *Client) checkAPIError(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "Thank you for using Alpha Vantage") {
		return ErrRateLimitExceeded{}
	}

	var probe struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil
	}

	switch {
	case probe.Note != "":
		return ErrRateLimitExceeded{}
	case probe.Information != "":
		lower := strings.ToLower(probe.Information)
		if !strings.Contains(lower, "rate limit") && strings.Contains(lower, "apikey") {
			return ErrInvalidAPIKey{}
		}
		return ErrRateLimitExceeded{}
	case probe.ErrorMessage != "":
		return fmt.Errorf("alpha vantage error: %s", probe.ErrorMessage)
	}
	return nil
}

func (c *Client) getFromCache(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.cache, key)
		return nil, false
	}
	return entry.data, true
}

func (c *Client) setCache(key string, data interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{data: data, expiresAt: time.Now().Add(ttl)}
}

// buildCacheKey builds a stable key from the function and its parameters.
// The API key is never part of it.
func buildCacheKey(function string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "apikey" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(function)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}
	return b.String()
}

func nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
}
