// Package prices implements the price snapshot provider and the periodic
// refresher that keeps the latest snapshot in memory.
package prices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/clients/alphavantage"
	"github.com/aristath/folio/internal/clients/coingecko"
	"github.com/aristath/folio/internal/domain"
)

// Ranges accepted by FetchSeries, in days.
var allowedRanges = map[int]bool{7: true, 30: true, 90: true}

// CryptoClient is the subset of the CoinGecko client the provider uses.
type CryptoClient interface {
	GetSimplePrices(ctx context.Context, ids []string) (map[string]coingecko.SimplePrice, error)
	GetMarketChart(ctx context.Context, id string, days int) ([]domain.SeriesPoint, error)
}

// EquityClient is the subset of the Alpha Vantage client the provider uses.
type EquityClient interface {
	Configured() bool
	GetGlobalQuote(ctx context.Context, symbol string) (*alphavantage.GlobalQuote, error)
	GetDailyPrices(ctx context.Context, symbol string) ([]alphavantage.DailyPrice, error)
}

// SeriesCache stores chart series between requests.
type SeriesCache interface {
	Store(table, key string, data interface{}, ttl time.Duration) error
	GetIfFresh(table, key string, dst interface{}) (bool, error)
	Get(table, key string, dst interface{}) (bool, error)
}

// FallbackCryptoPrices is served whenever CoinGecko cannot be reached.
func FallbackCryptoPrices() map[string]domain.Quote {
	return map[string]domain.Quote{
		"bitcoin":  {CurrentPrice: 97500, ChangePercent: domain.Float64Ptr(2.3)},
		"ethereum": {CurrentPrice: 3420, ChangePercent: domain.Float64Ptr(-0.8)},
		"cardano":  {CurrentPrice: 0.45, ChangePercent: domain.Float64Ptr(1.2)},
		"solana":   {CurrentPrice: 148, ChangePercent: domain.Float64Ptr(3.5)},
		"ripple":   {CurrentPrice: 0.63, ChangePercent: domain.Float64Ptr(-1.1)},
	}
}

// Provider fetches quotes and series from CoinGecko and Alpha Vantage.
type Provider struct {
	crypto   CryptoClient
	equity   EquityClient
	cache    SeriesCache
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewProvider creates a provider. cache may be nil, which disables series
// caching; a non-positive cacheTTL uses clientdata.TTLSeries.
func NewProvider(crypto CryptoClient, equity EquityClient, cache SeriesCache, cacheTTL time.Duration, log zerolog.Logger) *Provider {
	if cacheTTL <= 0 {
		cacheTTL = clientdata.TTLSeries
	}
	return &Provider{
		crypto:   crypto,
		equity:   equity,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log.With().Str("service", "prices").Logger(),
	}
}

// FetchCryptoPrices returns USD quotes keyed by coin id. Any upstream failure
// yields the fallback snapshot instead of an error.
func (p *Provider) FetchCryptoPrices(ctx context.Context, ids []string) map[string]domain.Quote {
	ids = cleanList(ids, strings.ToLower)
	if len(ids) == 0 {
		return map[string]domain.Quote{}
	}

	prices, err := p.crypto.GetSimplePrices(ctx, ids)
	if err != nil {
		p.log.Warn().Err(err).Strs("ids", ids).Msg("CoinGecko unavailable, serving fallback prices")
		return FallbackCryptoPrices()
	}

	quotes := make(map[string]domain.Quote, len(prices))
	for id, price := range prices {
		if price.USD == nil {
			p.log.Debug().Str("id", id).Msg("CoinGecko returned no USD price")
			continue
		}
		quotes[id] = domain.Quote{
			CurrentPrice:  *price.USD,
			ChangePercent: price.USD24hChange,
		}
	}
	return quotes
}

// FetchEquityPrices returns quotes keyed by the symbols as requested. A symbol
// that fails is logged and left out; only a missing API key fails the call.
func (p *Provider) FetchEquityPrices(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	if p.equity == nil || !p.equity.Configured() {
		return nil, domain.NewNotConfiguredError("Alpha Vantage API key not configured")
	}

	symbols = cleanList(symbols, strings.ToUpper)
	quotes := make(map[string]domain.Quote, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return quotes, fmt.Errorf("failed to fetch equity prices: %w", err)
		}

		quote, err := p.equity.GetGlobalQuote(ctx, symbol)
		if err != nil {
			p.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to fetch equity quote")
			continue
		}
		quotes[symbol] = domain.Quote{
			CurrentPrice:  quote.Price,
			Change:        domain.Float64Ptr(quote.Change),
			ChangePercent: domain.Float64Ptr(quote.ChangePercent),
			Name:          symbol,
		}
	}
	return quotes, nil
}

// Lookup merges crypto and equity quotes; equity wins on collision.
func Lookup(crypto, equity map[string]domain.Quote) domain.PriceLookup {
	return domain.NewPriceLookup(crypto, equity)
}

// cachedPoint is the cache encoding of a SeriesPoint.
type cachedPoint struct {
	T int64   `msgpack:"t"`
	P float64 `msgpack:"p"`
}

// FetchSeries returns the price history of one instrument, oldest first.
// A fresh cached copy is preferred; a stale one is served if the upstream
// fails.
func (p *Provider) FetchSeries(ctx context.Context, kind domain.AssetKind, symbol string, rangeDays int) ([]domain.SeriesPoint, error) {
	if !allowedRanges[rangeDays] {
		return nil, domain.NewValidationError("days must be one of 7, 30 or 90")
	}
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, domain.NewValidationError("symbol is required")
	}

	var table string
	var fetch func() ([]domain.SeriesPoint, error)
	switch kind {
	case domain.KindCrypto:
		symbol = strings.ToLower(symbol)
		table = clientdata.TableCoinGeckoChart
		fetch = func() ([]domain.SeriesPoint, error) {
			return p.crypto.GetMarketChart(ctx, symbol, rangeDays)
		}
	case domain.KindEquity:
		if p.equity == nil || !p.equity.Configured() {
			return nil, domain.NewNotConfiguredError("Alpha Vantage API key not configured")
		}
		symbol = strings.ToUpper(symbol)
		table = clientdata.TableAlphaVantageDaily
		fetch = func() ([]domain.SeriesPoint, error) {
			return p.fetchEquitySeries(ctx, symbol, rangeDays)
		}
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("invalid type %q", kind))
	}

	key := fmt.Sprintf("%s:%d", symbol, rangeDays)
	if points, ok := p.cached(table, key, true); ok {
		return points, nil
	}

	points, err := fetch()
	if err != nil {
		var notFound alphavantage.ErrSymbolNotFound
		if errors.As(err, &notFound) {
			return nil, domain.NewNoDataError("No data for this symbol")
		}
		if stale, ok := p.cached(table, key, false); ok {
			p.log.Warn().Err(err).Str("key", key).Msg("Upstream failed, serving stale series")
			return stale, nil
		}
		return nil, domain.NewUpstreamError("failed to fetch price history", err)
	}
	if len(points) == 0 {
		return nil, domain.NewNoDataError("No data for this symbol")
	}

	p.store(table, key, points)
	return points, nil
}

// fetchEquitySeries keeps the last rangeDays trading days of the compact
// daily series and reverses them to oldest first.
func (p *Provider) fetchEquitySeries(ctx context.Context, symbol string, rangeDays int) ([]domain.SeriesPoint, error) {
	daily, err := p.equity.GetDailyPrices(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(daily) > rangeDays {
		daily = daily[:rangeDays]
	}

	points := make([]domain.SeriesPoint, len(daily))
	for i, bar := range daily {
		points[len(daily)-1-i] = domain.SeriesPoint{Timestamp: bar.Date, Price: bar.Close}
	}
	return points, nil
}

func (p *Provider) cached(table, key string, freshOnly bool) ([]domain.SeriesPoint, bool) {
	if p.cache == nil {
		return nil, false
	}

	var encoded []cachedPoint
	var found bool
	var err error
	if freshOnly {
		found, err = p.cache.GetIfFresh(table, key, &encoded)
	} else {
		found, err = p.cache.Get(table, key, &encoded)
	}
	if err != nil {
		p.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to read series cache")
		return nil, false
	}
	if !found || len(encoded) == 0 {
		return nil, false
	}

	points := make([]domain.SeriesPoint, len(encoded))
	for i, c := range encoded {
		points[i] = domain.SeriesPoint{Timestamp: time.UnixMilli(c.T).UTC(), Price: c.P}
	}
	return points, true
}

func (p *Provider) store(table, key string, points []domain.SeriesPoint) {
	if p.cache == nil {
		return
	}
	encoded := make([]cachedPoint, len(points))
	for i, pt := range points {
		encoded[i] = cachedPoint{T: pt.Timestamp.UnixMilli(), P: pt.Price}
	}
	if err := p.cache.Store(table, key, encoded, p.cacheTTL); err != nil {
		p.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to cache series")
	}
}

// cleanList trims, canonicalizes and de-duplicates a list of identifiers,
// keeping first occurrence order.
func cleanList(items []string, canon func(string) string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = canon(strings.TrimSpace(item))
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
