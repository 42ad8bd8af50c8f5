// Package handlers provides HTTP handlers for market prices, charts and the
// live price stream.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/httputil"
	"github.com/aristath/folio/internal/modules/charts"
	"github.com/aristath/folio/internal/modules/prices"
)

// Query defaults of the public price endpoints.
const (
	DefaultCryptoIDs    = "bitcoin,ethereum"
	DefaultStockSymbols = "AAPL,GOOGL,MSFT"
	DefaultCryptoID     = "bitcoin"
	DefaultStockSymbol  = "AAPL"
	DefaultCryptoDays   = 7
	DefaultStockDays    = 30
)

// Handler handles price HTTP requests
type Handler struct {
	provider  domain.PriceProvider
	refresher *prices.Refresher
	bus       *events.Bus
	log       zerolog.Logger
}

// NewHandler creates a new prices handler
func NewHandler(provider domain.PriceProvider, refresher *prices.Refresher, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		provider:  provider,
		refresher: refresher,
		bus:       bus,
		log:       log.With().Str("handler", "prices").Logger(),
	}
}

// HandleCryptoPrice returns crypto quotes. It always succeeds; upstream
// failures are answered with the fallback snapshot.
func (h *Handler) HandleCryptoPrice(w http.ResponseWriter, r *http.Request) {
	ids := httputil.QueryList(r, "ids", DefaultCryptoIDs)
	quotes := h.provider.FetchCryptoPrices(r.Context(), ids)
	httputil.WriteSuccess(w, h.log, map[string]interface{}{"data": quotes})
}

// HandleStockPrice returns equity quotes
func (h *Handler) HandleStockPrice(w http.ResponseWriter, r *http.Request) {
	symbols := httputil.QueryList(r, "symbols", DefaultStockSymbols)
	quotes, err := h.provider.FetchEquityPrices(r.Context(), symbols)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}
	httputil.WriteSuccess(w, h.log, map[string]interface{}{"data": quotes})
}

// HandleCryptoChart returns the price history of one coin
func (h *Handler) HandleCryptoChart(w http.ResponseWriter, r *http.Request) {
	h.serveChart(w, r, domain.KindCrypto, "id", DefaultCryptoID, DefaultCryptoDays)
}

// HandleStockChart returns the daily closes of one equity
func (h *Handler) HandleStockChart(w http.ResponseWriter, r *http.Request) {
	h.serveChart(w, r, domain.KindEquity, "symbol", DefaultStockSymbol, DefaultStockDays)
}

func (h *Handler) serveChart(w http.ResponseWriter, r *http.Request, kind domain.AssetKind, param, fallback string, defaultDays int) {
	symbol := strings.TrimSpace(r.URL.Query().Get(param))
	if symbol == "" {
		symbol = fallback
	}

	days := defaultDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, r, h.log, domain.NewValidationError("days must be an integer"))
			return
		}
		days = v
	}

	points, err := h.provider.FetchSeries(r.Context(), kind, symbol, days)
	if err != nil {
		httputil.WriteError(w, r, h.log, err)
		return
	}

	httputil.WriteSuccess(w, h.log, map[string]interface{}{
		"data":  charts.ToChartPoints(points),
		"stats": charts.Analyze(points, charts.DefaultSMAWindow),
	})
}

// HandleRefresh triggers an immediate price refresh. refreshed is false when
// a refresh was already running.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshed, err := h.refresher.Refresh(r.Context())
	if err != nil {
		httputil.WriteError(w, r, h.log, domain.NewUpstreamError("price refresh failed", err))
		return
	}
	httputil.WriteSuccess(w, h.log, map[string]interface{}{"refreshed": refreshed})
}
