package prices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/events"
)

// SymbolSource reports which symbols users currently hold.
type SymbolSource interface {
	DistinctSymbols(ctx context.Context) (map[domain.AssetKind][]string, error)
}

// Snapshot is one complete price fetch cycle.
type Snapshot struct {
	Prices domain.PriceLookup
	Crypto map[string]domain.Quote
	Equity map[string]domain.Quote
	AsOf   time.Time
}

// RefresherConfig lists the symbols always fetched, on top of held ones.
type RefresherConfig struct {
	CryptoIDs    []string
	StockSymbols []string
}

// Refresher keeps the latest snapshot in memory. At most one fetch runs at a
// time; a trigger that arrives during a fetch is dropped.
type Refresher struct {
	provider domain.PriceProvider
	symbols  SymbolSource
	events   *events.Manager
	cfg      RefresherConfig
	log      zerolog.Logger
	now      func() time.Time

	inflight sync.Mutex

	mu       sync.RWMutex
	snapshot *Snapshot

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRefresher creates a refresher. symbols and eventManager may be nil.
func NewRefresher(provider domain.PriceProvider, symbols SymbolSource, eventManager *events.Manager, cfg RefresherConfig, log zerolog.Logger) *Refresher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Refresher{
		provider: provider,
		symbols:  symbols,
		events:   eventManager,
		cfg:      cfg,
		log:      log.With().Str("job", "price_refresh").Logger(),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Name implements scheduler.Job
func (r *Refresher) Name() string {
	return "price_refresh"
}

// Run implements scheduler.Job
func (r *Refresher) Run() error {
	refreshed, err := r.Refresh(r.ctx)
	if err != nil {
		return err
	}
	if !refreshed {
		r.log.Debug().Msg("Refresh already in flight, skipping tick")
	}
	return nil
}

// Stop cancels the running and every future refresh.
func (r *Refresher) Stop() {
	r.cancel()
}

// Refresh fetches a new snapshot unless one is already being fetched, in
// which case it returns false without waiting.
func (r *Refresher) Refresh(ctx context.Context) (bool, error) {
	if !r.inflight.TryLock() {
		return false, nil
	}
	defer r.inflight.Unlock()

	if err := r.refreshLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Snapshot returns the current snapshot, if any.
func (r *Refresher) Snapshot() (*Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot, r.snapshot != nil
}

// Latest returns the current lookup, fetching one synchronously when nothing
// has been fetched yet.
func (r *Refresher) Latest(ctx context.Context) (domain.PriceLookup, time.Time, error) {
	if snap, ok := r.Snapshot(); ok {
		return snap.Prices, snap.AsOf, nil
	}

	r.inflight.Lock()
	defer r.inflight.Unlock()

	// Another caller may have finished a fetch while we waited.
	if snap, ok := r.Snapshot(); ok {
		return snap.Prices, snap.AsOf, nil
	}
	if err := r.refreshLocked(ctx); err != nil {
		return nil, time.Time{}, err
	}
	snap, _ := r.Snapshot()
	return snap.Prices, snap.AsOf, nil
}

// refreshLocked must be called with inflight held.
func (r *Refresher) refreshLocked(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(r.ctx, cancel)
	defer stop()

	cryptoIDs, stockSymbols := r.collectSymbols(ctx)
	start := r.now()

	crypto := r.provider.FetchCryptoPrices(ctx, cryptoIDs)

	equity := map[string]domain.Quote{}
	if len(stockSymbols) > 0 {
		quotes, err := r.provider.FetchEquityPrices(ctx, stockSymbols)
		switch {
		case err == nil:
			equity = quotes
		case errors.Is(err, domain.ErrUpstreamNotConfigured):
			r.log.Debug().Msg("Equity prices not configured, refreshing crypto only")
		default:
			return fmt.Errorf("failed to refresh equity prices: %w", err)
		}
	}

	// A cancelled fetch may have produced fallback data; never publish it.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("price refresh cancelled: %w", err)
	}

	snap := &Snapshot{
		Prices: Lookup(crypto, equity),
		Crypto: crypto,
		Equity: equity,
		AsOf:   r.now(),
	}

	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()

	r.log.Info().
		Int("crypto", len(crypto)).
		Int("equity", len(equity)).
		Dur("duration", r.now().Sub(start)).
		Msg("Prices refreshed")

	if r.events != nil {
		r.events.EmitTyped("prices", &events.PricesUpdatedData{
			Prices: snap.Prices,
			AsOf:   snap.AsOf,
			Crypto: len(crypto),
			Equity: len(equity),
		})
	}
	return nil
}

// collectSymbols returns the configured defaults plus every held symbol.
// Failing to read held symbols only narrows the fetch.
func (r *Refresher) collectSymbols(ctx context.Context) ([]string, []string) {
	crypto := append([]string(nil), r.cfg.CryptoIDs...)
	equity := append([]string(nil), r.cfg.StockSymbols...)

	if r.symbols != nil {
		held, err := r.symbols.DistinctSymbols(ctx)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to load held symbols")
		} else {
			crypto = append(crypto, held[domain.KindCrypto]...)
			equity = append(equity, held[domain.KindEquity]...)
		}
	}
	return cleanList(crypto, domain.NormalizeSymbol), cleanList(equity, domain.NormalizeSymbol)
}
