package prices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/events"
	testingpkg "github.com/aristath/folio/internal/testing"
)

func newTestRefresher(t *testing.T) (*Refresher, *testingpkg.MockPriceProvider, *events.Bus) {
	t.Helper()

	provider := testingpkg.NewMockPriceProvider()
	crypto, equity := testingpkg.NewQuoteFixtures()
	crypto["solana"] = domain.Quote{CurrentPrice: 148}
	provider.SetCrypto(crypto)
	provider.SetEquity(equity)

	store := testingpkg.NewMockHoldingStore(testingpkg.NewHoldingFixtures()...)
	bus := events.NewBus()
	r := NewRefresher(provider, store, events.NewManager(bus, zerolog.Nop()), RefresherConfig{
		CryptoIDs: []string{"Bitcoin", "solana"},
	}, zerolog.Nop())
	t.Cleanup(r.Stop)
	return r, provider, bus
}

func TestRefresher_Name(t *testing.T) {
	r, _, _ := newTestRefresher(t)
	assert.Equal(t, "price_refresh", r.Name())
}

func TestRefresher_RefreshBuildsSnapshot(t *testing.T) {
	r, _, bus := newTestRefresher(t)

	var published []*events.Event
	bus.Subscribe(events.PricesUpdated, func(e *events.Event) { published = append(published, e) })

	_, ok := r.Snapshot()
	assert.False(t, ok)

	refreshed, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, refreshed)

	snap, ok := r.Snapshot()
	require.True(t, ok)
	// defaults (bitcoin, solana) plus held (ethereum, aapl)
	for _, symbol := range []string{"bitcoin", "solana", "ethereum", "aapl"} {
		_, found := snap.Prices.Get(symbol)
		assert.True(t, found, symbol)
	}
	assert.Len(t, snap.Crypto, 3)
	assert.Len(t, snap.Equity, 1)
	assert.False(t, snap.AsOf.IsZero())

	require.Len(t, published, 1)
	data := published[0].Data.(*events.PricesUpdatedData)
	assert.Equal(t, 3, data.Crypto)
	assert.Equal(t, 1, data.Equity)
	assert.Equal(t, "prices", published[0].Module)
}

func TestRefresher_SnapshotReplacedWholesale(t *testing.T) {
	r, provider, _ := newTestRefresher(t)

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	provider.SetCrypto(map[string]domain.Quote{"bitcoin": {CurrentPrice: 1}})
	_, err = r.Refresh(context.Background())
	require.NoError(t, err)

	snap, _ := r.Snapshot()
	_, found := snap.Prices.Get("solana")
	assert.False(t, found, "entries from the previous cycle must not survive")
	q, _ := snap.Prices.Get("bitcoin")
	assert.Equal(t, 1.0, q.CurrentPrice)
}

func TestRefresher_SkipsWhileInFlight(t *testing.T) {
	r, provider, _ := newTestRefresher(t)
	release := provider.BlockCrypto()

	done := make(chan error, 1)
	go func() {
		_, err := r.Refresh(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return provider.Calls("crypto") == 1 }, time.Second, 5*time.Millisecond)

	refreshed, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed)
	require.NoError(t, r.Run())

	release()
	require.NoError(t, <-done)
	assert.Equal(t, 1, provider.Calls("crypto"))
}

func TestRefresher_LatestFetchesWhenEmpty(t *testing.T) {
	r, provider, _ := newTestRefresher(t)

	lookup, asOf, err := r.Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, asOf.IsZero())
	_, found := lookup.Get("ethereum")
	assert.True(t, found)

	_, _, err = r.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, provider.Calls("crypto"))
}

func TestRefresher_EquityNotConfiguredRefreshesCrypto(t *testing.T) {
	r, provider, _ := newTestRefresher(t)
	provider.SetEquityError(domain.NewNotConfiguredError("Alpha Vantage API key not configured"))

	refreshed, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, refreshed)

	snap, _ := r.Snapshot()
	assert.Empty(t, snap.Equity)
	assert.NotEmpty(t, snap.Crypto)
}

func TestRefresher_EquityFailureKeepsPreviousSnapshot(t *testing.T) {
	r, provider, _ := newTestRefresher(t)

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)
	before, _ := r.Snapshot()

	provider.SetEquityError(errors.New("network down"))
	refreshed, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, refreshed)

	after, _ := r.Snapshot()
	assert.Same(t, before, after)
}

func TestRefresher_HeldSymbolsFailureUsesDefaults(t *testing.T) {
	provider := testingpkg.NewMockPriceProvider()
	provider.SetCrypto(map[string]domain.Quote{"bitcoin": {CurrentPrice: 1}, "ethereum": {CurrentPrice: 2}})
	store := testingpkg.NewMockHoldingStore()
	store.SetError(errors.New("db locked"))

	r := NewRefresher(provider, store, nil, RefresherConfig{CryptoIDs: []string{"bitcoin"}}, zerolog.Nop())
	defer r.Stop()

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	snap, _ := r.Snapshot()
	assert.Len(t, snap.Crypto, 1)
}

func TestRefresher_StopCancelsInFlight(t *testing.T) {
	r, provider, _ := newTestRefresher(t)
	provider.BlockCrypto()

	done := make(chan error, 1)
	go func() { done <- r.Run() }()

	require.Eventually(t, func() bool { return provider.Calls("crypto") == 1 }, time.Second, 5*time.Millisecond)
	r.Stop()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("refresh did not observe cancellation")
	}

	_, ok := r.Snapshot()
	assert.False(t, ok)
}
