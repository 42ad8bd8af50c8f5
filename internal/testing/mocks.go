package testing

import (
	"context"
	"sort"
	"sync"

	"github.com/aristath/folio/internal/domain"
)

// MockPriceProvider is an in-memory domain.PriceProvider for tests
type MockPriceProvider struct {
	mu        sync.Mutex
	crypto    map[string]domain.Quote
	equity    map[string]domain.Quote
	series    []domain.SeriesPoint
	equityErr error
	seriesErr error
	calls     map[string]int
	block     chan struct{}
}

// NewMockPriceProvider creates a new mock price provider
func NewMockPriceProvider() *MockPriceProvider {
	return &MockPriceProvider{
		crypto: map[string]domain.Quote{},
		equity: map[string]domain.Quote{},
		calls:  map[string]int{},
	}
}

// SetCrypto sets the crypto quotes to return
func (m *MockPriceProvider) SetCrypto(quotes map[string]domain.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crypto = quotes
}

// SetEquity sets the equity quotes to return
func (m *MockPriceProvider) SetEquity(quotes map[string]domain.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equity = quotes
}

// SetEquityError makes FetchEquityPrices fail
func (m *MockPriceProvider) SetEquityError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equityErr = err
}

// SetSeries sets the series to return
func (m *MockPriceProvider) SetSeries(points []domain.SeriesPoint, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series = points
	m.seriesErr = err
}

// BlockCrypto makes FetchCryptoPrices wait until the returned function is called.
func (m *MockPriceProvider) BlockCrypto() (release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.block = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Calls returns how many times method was invoked
func (m *MockPriceProvider) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// FetchCryptoPrices returns the configured quotes restricted to ids
func (m *MockPriceProvider) FetchCryptoPrices(ctx context.Context, ids []string) map[string]domain.Quote {
	m.mu.Lock()
	m.calls["crypto"]++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return pick(m.crypto, ids)
}

// FetchEquityPrices returns the configured quotes restricted to symbols
func (m *MockPriceProvider) FetchEquityPrices(_ context.Context, symbols []string) (map[string]domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["equity"]++
	if m.equityErr != nil {
		return nil, m.equityErr
	}
	return pick(m.equity, symbols), nil
}

// FetchSeries returns the configured series
func (m *MockPriceProvider) FetchSeries(_ context.Context, _ domain.AssetKind, _ string, _ int) ([]domain.SeriesPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["series"]++
	if m.seriesErr != nil {
		return nil, m.seriesErr
	}
	return append([]domain.SeriesPoint(nil), m.series...), nil
}

// pick returns the entries of src whose key matches one of keys in any case.
// An empty key list returns everything.
func pick(src map[string]domain.Quote, keys []string) map[string]domain.Quote {
	out := make(map[string]domain.Quote)
	if len(keys) == 0 {
		for k, v := range src {
			out[k] = v
		}
		return out
	}
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[domain.NormalizeSymbol(k)] = true
	}
	for k, v := range src {
		if wanted[domain.NormalizeSymbol(k)] {
			out[k] = v
		}
	}
	return out
}

// MockHoldingStore is an in-memory domain.HoldingStore for tests
type MockHoldingStore struct {
	mu       sync.RWMutex
	holdings []domain.Holding
	err      error
}

// NewMockHoldingStore creates a store seeded with holdings
func NewMockHoldingStore(holdings ...domain.Holding) *MockHoldingStore {
	return &MockHoldingStore{holdings: append([]domain.Holding(nil), holdings...)}
}

// SetError sets the error to return from every method
func (m *MockHoldingStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockHoldingStore) List(_ context.Context, userID int64) ([]domain.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Holding
	for _, h := range m.holdings {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *MockHoldingStore) Get(_ context.Context, userID, id int64) (*domain.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, h := range m.holdings {
		if h.ID == id && h.UserID == userID {
			h := h
			return &h, nil
		}
	}
	return nil, domain.NewNotFoundError("holding not found")
}

func (m *MockHoldingStore) Create(_ context.Context, userID int64, f domain.HoldingFields) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var maxID int64
	for _, h := range m.holdings {
		if h.ID > maxID {
			maxID = h.ID
		}
	}
	h := domain.Holding{
		ID:             maxID + 1,
		UserID:         userID,
		Symbol:         f.Symbol,
		DisplayName:    f.DisplayName,
		Kind:           f.Kind,
		Quantity:       f.Quantity,
		CostBasisPrice: f.CostBasisPrice,
	}
	m.holdings = append([]domain.Holding{h}, m.holdings...)
	return h.ID, nil
}

func (m *MockHoldingStore) Update(_ context.Context, userID, id int64, f domain.HoldingFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, h := range m.holdings {
		if h.ID == id && h.UserID == userID {
			m.holdings[i].Symbol = f.Symbol
			m.holdings[i].DisplayName = f.DisplayName
			m.holdings[i].Kind = f.Kind
			m.holdings[i].Quantity = f.Quantity
			m.holdings[i].CostBasisPrice = f.CostBasisPrice
			return nil
		}
	}
	return domain.NewNotFoundError("holding not found")
}

func (m *MockHoldingStore) Delete(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, h := range m.holdings {
		if h.ID == id && h.UserID == userID {
			m.holdings = append(m.holdings[:i], m.holdings[i+1:]...)
			return nil
		}
	}
	return domain.NewNotFoundError("holding not found")
}

func (m *MockHoldingStore) DistinctSymbols(_ context.Context) (map[domain.AssetKind][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	seen := map[domain.AssetKind]map[string]bool{}
	for _, h := range m.holdings {
		if seen[h.Kind] == nil {
			seen[h.Kind] = map[string]bool{}
		}
		seen[h.Kind][h.Symbol] = true
	}
	out := map[domain.AssetKind][]string{}
	for kind, set := range seen {
		for s := range set {
			out[kind] = append(out[kind], s)
		}
		sort.Strings(out[kind])
	}
	return out, nil
}
