package domain

import "context"

// HoldingStore persists holdings. Every operation is scoped to the owning
// user; a row owned by someone else behaves as if it did not exist.
type HoldingStore interface {
	// List returns the user's holdings, newest first.
	List(ctx context.Context, userID int64) ([]Holding, error)
	Get(ctx context.Context, userID, id int64) (*Holding, error)
	Create(ctx context.Context, userID int64, fields HoldingFields) (int64, error)
	// Update replaces all editable fields. Last write wins.
	Update(ctx context.Context, userID, id int64, fields HoldingFields) error
	Delete(ctx context.Context, userID, id int64) error
	// DistinctSymbols returns every symbol held by any user, grouped by kind.
	DistinctSymbols(ctx context.Context) (map[AssetKind][]string, error)
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, email, name, passwordHash string) (int64, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

// PriceProvider supplies market data.
type PriceProvider interface {
	// FetchCryptoPrices never fails: on upstream trouble it returns the
	// documented fallback snapshot.
	FetchCryptoPrices(ctx context.Context, ids []string) map[string]Quote
	// FetchEquityPrices degrades per symbol; it only fails as a whole when the
	// upstream is not configured.
	FetchEquityPrices(ctx context.Context, symbols []string) (map[string]Quote, error)
	// FetchSeries returns the series ordered oldest first.
	FetchSeries(ctx context.Context, kind AssetKind, symbol string, rangeDays int) ([]SeriesPoint, error)
}
