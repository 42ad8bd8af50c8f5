// Package domain provides core domain models and types.
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// AssetKind classifies a holding. It is informational only and never affects
// valuation math.
type AssetKind string

const (
	KindCrypto AssetKind = "crypto"
	KindEquity AssetKind = "equity"
)

// ParseAssetKind accepts the kinds clients send. Empty defaults to crypto and
// "stock" is an alias for equity.
func ParseAssetKind(s string) (AssetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "crypto":
		return KindCrypto, nil
	case "equity", "stock":
		return KindEquity, nil
	default:
		return "", NewValidationError(fmt.Sprintf("invalid type %q (must be crypto or stock)", s))
	}
}

// WireName is the name clients use for the kind. Equities travel as "stock",
// which is what the dashboard submits and offers in its edit form.
func (k AssetKind) WireName() string {
	if k == KindEquity {
		return "stock"
	}
	return string(k)
}

// MarshalJSON encodes the kind by its wire name.
func (k AssetKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.WireName())
}

// UnmarshalJSON accepts any spelling ParseAssetKind does.
func (k *AssetKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAssetKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// NormalizeSymbol returns the canonical form of an instrument symbol.
// Holdings and price lookups are both keyed by it, so the join between
// them does not depend on the case callers used.
func NormalizeSymbol(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}

// Holding is one tracked instrument of one user.
type Holding struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	Symbol         string    `json:"symbol"`
	DisplayName    string    `json:"coinName"`
	Kind           AssetKind `json:"type"`
	Quantity       float64   `json:"quantity"`
	CostBasisPrice float64   `json:"purchasePrice"`
	CreatedAt      time.Time `json:"addedAt"`
}

// HoldingFields are the user-editable fields of a holding. Updates replace
// all of them at once.
type HoldingFields struct {
	Symbol         string
	DisplayName    string
	Kind           AssetKind
	Quantity       float64
	CostBasisPrice float64
}

// Normalize canonicalizes the symbol and fills the display name from it when
// empty.
func (f HoldingFields) Normalize() HoldingFields {
	f.Symbol = NormalizeSymbol(f.Symbol)
	f.DisplayName = strings.TrimSpace(f.DisplayName)
	if f.DisplayName == "" {
		f.DisplayName = f.Symbol
	}
	if f.Kind == "" {
		f.Kind = KindCrypto
	}
	return f
}

// Validate checks the store invariants: quantity and cost basis are finite and
// non-negative, symbol is present and kind is known.
func (f HoldingFields) Validate() error {
	if f.Symbol == "" {
		return NewValidationError("symbol is required")
	}
	if f.Kind != KindCrypto && f.Kind != KindEquity {
		return NewValidationError(fmt.Sprintf("invalid type %q", f.Kind))
	}
	if math.IsNaN(f.Quantity) || math.IsInf(f.Quantity, 0) || f.Quantity < 0 {
		return NewValidationError("quantity must be a non-negative number")
	}
	if math.IsNaN(f.CostBasisPrice) || math.IsInf(f.CostBasisPrice, 0) || f.CostBasisPrice < 0 {
		return NewValidationError("purchasePrice must be a non-negative number")
	}
	return nil
}

// Quote is the latest market price of one instrument.
type Quote struct {
	CurrentPrice  float64  `json:"currentPrice"`
	ChangePercent *float64 `json:"changePercent,omitempty"`
	Change        *float64 `json:"change,omitempty"`
	Name          string   `json:"name,omitempty"`
}

// PriceLookup maps normalized symbols to quotes. It lives for one fetch cycle
// and is replaced wholesale by the next one.
type PriceLookup map[string]Quote

// NewPriceLookup merges quote maps into one lookup. Keys are normalized and
// later maps win on collision.
func NewPriceLookup(sources ...map[string]Quote) PriceLookup {
	size := 0
	for _, src := range sources {
		size += len(src)
	}
	lookup := make(PriceLookup, size)
	for _, src := range sources {
		for symbol, quote := range src {
			lookup[NormalizeSymbol(symbol)] = quote
		}
	}
	return lookup
}

// Get returns the quote for a symbol in any case.
func (l PriceLookup) Get(symbol string) (Quote, bool) {
	if l == nil {
		return Quote{}, false
	}
	q, ok := l[NormalizeSymbol(symbol)]
	return q, ok
}

// SeriesPoint is one sample of a historical price series.
type SeriesPoint struct {
	Timestamp time.Time
	Price     float64
}

// User is an account that owns holdings.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
