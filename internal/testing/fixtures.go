package testing

import (
	"time"

	"github.com/aristath/folio/internal/domain"
)

// NewHoldingFixtures returns a mixed crypto/equity portfolio for user 1.
func NewHoldingFixtures() []domain.Holding {
	created := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	return []domain.Holding{
		{
			ID:             3,
			UserID:         1,
			Symbol:         "aapl",
			DisplayName:    "Apple",
			Kind:           domain.KindEquity,
			Quantity:       10,
			CostBasisPrice: 180,
			CreatedAt:      created.Add(2 * time.Hour),
		},
		{
			ID:             2,
			UserID:         1,
			Symbol:         "ethereum",
			DisplayName:    "Ethereum",
			Kind:           domain.KindCrypto,
			Quantity:       1.5,
			CostBasisPrice: 3000,
			CreatedAt:      created.Add(time.Hour),
		},
		{
			ID:             1,
			UserID:         1,
			Symbol:         "bitcoin",
			DisplayName:    "Bitcoin",
			Kind:           domain.KindCrypto,
			Quantity:       0.5,
			CostBasisPrice: 60000,
			CreatedAt:      created,
		},
	}
}

// NewQuoteFixtures returns quotes matching NewHoldingFixtures.
func NewQuoteFixtures() (crypto, equity map[string]domain.Quote) {
	crypto = map[string]domain.Quote{
		"bitcoin":  {CurrentPrice: 97500, ChangePercent: domain.Float64Ptr(2.3)},
		"ethereum": {CurrentPrice: 3420, ChangePercent: domain.Float64Ptr(-0.8)},
	}
	equity = map[string]domain.Quote{
		"AAPL": {CurrentPrice: 190, Change: domain.Float64Ptr(1.2), ChangePercent: domain.Float64Ptr(0.65), Name: "AAPL"},
	}
	return crypto, equity
}
