package holdings

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/valuation"
)

// PriceSource provides the latest merged price snapshot and when it was taken.
type PriceSource interface {
	Latest(ctx context.Context) (domain.PriceLookup, time.Time, error)
}

// Summary is a valued portfolio.
type Summary struct {
	Holdings   []valuation.ValuedHolding  `json:"holdings"`
	Summary    valuation.PortfolioSummary `json:"summary"`
	PricesAsOf *time.Time                 `json:"pricesAsOf"`
}

// Service validates holding writes and builds valued summaries
type Service struct {
	store  domain.HoldingStore
	prices PriceSource
	log    zerolog.Logger
}

// NewService creates a new holdings service
func NewService(store domain.HoldingStore, prices PriceSource, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		prices: prices,
		log:    log.With().Str("service", "holdings").Logger(),
	}
}

// List returns the user's holdings, newest first. Never nil.
func (s *Service) List(ctx context.Context, userID int64) ([]domain.Holding, error) {
	holdings, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if holdings == nil {
		holdings = []domain.Holding{}
	}
	return holdings, nil
}

// Get returns a single holding of the user.
func (s *Service) Get(ctx context.Context, userID, id int64) (*domain.Holding, error) {
	return s.store.Get(ctx, userID, id)
}

// Add stores a new holding after normalizing and validating it.
func (s *Service) Add(ctx context.Context, userID int64, fields domain.HoldingFields) (int64, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.Create(ctx, userID, fields)
	if err != nil {
		return 0, err
	}

	s.log.Info().Int64("user_id", userID).Int64("id", id).Str("symbol", fields.Symbol).Msg("Holding added")
	return id, nil
}

// Replace overwrites all editable fields of a holding.
func (s *Service) Replace(ctx context.Context, userID, id int64, fields domain.HoldingFields) error {
	if id <= 0 {
		return domain.NewValidationError("id is required")
	}
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return err
	}
	return s.store.Update(ctx, userID, id, fields)
}

// Remove deletes a holding.
func (s *Service) Remove(ctx context.Context, userID, id int64) error {
	if id <= 0 {
		return domain.NewValidationError("id is required")
	}
	return s.store.Delete(ctx, userID, id)
}

// Summary values the user's holdings against the latest price snapshot.
// When no snapshot can be obtained every holding falls back to its cost basis.
func (s *Service) Summary(ctx context.Context, userID int64) (*Summary, error) {
	holdings, err := s.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	var asOf *time.Time
	lookup, at, err := s.prices.Latest(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("No price snapshot available, valuing at cost basis")
		lookup = nil
	} else if !at.IsZero() {
		asOf = &at
	}

	valued, summary := valuation.Summarize(holdings, lookup)
	return &Summary{
		Holdings:   valued,
		Summary:    summary,
		PricesAsOf: asOf,
	}, nil
}
