// Package holdings persists the instruments each user tracks and serves the
// valued portfolio built from them.
package holdings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
)

const holdingColumns = `id, user_id, symbol, display_name, kind, quantity, cost_basis_price, created_at`

// Repository handles holding database operations (folio.db, holdings table).
// Every query is filtered by user_id.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewRepository creates a new holdings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "holdings").Logger(),
		now: time.Now,
	}
}

// List returns the user's holdings, newest first
func (r *Repository) List(ctx context.Context, userID int64) ([]domain.Holding, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+holdingColumns+` FROM holdings WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// Get returns one holding owned by the user
func (r *Repository) Get(ctx context.Context, userID, id int64) (*domain.Holding, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+holdingColumns+` FROM holdings WHERE id = ? AND user_id = ?`, id, userID)

	h, err := scanHolding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("holding not found")
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Create inserts a holding and returns its id
func (r *Repository) Create(ctx context.Context, userID int64, f domain.HoldingFields) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO holdings (user_id, symbol, display_name, kind, quantity, cost_basis_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, f.Symbol, f.DisplayName, string(f.Kind), f.Quantity, f.CostBasisPrice, r.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to insert holding: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get holding id: %w", err)
	}

	r.log.Debug().Int64("user_id", userID).Int64("id", id).Str("symbol", f.Symbol).Msg("Holding created")
	return id, nil
}

// Update replaces every editable field of a holding owned by the user.
// created_at is never touched.
func (r *Repository) Update(ctx context.Context, userID, id int64, f domain.HoldingFields) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE holdings
		SET symbol = ?, display_name = ?, kind = ?, quantity = ?, cost_basis_price = ?
		WHERE id = ? AND user_id = ?
	`, f.Symbol, f.DisplayName, string(f.Kind), f.Quantity, f.CostBasisPrice, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a holding owned by the user
func (r *Repository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holdings WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return requireAffected(res)
}

// DistinctSymbols returns every symbol held by any user, grouped by kind and
// sorted.
func (r *Repository) DistinctSymbols(ctx context.Context) (map[domain.AssetKind][]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT kind, symbol FROM holdings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct symbols: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.AssetKind][]string)
	for rows.Next() {
		var kind, symbol string
		if err := rows.Scan(&kind, &symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		out[domain.AssetKind(kind)] = append(out[domain.AssetKind(kind)], symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	for kind := range out {
		sort.Strings(out[kind])
	}
	return out, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.NewNotFoundError("holding not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(row rowScanner) (domain.Holding, error) {
	var h domain.Holding
	var kind string
	var createdAt int64
	err := row.Scan(&h.ID, &h.UserID, &h.Symbol, &h.DisplayName, &kind, &h.Quantity, &h.CostBasisPrice, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return h, err
	}
	if err != nil {
		return h, fmt.Errorf("failed to scan holding: %w", err)
	}
	h.Kind = domain.AssetKind(kind)
	h.CreatedAt = time.UnixMilli(createdAt).UTC()
	return h, nil
}
