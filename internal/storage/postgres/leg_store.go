package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stratdeck/internal/domain"
	"stratdeck/internal/storage"
)

// LegStore implements storage.LegStore using PostgreSQL.
//
// The avg_price column is denormalized from the accumulated premium so
// downstream SQL can query entry prices without recomputing them.
type LegStore struct {
	pool *Pool
}

// NewLegStore creates a new LegStore.
func NewLegStore(pool *Pool) *LegStore {
	return &LegStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LegStore = (*LegStore)(nil)

const upsertLegQuery = `
	INSERT INTO legs (
		id, strategy_id, side, call_put, strike, expiration,
		open_qty, remaining_qty, total_premium, avg_price, opened_at, closed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		strategy_id = EXCLUDED.strategy_id,
		side = EXCLUDED.side,
		call_put = EXCLUDED.call_put,
		strike = EXCLUDED.strike,
		expiration = EXCLUDED.expiration,
		open_qty = EXCLUDED.open_qty,
		remaining_qty = EXCLUDED.remaining_qty,
		total_premium = EXCLUDED.total_premium,
		avg_price = EXCLUDED.avg_price,
		opened_at = EXCLUDED.opened_at,
		closed_at = EXCLUDED.closed_at
`

// Upsert inserts the leg or replaces the existing row with the same id.
// Returns ErrInvalidInput if the owning strategy row does not exist.
func (s *LegStore) Upsert(ctx context.Context, rec *domain.LegRecord) error {
	if rec == nil || rec.ID == "" || rec.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, upsertLegQuery, legArgs(rec)...)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("upsert leg %s: missing strategy %s: %w", rec.ID, rec.StrategyID, storage.ErrInvalidInput)
		}
		return fmt.Errorf("upsert leg: %w", err)
	}
	return nil
}

// UpsertBulk upserts multiple legs atomically.
func (s *LegStore) UpsertBulk(ctx context.Context, legs []*domain.LegRecord) error {
	if len(legs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range legs {
		if rec == nil || rec.ID == "" || rec.StrategyID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, upsertLegQuery, legArgs(rec)...); err != nil {
			if isForeignKeyError(err) {
				return fmt.Errorf("upsert leg %s: missing strategy %s: %w", rec.ID, rec.StrategyID, storage.ErrInvalidInput)
			}
			return fmt.Errorf("upsert leg in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByStrategyID retrieves all legs of a strategy, ordered by id.
func (s *LegStore) GetByStrategyID(ctx context.Context, strategyID string) ([]*domain.LegRecord, error) {
	query := selectLegQuery + `
		WHERE strategy_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("get legs by strategy id: %w", err)
	}
	defer rows.Close()

	return scanLegs(rows)
}

// GetAll retrieves every leg, ordered by id.
func (s *LegStore) GetAll(ctx context.Context) ([]*domain.LegRecord, error) {
	query := selectLegQuery + `
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all legs: %w", err)
	}
	defer rows.Close()

	return scanLegs(rows)
}

// DeleteAll clears the table. Referencing fills must be deleted first.
func (s *LegStore) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM legs`); err != nil {
		return fmt.Errorf("delete all legs: %w", err)
	}
	return nil
}

const selectLegQuery = `
	SELECT id, strategy_id, side, call_put, strike, expiration,
		open_qty, remaining_qty, total_premium, opened_at, closed_at
	FROM legs
`

func legArgs(rec *domain.LegRecord) []any {
	return []any{
		rec.ID, rec.StrategyID, string(rec.Side), string(rec.CallPut), rec.Strike, rec.Expiration,
		rec.OpenQuantity, rec.RemainingQuantity, rec.TotalSignedPremium, rec.AvgPrice(),
		tsParam(rec.OpenedAt), tsParam(rec.ClosedAt),
	}
}

// scanLegs scans multiple rows into a slice of LegRecord.
func scanLegs(rows pgx.Rows) ([]*domain.LegRecord, error) {
	var legs []*domain.LegRecord

	for rows.Next() {
		var (
			rec      domain.LegRecord
			side     string
			callPut  string
			openedAt *string
			closedAt *string
		)

		err := rows.Scan(
			&rec.ID, &rec.StrategyID, &side, &callPut, &rec.Strike, &rec.Expiration,
			&rec.OpenQuantity, &rec.RemainingQuantity, &rec.TotalSignedPremium,
			&openedAt, &closedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan leg row: %w", err)
		}

		rec.Side = domain.Side(side)
		rec.CallPut = domain.CallPut(callPut)
		if rec.OpenedAt, err = parseNullableTS(openedAt); err != nil {
			return nil, fmt.Errorf("parse opened_at: %w", err)
		}
		if rec.ClosedAt, err = parseNullableTS(closedAt); err != nil {
			return nil, fmt.Errorf("parse closed_at: %w", err)
		}

		legs = append(legs, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leg rows: %w", err)
	}

	return legs, nil
}
