package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stratdeck/internal/domain"
	"stratdeck/internal/storage"
)

// FillStore implements storage.FillStore using PostgreSQL.
type FillStore struct {
	pool *Pool
}

// NewFillStore creates a new FillStore.
func NewFillStore(pool *Pool) *FillStore {
	return &FillStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

const upsertFillQuery = `
	INSERT INTO fills (id, leg_id, ts, action, price, qty, fees)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		leg_id = EXCLUDED.leg_id,
		ts = EXCLUDED.ts,
		action = EXCLUDED.action,
		price = EXCLUDED.price,
		qty = EXCLUDED.qty,
		fees = EXCLUDED.fees
`

// Upsert inserts the fill or replaces the existing row with the same id.
// Returns ErrInvalidInput if the referenced leg row does not exist.
func (s *FillStore) Upsert(ctx context.Context, rec *domain.FillRecord) error {
	if rec == nil || rec.ID == "" || rec.LegID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, upsertFillQuery,
		rec.ID, rec.LegID, domain.FormatTimestamp(rec.TS),
		string(rec.Action), rec.Price, rec.Qty, rec.Fees,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("upsert fill %s: missing leg %s: %w", rec.ID, rec.LegID, storage.ErrInvalidInput)
		}
		return fmt.Errorf("upsert fill: %w", err)
	}
	return nil
}

// UpsertBulk upserts multiple fills atomically.
func (s *FillStore) UpsertBulk(ctx context.Context, fills []*domain.FillRecord) error {
	if len(fills) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range fills {
		if rec == nil || rec.ID == "" || rec.LegID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, upsertFillQuery,
			rec.ID, rec.LegID, domain.FormatTimestamp(rec.TS),
			string(rec.Action), rec.Price, rec.Qty, rec.Fees,
		)
		if err != nil {
			if isForeignKeyError(err) {
				return fmt.Errorf("upsert fill %s: missing leg %s: %w", rec.ID, rec.LegID, storage.ErrInvalidInput)
			}
			return fmt.Errorf("upsert fill in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByLegID retrieves all fills of a leg, ordered by timestamp ASC.
func (s *FillStore) GetByLegID(ctx context.Context, legID string) ([]*domain.FillRecord, error) {
	query := `
		SELECT id, leg_id, ts, action, price, qty, fees
		FROM fills
		WHERE leg_id = $1
		ORDER BY ts ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, legID)
	if err != nil {
		return nil, fmt.Errorf("get fills by leg id: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// GetAll retrieves every fill, ordered by timestamp then id.
func (s *FillStore) GetAll(ctx context.Context) ([]*domain.FillRecord, error) {
	query := `
		SELECT id, leg_id, ts, action, price, qty, fees
		FROM fills
		ORDER BY ts ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all fills: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// DeleteAll clears the table.
func (s *FillStore) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM fills`); err != nil {
		return fmt.Errorf("delete all fills: %w", err)
	}
	return nil
}

// scanFills scans multiple rows into a slice of FillRecord.
func scanFills(rows pgx.Rows) ([]*domain.FillRecord, error) {
	var fills []*domain.FillRecord

	for rows.Next() {
		var (
			rec    domain.FillRecord
			ts     string
			action string
		)

		err := rows.Scan(&rec.ID, &rec.LegID, &ts, &action, &rec.Price, &rec.Qty, &rec.Fees)
		if err != nil {
			return nil, fmt.Errorf("scan fill row: %w", err)
		}

		rec.Action = domain.Action(action)
		if rec.TS, err = domain.ParseTimestamp(ts); err != nil {
			return nil, fmt.Errorf("parse ts: %w", err)
		}

		fills = append(fills, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fill rows: %w", err)
	}

	return fills, nil
}
