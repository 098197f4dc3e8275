package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"stratdeck/internal/domain"
	"stratdeck/internal/storage"
)

// StrategyStore implements storage.StrategyStore using PostgreSQL.
// Legs are persisted separately through LegStore; the Legs map on the
// record is not stored.
type StrategyStore struct {
	pool *Pool
}

// NewStrategyStore creates a new StrategyStore.
func NewStrategyStore(pool *Pool) *StrategyStore {
	return &StrategyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

const upsertStrategyQuery = `
	INSERT INTO strategies (id, underlying, strategy_type, status, opened_at, closed_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		underlying = EXCLUDED.underlying,
		strategy_type = EXCLUDED.strategy_type,
		status = EXCLUDED.status,
		opened_at = EXCLUDED.opened_at,
		closed_at = EXCLUDED.closed_at
`

// Upsert inserts the strategy or replaces the existing row with the same id.
func (s *StrategyStore) Upsert(ctx context.Context, rec *domain.StrategyRecord) error {
	if rec == nil || rec.ID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, upsertStrategyQuery,
		rec.ID, rec.Underlying, string(rec.StrategyType), string(rec.Status),
		domain.FormatTimestamp(rec.OpenedAt), tsParam(rec.ClosedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert strategy: %w", err)
	}
	return nil
}

// UpsertBulk upserts multiple strategies atomically.
func (s *StrategyStore) UpsertBulk(ctx context.Context, strategies []*domain.StrategyRecord) error {
	if len(strategies) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range strategies {
		if rec == nil || rec.ID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, upsertStrategyQuery,
			rec.ID, rec.Underlying, string(rec.StrategyType), string(rec.Status),
			domain.FormatTimestamp(rec.OpenedAt), tsParam(rec.ClosedAt),
		)
		if err != nil {
			return fmt.Errorf("upsert strategy in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a strategy by id. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(ctx context.Context, id string) (*domain.StrategyRecord, error) {
	query := `
		SELECT id, underlying, strategy_type, status, opened_at, closed_at
		FROM strategies
		WHERE id = $1
	`

	row := s.pool.QueryRow(ctx, query, id)
	rec, err := scanStrategy(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get strategy by id: %w", err)
	}
	return rec, nil
}

// GetAll retrieves every strategy, ordered by id.
func (s *StrategyStore) GetAll(ctx context.Context) ([]*domain.StrategyRecord, error) {
	query := `
		SELECT id, underlying, strategy_type, status, opened_at, closed_at
		FROM strategies
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all strategies: %w", err)
	}
	defer rows.Close()

	var result []*domain.StrategyRecord
	for rows.Next() {
		rec, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy row: %w", err)
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategy rows: %w", err)
	}

	return result, nil
}

// DeleteAll clears the table. Owned legs must be deleted first.
func (s *StrategyStore) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM strategies`); err != nil {
		return fmt.Errorf("delete all strategies: %w", err)
	}
	return nil
}

// scanStrategy scans a single row into a StrategyRecord.
func scanStrategy(row pgx.Row) (*domain.StrategyRecord, error) {
	var (
		rec          domain.StrategyRecord
		strategyType string
		status       string
		openedAt     string
		closedAt     *string
	)

	err := row.Scan(&rec.ID, &rec.Underlying, &strategyType, &status, &openedAt, &closedAt)
	if err != nil {
		return nil, err
	}

	rec.StrategyType = domain.StrategyType(strategyType)
	rec.Status = domain.StrategyStatus(status)
	if rec.OpenedAt, err = domain.ParseTimestamp(openedAt); err != nil {
		return nil, fmt.Errorf("parse opened_at: %w", err)
	}
	if rec.ClosedAt, err = parseNullableTS(closedAt); err != nil {
		return nil, fmt.Errorf("parse closed_at: %w", err)
	}

	return &rec, nil
}

// tsParam converts a timestamp to its SQL parameter: NULL for the zero time.
func tsParam(t time.Time) any {
	s := domain.FormatTimestamp(t)
	if s == "" {
		return nil
	}
	return s
}

func parseNullableTS(s *string) (time.Time, error) {
	if s == nil {
		return time.Time{}, nil
	}
	return domain.ParseTimestamp(*s)
}
