// Package storage defines the persistence contracts for reconstructed
// strategies, legs and fills.
//
// Every write is an idempotent upsert keyed by the entity's primary id:
// ids are deterministic functions of the input data, so re-running
// ingestion over overlapping exports rewrites the same logical rows instead
// of duplicating them.
package storage

import (
	"context"

	"stratdeck/internal/domain"
)

// StrategyStore provides access to the strategies table.
type StrategyStore interface {
	// Upsert inserts the strategy or replaces the existing row with the same id.
	Upsert(ctx context.Context, s *domain.StrategyRecord) error

	// UpsertBulk upserts multiple strategies atomically.
	UpsertBulk(ctx context.Context, strategies []*domain.StrategyRecord) error

	// GetByID retrieves a strategy by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.StrategyRecord, error)

	// GetAll retrieves every strategy, ordered by id.
	GetAll(ctx context.Context) ([]*domain.StrategyRecord, error)

	// DeleteAll clears the table. Owned legs must be deleted first.
	DeleteAll(ctx context.Context) error
}

// LegStore provides access to the legs table.
type LegStore interface {
	// Upsert inserts the leg or replaces the existing row with the same id.
	// The owning strategy row must already exist.
	Upsert(ctx context.Context, l *domain.LegRecord) error

	// UpsertBulk upserts multiple legs atomically.
	UpsertBulk(ctx context.Context, legs []*domain.LegRecord) error

	// GetByStrategyID retrieves all legs of a strategy, ordered by id.
	GetByStrategyID(ctx context.Context, strategyID string) ([]*domain.LegRecord, error)

	// GetAll retrieves every leg, ordered by id.
	GetAll(ctx context.Context) ([]*domain.LegRecord, error)

	// DeleteAll clears the table. Referencing fills must be deleted first.
	DeleteAll(ctx context.Context) error
}

// FillStore provides access to the fills table.
type FillStore interface {
	// Upsert inserts the fill or replaces the existing row with the same id.
	// The referenced leg row must already exist.
	Upsert(ctx context.Context, f *domain.FillRecord) error

	// UpsertBulk upserts multiple fills atomically.
	UpsertBulk(ctx context.Context, fills []*domain.FillRecord) error

	// GetByLegID retrieves all fills of a leg, ordered by timestamp ASC.
	GetByLegID(ctx context.Context, legID string) ([]*domain.FillRecord, error)

	// GetAll retrieves every fill, ordered by timestamp then id.
	GetAll(ctx context.Context) ([]*domain.FillRecord, error)

	// DeleteAll clears the table.
	DeleteAll(ctx context.Context) error
}
