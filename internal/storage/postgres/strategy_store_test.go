package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratdeck/internal/domain"
	"stratdeck/internal/storage"
)

// createTestStrategy upserts a strategy row and returns its id.
func createTestStrategy(t *testing.T, ctx context.Context, pool *Pool, id string) string {
	t.Helper()

	store := NewStrategyStore(pool)
	rec := &domain.StrategyRecord{
		ID:           id,
		Underlying:   "SPY",
		StrategyType: domain.StrategyPutCreditSpread,
		Status:       domain.StatusOpen,
		OpenedAt:     time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC),
	}

	err := store.Upsert(ctx, rec)
	require.NoError(t, err)
	return id
}

func TestStrategyStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStrategyStore(pool)

	rec := &domain.StrategyRecord{
		ID:           "IC_SPY_2025-01-17",
		Underlying:   "SPY",
		StrategyType: domain.StrategyIronCondor,
		Status:       domain.StatusOpen,
		OpenedAt:     time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC),
	}

	err := store.Upsert(ctx, rec)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "IC_SPY_2025-01-17")
	require.NoError(t, err)

	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Underlying, got.Underlying)
	assert.Equal(t, rec.StrategyType, got.StrategyType)
	assert.Equal(t, rec.Status, got.Status)
	assert.True(t, rec.OpenedAt.Equal(got.OpenedAt))
	assert.True(t, got.ClosedAt.IsZero(), "closed_at should round-trip as zero time")
}

func TestStrategyStore_UpsertReplaces(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStrategyStore(pool)

	rec := &domain.StrategyRecord{
		ID:           "PCS_SPY_2025-01-17",
		Underlying:   "SPY",
		StrategyType: domain.StrategyPutCreditSpread,
		Status:       domain.StatusOpen,
		OpenedAt:     time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, store.Upsert(ctx, rec))

	rec.Status = domain.StatusClosed
	rec.ClosedAt = time.Date(2025, 1, 10, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.Upsert(ctx, rec))

	got, err := store.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)
	assert.True(t, rec.ClosedAt.Equal(got.ClosedAt))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "double upsert must not duplicate the row")
}

func TestStrategyStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStrategyStore(pool)

	_, err := store.GetByID(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStrategyStore_GetAllOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStrategyStore(pool)

	strategies := []*domain.StrategyRecord{
		{ID: "Strangle_TSLA_2025-02-21", Underlying: "TSLA", StrategyType: domain.StrategyStrangle, Status: domain.StatusOpen, OpenedAt: time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC)},
		{ID: "IC_SPY_2025-01-17", Underlying: "SPY", StrategyType: domain.StrategyIronCondor, Status: domain.StatusOpen, OpenedAt: time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)},
		{ID: "PCS_QQQ_2025-01-17", Underlying: "QQQ", StrategyType: domain.StrategyPutCreditSpread, Status: domain.StatusOpen, OpenedAt: time.Date(2025, 1, 2, 9, 31, 0, 0, time.UTC)},
	}
	require.NoError(t, store.UpsertBulk(ctx, strategies))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "IC_SPY_2025-01-17", all[0].ID)
	assert.Equal(t, "PCS_QQQ_2025-01-17", all[1].ID)
	assert.Equal(t, "Strangle_TSLA_2025-02-21", all[2].ID)
}

func TestStrategyStore_DeleteAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStrategyStore(pool)

	createTestStrategy(t, ctx, pool, "PCS_SPY_2025-01-17")
	require.NoError(t, store.DeleteAll(ctx))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStrategyStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStrategyStore(pool)

	assert.ErrorIs(t, store.Upsert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Upsert(ctx, &domain.StrategyRecord{ID: ""}), storage.ErrInvalidInput)
}
