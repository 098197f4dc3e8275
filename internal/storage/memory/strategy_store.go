package memory

import (
	"context"
	"sort"
	"sync"

	"stratdeck/internal/domain"
	"stratdeck/internal/storage"
)

// StrategyStore is an in-memory implementation of storage.StrategyStore.
// Legs are persisted separately through a LegStore; the Legs map on the
// record is not stored.
type StrategyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StrategyRecord // keyed by strategy id
}

// NewStrategyStore creates a new in-memory strategy store.
func NewStrategyStore() *StrategyStore {
	return &StrategyStore{
		data: make(map[string]*domain.StrategyRecord),
	}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

// Upsert inserts the strategy or replaces the existing row with the same id.
func (s *StrategyStore) Upsert(_ context.Context, rec *domain.StrategyRecord) error {
	if rec == nil || rec.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[rec.ID] = copyStrategy(rec)
	return nil
}

// UpsertBulk upserts multiple strategies atomically.
func (s *StrategyStore) UpsertBulk(_ context.Context, strategies []*domain.StrategyRecord) error {
	if len(strategies) == 0 {
		return nil
	}

	for _, rec := range strategies {
		if rec == nil || rec.ID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range strategies {
		s.data[rec.ID] = copyStrategy(rec)
	}
	return nil
}

// GetByID retrieves a strategy by id. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(_ context.Context, id string) (*domain.StrategyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyStrategy(rec), nil
}

// GetAll retrieves every strategy, ordered by id.
func (s *StrategyStore) GetAll(_ context.Context) ([]*domain.StrategyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.StrategyRecord, 0, len(s.data))
	for _, rec := range s.data {
		result = append(result, copyStrategy(rec))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// DeleteAll clears the store.
func (s *StrategyStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*domain.StrategyRecord)
	return nil
}

// copyStrategy returns a defensive copy of the persisted columns. The Legs
// map is dropped, matching the relational backend where legs live in their
// own table.
func copyStrategy(rec *domain.StrategyRecord) *domain.StrategyRecord {
	c := *rec
	c.Legs = nil
	return &c
}
