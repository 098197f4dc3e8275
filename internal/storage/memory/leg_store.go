package memory

import (
	"context"
	"sort"
	"sync"

	"stratdeck/internal/domain"
	"stratdeck/internal/storage"
)

// LegStore is an in-memory implementation of storage.LegStore.
type LegStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LegRecord // keyed by leg id
}

// NewLegStore creates a new in-memory leg store.
func NewLegStore() *LegStore {
	return &LegStore{
		data: make(map[string]*domain.LegRecord),
	}
}

// Compile-time interface check.
var _ storage.LegStore = (*LegStore)(nil)

// Upsert inserts the leg or replaces the existing row with the same id.
func (s *LegStore) Upsert(_ context.Context, rec *domain.LegRecord) error {
	if rec == nil || rec.ID == "" || rec.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *rec
	s.data[rec.ID] = &copy
	return nil
}

// UpsertBulk upserts multiple legs atomically.
func (s *LegStore) UpsertBulk(_ context.Context, legs []*domain.LegRecord) error {
	if len(legs) == 0 {
		return nil
	}

	for _, rec := range legs {
		if rec == nil || rec.ID == "" || rec.StrategyID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range legs {
		copy := *rec
		s.data[rec.ID] = &copy
	}
	return nil
}

// GetByStrategyID retrieves all legs of a strategy, ordered by id.
func (s *LegStore) GetByStrategyID(_ context.Context, strategyID string) ([]*domain.LegRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LegRecord
	for _, rec := range s.data {
		if rec.StrategyID == strategyID {
			copy := *rec
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// GetAll retrieves every leg, ordered by id.
func (s *LegStore) GetAll(_ context.Context) ([]*domain.LegRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.LegRecord, 0, len(s.data))
	for _, rec := range s.data {
		copy := *rec
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// DeleteAll clears the store.
func (s *LegStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*domain.LegRecord)
	return nil
}
