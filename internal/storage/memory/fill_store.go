package memory

import (
	"context"
	"sort"
	"sync"

	"stratdeck/internal/domain"
	"stratdeck/internal/storage"
)

// FillStore is an in-memory implementation of storage.FillStore.
type FillStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FillRecord // keyed by fill id
}

// NewFillStore creates a new in-memory fill store.
func NewFillStore() *FillStore {
	return &FillStore{
		data: make(map[string]*domain.FillRecord),
	}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

// Upsert inserts the fill or replaces the existing row with the same id.
func (s *FillStore) Upsert(_ context.Context, rec *domain.FillRecord) error {
	if rec == nil || rec.ID == "" || rec.LegID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *rec
	s.data[rec.ID] = &copy
	return nil
}

// UpsertBulk upserts multiple fills atomically.
func (s *FillStore) UpsertBulk(_ context.Context, fills []*domain.FillRecord) error {
	if len(fills) == 0 {
		return nil
	}

	for _, rec := range fills {
		if rec == nil || rec.ID == "" || rec.LegID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range fills {
		copy := *rec
		s.data[rec.ID] = &copy
	}
	return nil
}

// GetByLegID retrieves all fills of a leg, ordered by timestamp ASC.
func (s *FillStore) GetByLegID(_ context.Context, legID string) ([]*domain.FillRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FillRecord
	for _, rec := range s.data {
		if rec.LegID == legID {
			copy := *rec
			result = append(result, &copy)
		}
	}

	sortFills(result)
	return result, nil
}

// GetAll retrieves every fill, ordered by timestamp then id.
func (s *FillStore) GetAll(_ context.Context) ([]*domain.FillRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.FillRecord, 0, len(s.data))
	for _, rec := range s.data {
		copy := *rec
		result = append(result, &copy)
	}

	sortFills(result)
	return result, nil
}

// DeleteAll clears the store.
func (s *FillStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*domain.FillRecord)
	return nil
}

func sortFills(fills []*domain.FillRecord) {
	sort.Slice(fills, func(i, j int) bool {
		if !fills[i].TS.Equal(fills[j].TS) {
			return fills[i].TS.Before(fills[j].TS)
		}
		return fills[i].ID < fills[j].ID
	})
}
