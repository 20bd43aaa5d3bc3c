package memory

import (
	"context"
	"sort"
	"sync"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

// PlanStore is an in-memory implementation of storage.PlanStore.
type PlanStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SavedProjectionPlan
}

// NewPlanStore creates a new in-memory plan store.
func NewPlanStore() *PlanStore {
	return &PlanStore{data: make(map[string]*domain.SavedProjectionPlan)}
}

var _ storage.PlanStore = (*PlanStore)(nil)

// Insert adds a saved plan. Returns ErrDuplicateKey if the ID exists.
func (s *PlanStore) Insert(_ context.Context, p *domain.SavedProjectionPlan) error {
	if p == nil || p.PlanID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PlanID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *p
	s.data[p.PlanID] = &cp
	return nil
}

// List retrieves all saved plans, sorted by name.
func (s *PlanStore) List(_ context.Context) ([]*domain.SavedProjectionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SavedProjectionPlan, 0, len(s.data))
	for _, p := range s.data {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].PlanID < result[j].PlanID
	})
	return result, nil
}

// Delete removes a saved plan. Returns ErrNotFound if not exists.
func (s *PlanStore) Delete(_ context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[planID]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, planID)
	return nil
}
