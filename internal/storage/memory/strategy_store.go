package memory

import (
	"context"
	"sort"
	"sync"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

// StrategyStore is an in-memory implementation of storage.StrategyStore.
type StrategyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Strategy
}

// NewStrategyStore creates a new in-memory strategy store.
func NewStrategyStore() *StrategyStore {
	return &StrategyStore{data: make(map[string]*domain.Strategy)}
}

var _ storage.StrategyStore = (*StrategyStore)(nil)

// Insert adds a new strategy. Returns ErrDuplicateKey if the ID exists.
func (s *StrategyStore) Insert(_ context.Context, strat *domain.Strategy) error {
	if strat == nil || strat.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[strat.StrategyID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *strat
	s.data[strat.StrategyID] = &cp
	return nil
}

// GetByID retrieves a strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(_ context.Context, strategyID string) (*domain.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	strat, exists := s.data[strategyID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *strat
	return &cp, nil
}

// List retrieves all strategies, oldest first.
func (s *StrategyStore) List(_ context.Context) ([]*domain.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Strategy, 0, len(s.data))
	for _, strat := range s.data {
		cp := *strat
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].StrategyID < result[j].StrategyID
	})
	return result, nil
}

// Update replaces a stored strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) Update(_ context.Context, strat *domain.Strategy) error {
	if strat == nil || strat.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[strat.StrategyID]; !exists {
		return storage.ErrNotFound
	}
	cp := *strat
	s.data[strat.StrategyID] = &cp
	return nil
}

// Delete removes a strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) Delete(_ context.Context, strategyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[strategyID]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, strategyID)
	return nil
}
