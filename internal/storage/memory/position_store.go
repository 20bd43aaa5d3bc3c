package memory

import (
	"context"
	"sort"
	"sync"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by position_id
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{data: make(map[string]*domain.Position)}
}

var _ storage.PositionStore = (*PositionStore)(nil)

// Insert adds a new position. Returns ErrDuplicateKey if the ID exists.
func (s *PositionStore) Insert(_ context.Context, p *domain.Position) error {
	if p == nil || p.PositionID == "" || p.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PositionID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *p
	s.data[p.PositionID] = &cp
	return nil
}

// GetByStrategyID retrieves all positions of a strategy, ordered by
// open date ascending.
func (s *PositionStore) GetByStrategyID(_ context.Context, strategyID string) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.StrategyID == strategyID {
			cp := *p
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].OpenDate.Equal(result[j].OpenDate) {
			return result[i].OpenDate.Before(result[j].OpenDate)
		}
		return result[i].PositionID < result[j].PositionID
	})
	return result, nil
}

// UpdateStatus marks a position closed. Returns ErrNotFound if not exists.
func (s *PositionStore) UpdateStatus(_ context.Context, positionID string, status domain.PositionStatus, assignmentPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[positionID]
	if !exists {
		return storage.ErrNotFound
	}
	p.Status = status
	if assignmentPrice != 0 {
		p.AssignmentPrice = assignmentPrice
	}
	return nil
}

// DeleteByStrategyID removes all positions of a strategy.
func (s *PositionStore) DeleteByStrategyID(_ context.Context, strategyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.data {
		if p.StrategyID == strategyID {
			delete(s.data, id)
		}
	}
	return nil
}
