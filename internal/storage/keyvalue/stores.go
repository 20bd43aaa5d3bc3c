package keyvalue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

// Collection keys. Positions live under one key per strategy so a busy
// strategy does not force rewriting everyone else's history.
const (
	strategiesKey  = "strategies"
	plansKey       = "plans"
	tradesKeyStart = "trades:"
)

func tradesKey(strategyID string) string {
	return tradesKeyStart + strategyID
}

// StrategyStore persists strategies as one JSON document.
type StrategyStore struct {
	mu sync.Mutex
	kv KV
}

// NewStrategyStore creates a strategy store over kv.
func NewStrategyStore(kv KV) *StrategyStore {
	return &StrategyStore{kv: kv}
}

var _ storage.StrategyStore = (*StrategyStore)(nil)

func (s *StrategyStore) load() ([]*domain.Strategy, error) {
	var list []*domain.Strategy
	if err := loadDoc(s.kv, strategiesKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *StrategyStore) Insert(_ context.Context, strat *domain.Strategy) error {
	if strat == nil || strat.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range list {
		if existing.StrategyID == strat.StrategyID {
			return storage.ErrDuplicateKey
		}
	}
	cp := *strat
	list = append(list, &cp)
	return saveDoc(s.kv, strategiesKey, list)
}

func (s *StrategyStore) GetByID(_ context.Context, strategyID string) (*domain.Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, strat := range list {
		if strat.StrategyID == strategyID {
			cp := *strat
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *StrategyStore) List(_ context.Context) ([]*domain.Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].StrategyID < list[j].StrategyID
	})
	return list, nil
}

func (s *StrategyStore) Update(_ context.Context, strat *domain.Strategy) error {
	if strat == nil || strat.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return err
	}
	for i, existing := range list {
		if existing.StrategyID == strat.StrategyID {
			cp := *strat
			list[i] = &cp
			return saveDoc(s.kv, strategiesKey, list)
		}
	}
	return storage.ErrNotFound
}

func (s *StrategyStore) Delete(_ context.Context, strategyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load()
	if err != nil {
		return err
	}
	for i, existing := range list {
		if existing.StrategyID == strategyID {
			list = append(list[:i], list[i+1:]...)
			return saveDoc(s.kv, strategiesKey, list)
		}
	}
	return storage.ErrNotFound
}

// PositionStore persists positions as one JSON document per strategy.
type PositionStore struct {
	mu sync.Mutex
	kv KV
}

// NewPositionStore creates a position store over kv.
func NewPositionStore(kv KV) *PositionStore {
	return &PositionStore{kv: kv}
}

var _ storage.PositionStore = (*PositionStore)(nil)

func (s *PositionStore) Insert(_ context.Context, p *domain.Position) error {
	if p == nil || p.PositionID == "" || p.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tradesKey(p.StrategyID)
	var list []*domain.Position
	if err := loadDoc(s.kv, key, &list); err != nil {
		return err
	}
	for _, existing := range list {
		if existing.PositionID == p.PositionID {
			return storage.ErrDuplicateKey
		}
	}
	cp := *p
	list = append(list, &cp)
	return saveDoc(s.kv, key, list)
}

func (s *PositionStore) GetByStrategyID(_ context.Context, strategyID string) ([]*domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []*domain.Position
	if err := loadDoc(s.kv, tradesKey(strategyID), &list); err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].OpenDate.Equal(list[j].OpenDate) {
			return list[i].OpenDate.Before(list[j].OpenDate)
		}
		return list[i].PositionID < list[j].PositionID
	})
	return list, nil
}

// UpdateStatus scans every trades document because positions are keyed
// by strategy, not by position. Collections stay small enough that this
// is fine for a file backend.
func (s *PositionStore) UpdateStatus(_ context.Context, positionID string, status domain.PositionStatus, assignmentPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.tradeKeys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		var list []*domain.Position
		if err := loadDoc(s.kv, key, &list); err != nil {
			return err
		}
		for _, p := range list {
			if p.PositionID != positionID {
				continue
			}
			p.Status = status
			if assignmentPrice != 0 {
				p.AssignmentPrice = assignmentPrice
			}
			return saveDoc(s.kv, key, list)
		}
	}
	return storage.ErrNotFound
}

func (s *PositionStore) DeleteByStrategyID(_ context.Context, strategyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kv.Remove(tradesKey(strategyID))
}

// tradeKeys lists the per-strategy trade documents via the strategies
// document, since KV has no key iteration.
func (s *PositionStore) tradeKeys() ([]string, error) {
	var strategies []*domain.Strategy
	if err := loadDoc(s.kv, strategiesKey, &strategies); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(strategies))
	for _, strat := range strategies {
		keys = append(keys, tradesKey(strat.StrategyID))
	}
	return keys, nil
}

// PlanStore persists saved projection plans as one JSON document.
type PlanStore struct {
	mu sync.Mutex
	kv KV
}

// NewPlanStore creates a plan store over kv.
func NewPlanStore(kv KV) *PlanStore {
	return &PlanStore{kv: kv}
}

var _ storage.PlanStore = (*PlanStore)(nil)

func (s *PlanStore) Insert(_ context.Context, p *domain.SavedProjectionPlan) error {
	if p == nil || p.PlanID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var list []*domain.SavedProjectionPlan
	if err := loadDoc(s.kv, plansKey, &list); err != nil {
		return err
	}
	for _, existing := range list {
		if existing.PlanID == p.PlanID {
			return storage.ErrDuplicateKey
		}
	}
	cp := *p
	list = append(list, &cp)
	return saveDoc(s.kv, plansKey, list)
}

func (s *PlanStore) List(_ context.Context) ([]*domain.SavedProjectionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []*domain.SavedProjectionPlan
	if err := loadDoc(s.kv, plansKey, &list); err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].PlanID < list[j].PlanID
	})
	return list, nil
}

func (s *PlanStore) Delete(_ context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []*domain.SavedProjectionPlan
	if err := loadDoc(s.kv, plansKey, &list); err != nil {
		return err
	}
	for i, existing := range list {
		if existing.PlanID == planID {
			list = append(list[:i], list[i+1:]...)
			return saveDoc(s.kv, plansKey, list)
		}
	}
	return storage.ErrNotFound
}

// NewBackend wires all three stores over one KV.
func NewBackend(kv KV) storage.Backend {
	return storage.Backend{
		Strategies: NewStrategyStore(kv),
		Positions:  NewPositionStore(kv),
		Plans:      NewPlanStore(kv),
	}
}

func loadDoc(kv KV, key string, out any) error {
	raw, ok, err := kv.Get(key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func saveDoc(kv KV, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
