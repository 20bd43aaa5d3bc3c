// Package storage defines the persistence boundary of the wheel
// engine. Backends are interchangeable: callers pick one at
// construction and expect read-after-write semantics from all of them.
// Persistence is best-effort replication, and in-memory ledger state
// stays authoritative when a backend fails.
package storage

import (
	"context"
	"time"

	"btcwheel/internal/domain"
)

// StrategyStore persists wheel strategies.
type StrategyStore interface {
	// Insert adds a new strategy. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, s *domain.Strategy) error

	// GetByID retrieves a strategy. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, strategyID string) (*domain.Strategy, error)

	// List retrieves all strategies, oldest first.
	List(ctx context.Context) ([]*domain.Strategy, error)

	// Update replaces a stored strategy (capital, plan, accumulation).
	// Returns ErrNotFound if not exists.
	Update(ctx context.Context, s *domain.Strategy) error

	// Delete removes a strategy. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, strategyID string) error
}

// PositionStore persists the positions of each strategy.
type PositionStore interface {
	// Insert adds a new position. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, p *domain.Position) error

	// GetByStrategyID retrieves all positions of a strategy, ordered by
	// open date ascending.
	GetByStrategyID(ctx context.Context, strategyID string) ([]*domain.Position, error)

	// UpdateStatus marks a position closed, recording the assignment
	// price when it closed by assignment. Returns ErrNotFound if not exists.
	UpdateStatus(ctx context.Context, positionID string, status domain.PositionStatus, assignmentPrice float64) error

	// DeleteByStrategyID removes all positions of a strategy.
	DeleteByStrategyID(ctx context.Context, strategyID string) error
}

// PlanStore persists saved projection plans.
type PlanStore interface {
	// Insert adds a saved plan. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, p *domain.SavedProjectionPlan) error

	// List retrieves all saved plans.
	List(ctx context.Context) ([]*domain.SavedProjectionPlan, error)

	// Delete removes a saved plan. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, planID string) error
}

// PricePointStore persists price history for a ticker.
type PricePointStore interface {
	// InsertBulk appends price points.
	InsertBulk(ctx context.Context, ticker string, points []domain.PricePoint) error

	// GetByRange retrieves points within [from, to], ordered by
	// timestamp ascending.
	GetByRange(ctx context.Context, ticker string, from, to time.Time) ([]domain.PricePoint, error)
}

// Backend bundles the stores one deployment mode provides.
type Backend struct {
	Strategies StrategyStore
	Positions  PositionStore
	Plans      PlanStore
}
