package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

// StrategyStore implements storage.StrategyStore using PostgreSQL.
type StrategyStore struct {
	pool *Pool
}

// NewStrategyStore creates a new StrategyStore.
func NewStrategyStore(pool *Pool) *StrategyStore {
	return &StrategyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

const strategyColumns = `
	strategy_id, name, ticker, capital, created_at,
	plan_duration_months, plan_monthly_return_pct, plan_premium_pct, plan_trades_per_month,
	btc_accumulated, btc_cost_basis, average_price
`

// Insert adds a new strategy. Returns ErrDuplicateKey if strategy_id exists.
func (s *StrategyStore) Insert(ctx context.Context, strat *domain.Strategy) error {
	if strat == nil || strat.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO strategies (` + strategyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	durationMonths, monthlyReturnPct, premiumPct, tradesPerMonth := planColumns(strat.Plan)

	_, err := s.pool.Exec(ctx, query,
		strat.StrategyID,
		strat.Name,
		strat.Ticker,
		strat.Capital,
		strat.CreatedAt,
		durationMonths,
		monthlyReturnPct,
		premiumPct,
		tradesPerMonth,
		strat.Accumulation.BTCAccumulated,
		strat.Accumulation.BTCCostBasis,
		strat.Accumulation.AveragePrice,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert strategy: %w", err)
	}
	return nil
}

// GetByID retrieves a strategy by its ID. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(ctx context.Context, strategyID string) (*domain.Strategy, error) {
	query := `
		SELECT ` + strategyColumns + `
		FROM strategies
		WHERE strategy_id = $1
	`

	row := s.pool.QueryRow(ctx, query, strategyID)
	strat, err := scanStrategy(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get strategy by id: %w", err)
	}
	return strat, nil
}

// List retrieves all strategies, oldest first.
func (s *StrategyStore) List(ctx context.Context) ([]*domain.Strategy, error) {
	query := `
		SELECT ` + strategyColumns + `
		FROM strategies
		ORDER BY created_at ASC, strategy_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()

	var strategies []*domain.Strategy
	for rows.Next() {
		strat, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy row: %w", err)
		}
		strategies = append(strategies, strat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategy rows: %w", err)
	}
	return strategies, nil
}

// Update replaces a stored strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) Update(ctx context.Context, strat *domain.Strategy) error {
	if strat == nil || strat.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE strategies SET
			name = $2, ticker = $3, capital = $4, created_at = $5,
			plan_duration_months = $6, plan_monthly_return_pct = $7,
			plan_premium_pct = $8, plan_trades_per_month = $9,
			btc_accumulated = $10, btc_cost_basis = $11, average_price = $12
		WHERE strategy_id = $1
	`

	durationMonths, monthlyReturnPct, premiumPct, tradesPerMonth := planColumns(strat.Plan)

	tag, err := s.pool.Exec(ctx, query,
		strat.StrategyID,
		strat.Name,
		strat.Ticker,
		strat.Capital,
		strat.CreatedAt,
		durationMonths,
		monthlyReturnPct,
		premiumPct,
		tradesPerMonth,
		strat.Accumulation.BTCAccumulated,
		strat.Accumulation.BTCCostBasis,
		strat.Accumulation.AveragePrice,
	)
	if err != nil {
		return fmt.Errorf("update strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) Delete(ctx context.Context, strategyID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM strategies WHERE strategy_id = $1`, strategyID)
	if err != nil {
		return fmt.Errorf("delete strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// planColumns flattens the optional plan into nullable columns.
func planColumns(plan *domain.StrategyPlan) (*int, *float64, *float64, *int) {
	if plan == nil {
		return nil, nil, nil, nil
	}
	return &plan.DurationMonths, &plan.TargetMonthlyReturnPct, &plan.TargetPremiumPct, &plan.TargetTradesPerMonth
}

// scanStrategy scans a single row into a Strategy.
func scanStrategy(row pgx.Row) (*domain.Strategy, error) {
	var strat domain.Strategy
	var durationMonths, tradesPerMonth *int
	var monthlyReturnPct, premiumPct *float64

	err := row.Scan(
		&strat.StrategyID,
		&strat.Name,
		&strat.Ticker,
		&strat.Capital,
		&strat.CreatedAt,
		&durationMonths,
		&monthlyReturnPct,
		&premiumPct,
		&tradesPerMonth,
		&strat.Accumulation.BTCAccumulated,
		&strat.Accumulation.BTCCostBasis,
		&strat.Accumulation.AveragePrice,
	)
	if err != nil {
		return nil, err
	}

	// A plan exists when its duration column is non-null.
	if durationMonths != nil {
		plan := &domain.StrategyPlan{DurationMonths: *durationMonths}
		if monthlyReturnPct != nil {
			plan.TargetMonthlyReturnPct = *monthlyReturnPct
		}
		if premiumPct != nil {
			plan.TargetPremiumPct = *premiumPct
		}
		if tradesPerMonth != nil {
			plan.TargetTradesPerMonth = *tradesPerMonth
		}
		strat.Plan = plan
	}
	return &strat, nil
}
