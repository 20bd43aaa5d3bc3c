package postgres

import (
	"context"
	"fmt"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

// PlanStore implements storage.PlanStore using PostgreSQL.
type PlanStore struct {
	pool *Pool
}

// NewPlanStore creates a new PlanStore.
func NewPlanStore(pool *Pool) *PlanStore {
	return &PlanStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PlanStore = (*PlanStore)(nil)

// Insert adds a saved plan. Returns ErrDuplicateKey if plan_id exists.
func (s *PlanStore) Insert(ctx context.Context, p *domain.SavedProjectionPlan) error {
	if p == nil || p.PlanID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO projection_plans (
			plan_id, name, initial_capital, contribution, frequency,
			daily_rate_pct, years, final_capital, total_invested, total_profit
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PlanID,
		p.Name,
		p.InitialCapital,
		p.Contribution,
		string(p.Frequency),
		p.DailyRatePct,
		p.Years,
		p.FinalCapital,
		p.TotalInvested,
		p.TotalProfit,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert projection plan: %w", err)
	}
	return nil
}

// List retrieves all saved plans, sorted by name.
func (s *PlanStore) List(ctx context.Context) ([]*domain.SavedProjectionPlan, error) {
	query := `
		SELECT plan_id, name, initial_capital, contribution, frequency,
		       daily_rate_pct, years, final_capital, total_invested, total_profit
		FROM projection_plans
		ORDER BY name ASC, plan_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projection plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.SavedProjectionPlan
	for rows.Next() {
		var p domain.SavedProjectionPlan
		var freqStr string

		err := rows.Scan(
			&p.PlanID,
			&p.Name,
			&p.InitialCapital,
			&p.Contribution,
			&freqStr,
			&p.DailyRatePct,
			&p.Years,
			&p.FinalCapital,
			&p.TotalInvested,
			&p.TotalProfit,
		)
		if err != nil {
			return nil, fmt.Errorf("scan projection plan row: %w", err)
		}

		p.Frequency = domain.ContributionFrequency(freqStr)
		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projection plan rows: %w", err)
	}
	return plans, nil
}

// Delete removes a saved plan. Returns ErrNotFound if not exists.
func (s *PlanStore) Delete(ctx context.Context, planID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projection_plans WHERE plan_id = $1`, planID)
	if err != nil {
		return fmt.Errorf("delete projection plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
