package postgres

import (
	"context"
	"fmt"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
func (s *PositionStore) Insert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.PositionID == "" || p.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (
			position_id, strategy_id, type, action, strike, premium, quantity,
			ticker, open_date, expiry, capital_committed, status, assignment_price, pnl
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PositionID,
		p.StrategyID,
		string(p.Type),
		string(p.Action),
		p.Strike,
		p.Premium,
		p.Quantity,
		p.Ticker,
		p.OpenDate,
		p.Expiry,
		p.CapitalCommitted,
		string(p.Status),
		p.AssignmentPrice,
		p.PnL,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// GetByStrategyID retrieves all positions of a strategy, ordered by
// open date ascending.
func (s *PositionStore) GetByStrategyID(ctx context.Context, strategyID string) ([]*domain.Position, error) {
	query := `
		SELECT position_id, strategy_id, type, action, strike, premium, quantity,
		       ticker, open_date, expiry, capital_committed, status, assignment_price, pnl
		FROM positions
		WHERE strategy_id = $1
		ORDER BY open_date ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("get positions by strategy id: %w", err)
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		var p domain.Position
		var typeStr, actionStr, statusStr string

		err := rows.Scan(
			&p.PositionID,
			&p.StrategyID,
			&typeStr,
			&actionStr,
			&p.Strike,
			&p.Premium,
			&p.Quantity,
			&p.Ticker,
			&p.OpenDate,
			&p.Expiry,
			&p.CapitalCommitted,
			&statusStr,
			&p.AssignmentPrice,
			&p.PnL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}

		p.Type = domain.OptionType(typeStr)
		p.Action = domain.TradeAction(actionStr)
		p.Status = domain.PositionStatus(statusStr)
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}
	return positions, nil
}

// UpdateStatus marks a position closed, recording the assignment price
// when non-zero. Returns ErrNotFound if not exists.
func (s *PositionStore) UpdateStatus(ctx context.Context, positionID string, status domain.PositionStatus, assignmentPrice float64) error {
	query := `
		UPDATE positions SET
			status = $2,
			assignment_price = CASE WHEN $3 <> 0 THEN $3 ELSE assignment_price END
		WHERE position_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, positionID, string(status), assignmentPrice)
	if err != nil {
		return fmt.Errorf("update position status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteByStrategyID removes all positions of a strategy.
func (s *PositionStore) DeleteByStrategyID(ctx context.Context, strategyID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM positions WHERE strategy_id = $1`, strategyID)
	if err != nil {
		return fmt.Errorf("delete positions by strategy id: %w", err)
	}
	return nil
}
