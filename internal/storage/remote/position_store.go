package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

// PositionStore implements storage.PositionStore against the wheel API.
type PositionStore struct {
	client *Client
}

// NewPositionStore creates a position store over the API client.
func NewPositionStore(client *Client) *PositionStore {
	return &PositionStore{client: client}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

// wireTrade is the API's trade row.
type wireTrade struct {
	ID         string  `json:"id"`
	StrategyID string  `json:"strategy_id"`
	Type       string  `json:"type"`
	Action     string  `json:"action"`
	Strike     float64 `json:"strike"`
	Premium    float64 `json:"premium"`
	Capital    float64 `json:"capital"`
	Quantity   float64 `json:"quantity"`
	Ticker     string  `json:"ticker"`
	Expiry     string  `json:"expiry"`
	PnL        float64 `json:"pnl"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
}

func (w *wireTrade) toDomain() (*domain.Position, error) {
	openDate, err := parseTime(w.CreatedAt)
	if err != nil {
		return nil, err
	}
	expiry, err := parseTime(w.Expiry)
	if err != nil {
		return nil, err
	}
	return &domain.Position{
		PositionID:       w.ID,
		StrategyID:       w.StrategyID,
		Type:             domain.OptionType(w.Type),
		Action:           domain.TradeAction(w.Action),
		Strike:           w.Strike,
		Premium:          w.Premium,
		Quantity:         w.Quantity,
		Ticker:           w.Ticker,
		OpenDate:         openDate,
		Expiry:           expiry,
		CapitalCommitted: w.Capital,
		Status:           domain.PositionStatus(w.Status),
		PnL:              w.PnL,
	}, nil
}

// Insert creates the trade server-side. The API assigns its own ID and
// recomputes PnL from action, premium and quantity, so PositionID is
// rewritten with the server's value on success.
func (s *PositionStore) Insert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	req := struct {
		StrategyID string  `json:"strategyId"`
		Type       string  `json:"type"`
		Action     string  `json:"action"`
		Strike     float64 `json:"strike"`
		Premium    float64 `json:"premium"`
		Capital    float64 `json:"capital"`
		Quantity   float64 `json:"quantity"`
		Ticker     string  `json:"ticker"`
		Expiry     string  `json:"expiry"`
		Status     string  `json:"status"`
	}{
		StrategyID: p.StrategyID,
		Type:       string(p.Type),
		Action:     string(p.Action),
		Strike:     p.Strike,
		Premium:    p.Premium,
		Capital:    p.CapitalCommitted,
		Quantity:   p.Quantity,
		Ticker:     p.Ticker,
		Expiry:     p.Expiry.Format(time.RFC3339),
		Status:     string(p.Status),
	}

	var resp struct {
		Trade wireTrade `json:"trade"`
	}
	err := s.client.do(ctx, http.MethodPost, "/wheel/trades", req, &resp)
	if errors.Is(err, errNotFoundHTTP) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("create remote trade: %w", err)
	}
	if resp.Trade.ID != "" {
		p.PositionID = resp.Trade.ID
	}
	return nil
}

// GetByStrategyID retrieves all trades of a strategy, ordered by open
// date ascending.
func (s *PositionStore) GetByStrategyID(ctx context.Context, strategyID string) ([]*domain.Position, error) {
	var resp struct {
		Trades []wireTrade `json:"trades"`
	}
	err := s.client.do(ctx, http.MethodGet, "/wheel/trades/"+strategyID, nil, &resp)
	if errors.Is(err, errNotFoundHTTP) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("list remote trades: %w", err)
	}

	positions := make([]*domain.Position, 0, len(resp.Trades))
	for i := range resp.Trades {
		p, err := resp.Trades[i].toDomain()
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	// The API returns newest first.
	sort.Slice(positions, func(i, j int) bool {
		if !positions[i].OpenDate.Equal(positions[j].OpenDate) {
			return positions[i].OpenDate.Before(positions[j].OpenDate)
		}
		return positions[i].PositionID < positions[j].PositionID
	})
	return positions, nil
}

// UpdateStatus patches the trade's status. The API carries no
// assignment price field, so it is dropped on this backend.
func (s *PositionStore) UpdateStatus(ctx context.Context, positionID string, status domain.PositionStatus, _ float64) error {
	req := struct {
		Status string `json:"status"`
	}{Status: string(status)}

	err := s.client.do(ctx, http.MethodPatch, "/wheel/trades/"+positionID, req, nil)
	if errors.Is(err, errNotFoundHTTP) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update remote trade status: %w", err)
	}
	return nil
}

// DeleteByStrategyID is not available: the API only deletes trades as
// part of deleting their strategy.
func (s *PositionStore) DeleteByStrategyID(_ context.Context, _ string) error {
	return ErrUnsupported
}
