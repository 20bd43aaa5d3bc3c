package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

// StrategyStore implements storage.StrategyStore against the wheel API.
type StrategyStore struct {
	client *Client
}

// NewStrategyStore creates a strategy store over the API client.
func NewStrategyStore(client *Client) *StrategyStore {
	return &StrategyStore{client: client}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

// wireStrategy is the API's strategy row.
type wireStrategy struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Ticker       string  `json:"ticker"`
	TotalCapital float64 `json:"total_capital"`
	CreatedAt    string  `json:"created_at"`
}

func (w *wireStrategy) toDomain() (*domain.Strategy, error) {
	createdAt, err := parseTime(w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Strategy{
		StrategyID: w.ID,
		Name:       w.Name,
		Ticker:     w.Ticker,
		Capital:    w.TotalCapital,
		CreatedAt:  createdAt,
	}, nil
}

// Insert creates the strategy server-side. The API assigns its own ID,
// so StrategyID is rewritten with the server's value on success.
func (s *StrategyStore) Insert(ctx context.Context, strat *domain.Strategy) error {
	if strat == nil || strat.Name == "" {
		return storage.ErrInvalidInput
	}

	req := struct {
		Name         string  `json:"name"`
		Ticker       string  `json:"ticker"`
		TotalCapital float64 `json:"totalCapital"`
	}{
		Name:         strat.Name,
		Ticker:       strat.Ticker,
		TotalCapital: strat.Capital,
	}

	var resp struct {
		Strategy wireStrategy `json:"strategy"`
	}
	if err := s.client.do(ctx, http.MethodPost, "/wheel/strategies", req, &resp); err != nil {
		return fmt.Errorf("create remote strategy: %w", err)
	}
	if resp.Strategy.ID != "" {
		strat.StrategyID = resp.Strategy.ID
	}
	return nil
}

// GetByID retrieves a strategy. The API has no single-strategy read, so
// this lists and filters.
func (s *StrategyStore) GetByID(ctx context.Context, strategyID string) (*domain.Strategy, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, strat := range list {
		if strat.StrategyID == strategyID {
			return strat, nil
		}
	}
	return nil, storage.ErrNotFound
}

// List retrieves all strategies of the authenticated user, oldest first.
func (s *StrategyStore) List(ctx context.Context) ([]*domain.Strategy, error) {
	var resp struct {
		Strategies []wireStrategy `json:"strategies"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/wheel/strategies", nil, &resp); err != nil {
		return nil, fmt.Errorf("list remote strategies: %w", err)
	}

	strategies := make([]*domain.Strategy, 0, len(resp.Strategies))
	for i := range resp.Strategies {
		strat, err := resp.Strategies[i].toDomain()
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, strat)
	}
	// The API returns newest first.
	sort.Slice(strategies, func(i, j int) bool {
		if !strategies[i].CreatedAt.Equal(strategies[j].CreatedAt) {
			return strategies[i].CreatedAt.Before(strategies[j].CreatedAt)
		}
		return strategies[i].StrategyID < strategies[j].StrategyID
	})
	return strategies, nil
}

// Update is not available: the API has no strategy update endpoint.
// Accumulation state lives client-side when running against the remote
// backend.
func (s *StrategyStore) Update(_ context.Context, _ *domain.Strategy) error {
	return ErrUnsupported
}

// Delete removes a strategy and its trades. The server mounts this
// route outside the /wheel prefix.
func (s *StrategyStore) Delete(ctx context.Context, strategyID string) error {
	err := s.client.do(ctx, http.MethodDelete, "/strategies/"+strategyID, nil, nil)
	if errors.Is(err, errNotFoundHTTP) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete remote strategy: %w", err)
	}
	return nil
}

// Stats fetches the server-computed statistics snapshot for a strategy.
func (s *StrategyStore) Stats(ctx context.Context, strategyID string) (*domain.Stats, error) {
	var resp struct {
		Stats struct {
			TotalPnL              float64 `json:"totalPnL"`
			ActiveTrades          int     `json:"activeTrades"`
			ClosedTrades          int     `json:"closedTrades"`
			TotalTrades           int     `json:"totalTrades"`
			WinRate               float64 `json:"winRate"`
			TotalPremiumCollected float64 `json:"totalPremiumCollected"`
			ReturnOnCapital       float64 `json:"returnOnCapital"`
			WinningTrades         int     `json:"winningTrades"`
			LosingTrades          int     `json:"losingTrades"`
			InitialCapital        float64 `json:"initialCapital"`
			CurrentCapital        float64 `json:"currentCapital"`
		} `json:"stats"`
	}

	err := s.client.do(ctx, http.MethodGet, "/wheel/strategies/"+strategyID+"/stats", nil, &resp)
	if errors.Is(err, errNotFoundHTTP) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get remote stats: %w", err)
	}

	return &domain.Stats{
		TotalPnL:              resp.Stats.TotalPnL,
		OpenCount:             resp.Stats.ActiveTrades,
		ClosedCount:           resp.Stats.ClosedTrades,
		TotalCount:            resp.Stats.TotalTrades,
		WinCount:              resp.Stats.WinningTrades,
		LossCount:             resp.Stats.LosingTrades,
		WinRatePct:            resp.Stats.WinRate,
		TotalPremiumCollected: resp.Stats.TotalPremiumCollected,
		ReturnOnCapitalPct:    resp.Stats.ReturnOnCapital,
		InitialCapital:        resp.Stats.InitialCapital,
		CurrentCapital:        resp.Stats.CurrentCapital,
	}, nil
}
