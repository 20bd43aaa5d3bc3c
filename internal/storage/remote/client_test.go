package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

// fakeAPI is a minimal wheel API for tests.
type fakeAPI struct {
	t     *testing.T
	token string

	strategies []map[string]any
	trades     map[string][]map[string]any // by strategy id
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{
		t:      t,
		token:  "secret-token",
		trades: make(map[string][]map[string]any),
	}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+f.token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /wheel/strategies", auth(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))

		row := map[string]any{
			"id":            "srv-1",
			"name":          req["name"],
			"ticker":        req["ticker"],
			"total_capital": req["totalCapital"],
			"created_at":    "2026-01-10T12:00:00Z",
		}
		f.strategies = append(f.strategies, row)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"strategy": row})
	}))

	mux.HandleFunc("GET /wheel/strategies", auth(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"strategies": f.strategies})
	}))

	mux.HandleFunc("POST /wheel/trades", auth(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))

		strategyID := req["strategyId"].(string)
		premium := req["premium"].(float64)
		quantity := req["quantity"].(float64)
		pnl := premium * quantity
		if req["action"] == "buy" {
			pnl = -pnl
		}

		row := map[string]any{
			"id":          "trade-1",
			"strategy_id": strategyID,
			"type":        req["type"],
			"action":      req["action"],
			"strike":      req["strike"],
			"premium":     premium,
			"capital":     req["capital"],
			"quantity":    quantity,
			"ticker":      req["ticker"],
			"expiry":      req["expiry"],
			"pnl":         pnl,
			"status":      req["status"],
			"created_at":  "2026-02-01T09:00:00Z",
		}
		f.trades[strategyID] = append(f.trades[strategyID], row)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"trade": row})
	}))

	mux.HandleFunc("GET /wheel/trades/{strategyId}", auth(func(w http.ResponseWriter, r *http.Request) {
		rows, ok := f.trades[r.PathValue("strategyId")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"trades": rows})
	}))

	mux.HandleFunc("PATCH /wheel/trades/{tradeId}", auth(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))

		for _, rows := range f.trades {
			for _, row := range rows {
				if row["id"] == r.PathValue("tradeId") {
					row["status"] = req["status"]
					json.NewEncoder(w).Encode(map[string]any{"trade": row})
					return
				}
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	mux.HandleFunc("GET /wheel/strategies/{strategyId}/stats", auth(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"stats": map[string]any{
			"totalPnL":              550.0,
			"activeTrades":          1,
			"closedTrades":          2,
			"totalTrades":           3,
			"winRate":               50.0,
			"totalPremiumCollected": 850.0,
			"returnOnCapital":       1.1,
			"winningTrades":         1,
			"losingTrades":          1,
			"initialCapital":        50000.0,
			"currentCapital":        50550.0,
		}})
	}))

	return mux
}

func TestStrategyStore_InsertAdoptsServerID(t *testing.T) {
	api := newFakeAPI(t)
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	store := NewStrategyStore(NewClient(srv.URL, api.token))

	strat := &domain.Strategy{StrategyID: "local-id", Name: "btc wheel", Ticker: "BTC", Capital: 50000}
	require.NoError(t, store.Insert(context.Background(), strat))
	require.Equal(t, "srv-1", strat.StrategyID)
}

func TestStrategyStore_ListAndGetByID(t *testing.T) {
	api := newFakeAPI(t)
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	ctx := context.Background()
	store := NewStrategyStore(NewClient(srv.URL, api.token))

	require.NoError(t, store.Insert(ctx, &domain.Strategy{Name: "btc wheel", Ticker: "BTC", Capital: 50000}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 50000.0, list[0].Capital)
	require.False(t, list[0].CreatedAt.IsZero())

	got, err := store.GetByID(ctx, "srv-1")
	require.NoError(t, err)
	require.Equal(t, "btc wheel", got.Name)

	_, err = store.GetByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStrategyStore_UpdateUnsupported(t *testing.T) {
	store := NewStrategyStore(NewClient("http://unused", "t"))
	require.ErrorIs(t, store.Update(context.Background(), &domain.Strategy{StrategyID: "x"}), ErrUnsupported)
}

func TestStrategyStore_Stats(t *testing.T) {
	api := newFakeAPI(t)
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	store := NewStrategyStore(NewClient(srv.URL, api.token))

	stats, err := store.Stats(context.Background(), "srv-1")
	require.NoError(t, err)
	require.Equal(t, 550.0, stats.TotalPnL)
	require.Equal(t, 1, stats.OpenCount)
	require.Equal(t, 2, stats.ClosedCount)
	require.Equal(t, 50.0, stats.WinRatePct)
	require.Equal(t, 50550.0, stats.CurrentCapital)
}

func TestPositionStore_RoundTrip(t *testing.T) {
	api := newFakeAPI(t)
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	ctx := context.Background()
	store := NewPositionStore(NewClient(srv.URL, api.token))

	p := &domain.Position{
		PositionID:       "local-id",
		StrategyID:       "srv-1",
		Type:             domain.OptionPut,
		Action:           domain.ActionSell,
		Strike:           48000,
		Premium:          300,
		Quantity:         1,
		Ticker:           "BTC",
		Expiry:           time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC),
		CapitalCommitted: 48000,
		Status:           domain.StatusOpen,
		PnL:              300,
	}
	require.NoError(t, store.Insert(ctx, p))
	require.Equal(t, "trade-1", p.PositionID)

	got, err := store.GetByStrategyID(ctx, "srv-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, domain.OptionPut, got[0].Type)
	require.Equal(t, 300.0, got[0].PnL)
	require.Equal(t, 48000.0, got[0].CapitalCommitted)

	require.NoError(t, store.UpdateStatus(ctx, "trade-1", domain.StatusClosed, 47500))

	got, err = store.GetByStrategyID(ctx, "srv-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusClosed, got[0].Status)

	require.ErrorIs(t, store.UpdateStatus(ctx, "missing", domain.StatusClosed, 0), storage.ErrNotFound)
	require.ErrorIs(t, store.DeleteByStrategyID(ctx, "srv-1"), ErrUnsupported)
}

func TestClient_Unauthorized(t *testing.T) {
	api := newFakeAPI(t)
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	store := NewStrategyStore(NewClient(srv.URL, "wrong-token"))

	_, err := store.List(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"strategies": []any{}})
	}))
	defer srv.Close()

	store := NewStrategyStore(NewClient(srv.URL, "t"))

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
	require.Equal(t, 3, calls)
}
