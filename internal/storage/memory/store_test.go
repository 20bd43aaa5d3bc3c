package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

func testStrategy(id string, createdAt time.Time) *domain.Strategy {
	return &domain.Strategy{
		StrategyID: id,
		Name:       "wheel " + id,
		Ticker:     "BTC",
		Capital:    50000,
		CreatedAt:  createdAt,
	}
}

func TestStrategyStore_InsertGet(t *testing.T) {
	ctx := context.Background()
	store := NewStrategyStore()

	strat := testStrategy("s1", time.Now())
	require.NoError(t, store.Insert(ctx, strat))

	got, err := store.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, strat.Name, got.Name)
	require.Equal(t, strat.Capital, got.Capital)
}

func TestStrategyStore_DuplicateInsert(t *testing.T) {
	ctx := context.Background()
	store := NewStrategyStore()

	strat := testStrategy("s1", time.Now())
	require.NoError(t, store.Insert(ctx, strat))
	require.ErrorIs(t, store.Insert(ctx, strat), storage.ErrDuplicateKey)
}

func TestStrategyStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	store := NewStrategyStore()

	_, err := store.GetByID(ctx, "nope")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStrategyStore_ListOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewStrategyStore()

	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, testStrategy("newer", base.Add(48*time.Hour))))
	require.NoError(t, store.Insert(ctx, testStrategy("older", base)))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "older", list[0].StrategyID)
	require.Equal(t, "newer", list[1].StrategyID)
}

func TestStrategyStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewStrategyStore()

	strat := testStrategy("s1", time.Now())
	require.NoError(t, store.Insert(ctx, strat))

	strat.Accumulation.BTCAccumulated = 0.5
	strat.Accumulation.BTCCostBasis = 24000
	strat.Accumulation.Recompute()
	require.NoError(t, store.Update(ctx, strat))

	got, err := store.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 0.5, got.Accumulation.BTCAccumulated)
	require.Equal(t, 48000.0, got.Accumulation.AveragePrice)

	require.ErrorIs(t, store.Update(ctx, testStrategy("missing", time.Now())), storage.ErrNotFound)
}

func TestStrategyStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewStrategyStore()

	require.NoError(t, store.Insert(ctx, testStrategy("s1", time.Now())))
	require.NoError(t, store.Delete(ctx, "s1"))
	require.ErrorIs(t, store.Delete(ctx, "s1"), storage.ErrNotFound)
}

func TestStrategyStore_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	store := NewStrategyStore()

	require.NoError(t, store.Insert(ctx, testStrategy("s1", time.Now())))

	got, err := store.GetByID(ctx, "s1")
	require.NoError(t, err)
	got.Capital = -1

	again, err := store.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 50000.0, again.Capital)
}

func testPosition(id, strategyID string, openDate time.Time) *domain.Position {
	return &domain.Position{
		PositionID:       id,
		StrategyID:       strategyID,
		Type:             domain.OptionPut,
		Action:           domain.ActionSell,
		Strike:           48000,
		Premium:          300,
		Quantity:         1,
		Ticker:           "BTC",
		OpenDate:         openDate,
		CapitalCommitted: 48000,
		Status:           domain.StatusOpen,
		PnL:              300,
	}
}

func TestPositionStore_InsertGetByStrategy(t *testing.T) {
	ctx := context.Background()
	store := NewPositionStore()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, testPosition("p2", "s1", base.Add(24*time.Hour))))
	require.NoError(t, store.Insert(ctx, testPosition("p1", "s1", base)))
	require.NoError(t, store.Insert(ctx, testPosition("p3", "other", base)))

	got, err := store.GetByStrategyID(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "p1", got[0].PositionID)
	require.Equal(t, "p2", got[1].PositionID)
}

func TestPositionStore_DuplicateInsert(t *testing.T) {
	ctx := context.Background()
	store := NewPositionStore()

	p := testPosition("p1", "s1", time.Now())
	require.NoError(t, store.Insert(ctx, p))
	require.ErrorIs(t, store.Insert(ctx, p), storage.ErrDuplicateKey)
}

func TestPositionStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	store := NewPositionStore()

	require.NoError(t, store.Insert(ctx, testPosition("p1", "s1", time.Now())))
	require.NoError(t, store.UpdateStatus(ctx, "p1", domain.StatusClosed, 47500))

	got, err := store.GetByStrategyID(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, domain.StatusClosed, got[0].Status)
	require.Equal(t, 47500.0, got[0].AssignmentPrice)

	require.ErrorIs(t, store.UpdateStatus(ctx, "missing", domain.StatusClosed, 0), storage.ErrNotFound)
}

func TestPositionStore_DeleteByStrategyID(t *testing.T) {
	ctx := context.Background()
	store := NewPositionStore()

	require.NoError(t, store.Insert(ctx, testPosition("p1", "s1", time.Now())))
	require.NoError(t, store.Insert(ctx, testPosition("p2", "s1", time.Now())))
	require.NoError(t, store.Insert(ctx, testPosition("p3", "other", time.Now())))

	require.NoError(t, store.DeleteByStrategyID(ctx, "s1"))

	gone, err := store.GetByStrategyID(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, gone)

	kept, err := store.GetByStrategyID(ctx, "other")
	require.NoError(t, err)
	require.Len(t, kept, 1)
}

func TestPlanStore_InsertListDelete(t *testing.T) {
	ctx := context.Background()
	store := NewPlanStore()

	require.NoError(t, store.Insert(ctx, &domain.SavedProjectionPlan{
		PlanID:         "pl2",
		Name:           "conservative",
		InitialCapital: 10000,
		DailyRatePct:   0.1,
		Years:          2,
	}))
	require.NoError(t, store.Insert(ctx, &domain.SavedProjectionPlan{
		PlanID:         "pl1",
		Name:           "aggressive",
		InitialCapital: 10000,
		DailyRatePct:   0.3,
		Years:          2,
	}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "aggressive", list[0].Name)
	require.Equal(t, "conservative", list[1].Name)

	require.NoError(t, store.Delete(ctx, "pl1"))
	require.ErrorIs(t, store.Delete(ctx, "pl1"), storage.ErrNotFound)
}

func TestStores_InvalidInput(t *testing.T) {
	ctx := context.Background()

	require.ErrorIs(t, NewStrategyStore().Insert(ctx, nil), storage.ErrInvalidInput)
	require.ErrorIs(t, NewPositionStore().Insert(ctx, &domain.Position{PositionID: "p"}), storage.ErrInvalidInput)
	require.ErrorIs(t, NewPlanStore().Insert(ctx, &domain.SavedProjectionPlan{}), storage.ErrInvalidInput)
}
