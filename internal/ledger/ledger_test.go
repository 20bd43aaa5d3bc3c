package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"btcwheel/internal/domain"
)

func prob(p float64) *float64 { return &p }

func testStrategy(capital float64) *domain.Strategy {
	return &domain.Strategy{
		StrategyID: "strat-1",
		Name:       "Test Wheel",
		Ticker:     "BTC",
		Capital:    capital,
		CreatedAt:  time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC),
	}
}

func newTestLedger(capital, assignProb float64) *Ledger {
	return New(testStrategy(capital), Options{
		AssignmentProbability: prob(assignProb),
		Rand:                  rand.New(rand.NewSource(1)),
	})
}

func sellPut(strike, premium, qty float64) OpenRequest {
	return OpenRequest{
		Type:     domain.OptionPut,
		Action:   domain.ActionSell,
		Strike:   strike,
		Premium:  premium,
		Quantity: qty,
		Expiry:   time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC),
	}
}

func sellCall(strike, premium, qty float64) OpenRequest {
	req := sellPut(strike, premium, qty)
	req.Type = domain.OptionCall
	return req
}

func TestOpen_Validation(t *testing.T) {
	l := newTestLedger(100000, 0)

	_, err := l.Open(sellPut(-1, 300, 1))
	require.ErrorIs(t, err, ErrInvalidStrike)

	_, err = l.Open(sellPut(42000, -5, 1))
	require.ErrorIs(t, err, ErrInvalidPremium)

	_, err = l.Open(sellPut(42000, 300, 0))
	require.ErrorIs(t, err, ErrInvalidQuantity)

	req := sellPut(42000, 300, 1)
	req.Type = "swaption"
	_, err = l.Open(req)
	require.ErrorIs(t, err, ErrInvalidType)

	// No partial state after rejections.
	require.Empty(t, l.Positions())
	require.Equal(t, 100000.0, l.Cash())
}

func TestOpen_CollateralGuard(t *testing.T) {
	// A cash-secured put needs strike*quantity free cash.
	l := newTestLedger(10000, 0)

	_, err := l.Open(sellPut(42000, 300, 1))
	require.ErrorIs(t, err, ErrInsufficientCollateral)
	require.Empty(t, l.Positions())
	require.Equal(t, 10000.0, l.Cash())
}

func TestOpen_CollateralCountsOpenPuts(t *testing.T) {
	l := newTestLedger(90000, 0)

	_, err := l.Open(sellPut(42000, 300, 1))
	require.NoError(t, err)

	// 90_000 + 300 cash, but 42_000 is reserved: a second 42k put fits...
	_, err = l.Open(sellPut(42000, 300, 1))
	require.NoError(t, err)

	// ...a third does not.
	_, err = l.Open(sellPut(42000, 300, 1))
	require.ErrorIs(t, err, ErrInsufficientCollateral)
}

func TestOpen_PremiumRealizedAtSale(t *testing.T) {
	l := newTestLedger(50000, 0)

	pos, err := l.Open(sellPut(42000, 300, 1))
	require.NoError(t, err)

	require.Equal(t, domain.StatusOpen, pos.Status)
	require.Equal(t, 300.0, pos.PnL)
	require.Equal(t, 42000.0, pos.CapitalCommitted)
	require.Equal(t, 50300.0, l.Cash())
}

func TestOpen_BuyDebitsPremium(t *testing.T) {
	l := newTestLedger(50000, 0)

	pos, err := l.Open(OpenRequest{
		Type:     domain.OptionPut,
		Action:   domain.ActionBuy,
		Strike:   42000,
		Premium:  250,
		Quantity: 1,
	})
	require.NoError(t, err)
	require.Equal(t, -250.0, pos.PnL)
	require.Equal(t, 49750.0, l.Cash())
}

func TestOpen_CoveredCallRequiresUnderlying(t *testing.T) {
	l := newTestLedger(50000, 0)

	_, err := l.Open(sellCall(48000, 200, 1))
	require.ErrorIs(t, err, ErrInsufficientUnderlying)
}

func TestEvaluateTick_ForcedPutAssignment(t *testing.T) {
	l := newTestLedger(50000, 1) // p=1: ITM assigns within one tick

	pos, err := l.Open(sellPut(48000, 300, 1))
	require.NoError(t, err)

	events := l.EvaluateTick(47000)
	require.Len(t, events, 1)
	require.Equal(t, EventAssignedPut, events[0].Type)
	require.Equal(t, pos.PositionID, events[0].Position.PositionID)
	require.Equal(t, 47000.0, events[0].Position.AssignmentPrice)

	// Cash: 50_000 + 300 premium - 48_000 settlement.
	require.Equal(t, 2300.0, l.Cash())

	strat := l.Strategy()
	require.Equal(t, 1.0, strat.Accumulation.BTCAccumulated)
	require.Equal(t, 48000.0, strat.Accumulation.BTCCostBasis)
	require.Equal(t, 48000.0, strat.Accumulation.AveragePrice)

	positions := l.Positions()
	require.Equal(t, domain.StatusClosed, positions[0].Status)
}

func TestEvaluateTick_OTMPutNeverAssigned(t *testing.T) {
	l := newTestLedger(50000, 1)

	_, err := l.Open(sellPut(48000, 300, 1))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		require.Empty(t, l.EvaluateTick(49000))
	}
	require.Equal(t, domain.StatusOpen, l.Positions()[0].Status)
}

func TestEvaluateTick_ZeroProbabilityNeverAssigns(t *testing.T) {
	l := newTestLedger(50000, 0)

	_, err := l.Open(sellPut(48000, 300, 1))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		require.Empty(t, l.EvaluateTick(40000))
	}
	require.Equal(t, domain.StatusOpen, l.Positions()[0].Status)
}

func TestEvaluateTick_CallAssignment(t *testing.T) {
	l := newTestLedger(100000, 1)

	// Accumulate 1 BTC through an assigned put first.
	_, err := l.Open(sellPut(48000, 300, 1))
	require.NoError(t, err)
	require.Len(t, l.EvaluateTick(47000), 1)

	_, err = l.Open(sellCall(52000, 200, 1))
	require.NoError(t, err)

	events := l.EvaluateTick(53000)
	require.Len(t, events, 1)
	require.Equal(t, EventAssignedCall, events[0].Type)

	strat := l.Strategy()
	require.Equal(t, 0.0, strat.Accumulation.BTCAccumulated)
	// Cost basis from the put is untouched: disposal gain/loss is not tracked.
	require.Equal(t, 48000.0, strat.Accumulation.BTCCostBasis)

	// 100_000 +300 -48_000 +200 +52_000.
	require.Equal(t, 104500.0, l.Cash())
}

func TestCostBasisMonotonic(t *testing.T) {
	l := newTestLedger(200000, 1)

	strikes := []float64{48000, 45000, 47000}
	var lastBasis, lastBTC float64
	for _, strike := range strikes {
		_, err := l.Open(sellPut(strike, 300, 1))
		require.NoError(t, err)
		require.Len(t, l.EvaluateTick(strike-1000), 1)

		strat := l.Strategy()
		require.GreaterOrEqual(t, strat.Accumulation.BTCCostBasis, lastBasis)
		require.GreaterOrEqual(t, strat.Accumulation.BTCAccumulated, lastBTC)
		lastBasis = strat.Accumulation.BTCCostBasis
		lastBTC = strat.Accumulation.BTCAccumulated
	}

	avg := l.Strategy().Accumulation.AveragePrice
	require.GreaterOrEqual(t, avg, 45000.0)
	require.LessOrEqual(t, avg, 48000.0)
}

func TestClose_Manual(t *testing.T) {
	l := newTestLedger(50000, 0)

	pos, err := l.Open(sellPut(42000, 300, 1))
	require.NoError(t, err)

	require.NoError(t, l.Close(pos.PositionID))
	closed := l.Positions()[0]
	require.Equal(t, domain.StatusClosed, closed.Status)
	require.Equal(t, 300.0, closed.PnL) // premium stays realized
	require.Equal(t, 0.0, closed.AssignmentPrice)

	require.ErrorIs(t, l.Close(pos.PositionID), ErrPositionClosed)
	require.ErrorIs(t, l.Close("nope"), ErrPositionNotFound)
}

func TestClose_ReleasesCollateral(t *testing.T) {
	l := newTestLedger(50000, 0)

	pos, err := l.Open(sellPut(42000, 300, 1))
	require.NoError(t, err)
	require.NoError(t, l.Close(pos.PositionID))

	// Collateral freed: another put fits again.
	_, err = l.Open(sellPut(42000, 300, 1))
	require.NoError(t, err)
}

type recordingHooks struct {
	opened   []string
	closed   map[string]domain.CloseReason
	premiums []float64
}

func (h *recordingHooks) OnPositionOpened(p domain.Position) {
	h.opened = append(h.opened, p.PositionID)
}

func (h *recordingHooks) OnPositionClosed(p domain.Position, reason domain.CloseReason) {
	if h.closed == nil {
		h.closed = make(map[string]domain.CloseReason)
	}
	h.closed[p.PositionID] = reason
}

func (h *recordingHooks) OnPremiumCollected(amount float64) {
	h.premiums = append(h.premiums, amount)
}

func TestHooks_Fired(t *testing.T) {
	hooks := &recordingHooks{}
	l := New(testStrategy(100000), Options{
		AssignmentProbability: prob(1),
		Rand:                  rand.New(rand.NewSource(1)),
		Hooks:                 hooks,
	})

	assigned, err := l.Open(sellPut(48000, 300, 1))
	require.NoError(t, err)
	manual, err := l.Open(sellPut(42000, 150, 1))
	require.NoError(t, err)

	l.EvaluateTick(47000) // assigns the 48k put; the 42k put is OTM at 47k
	require.NoError(t, l.Close(manual.PositionID))

	require.Equal(t, []string{assigned.PositionID, manual.PositionID}, hooks.opened)
	require.Equal(t, []float64{300, 150}, hooks.premiums)
	require.Equal(t, domain.CloseAssigned, hooks.closed[assigned.PositionID])
	require.Equal(t, domain.CloseManual, hooks.closed[manual.PositionID])
}

type panickingCloseHooks struct {
	NopHooks
	panicOn string
}

func (h *panickingCloseHooks) OnPositionClosed(p domain.Position, reason domain.CloseReason) {
	if p.PositionID == h.panicOn {
		panic("close hook failed")
	}
}

func TestEvaluateTick_HookPanicSkipsOnlyThatPosition(t *testing.T) {
	hooks := &panickingCloseHooks{}
	l := New(testStrategy(100000), Options{
		AssignmentProbability: prob(1),
		Rand:                  rand.New(rand.NewSource(1)),
		Hooks:                 hooks,
	})

	bad, err := l.Open(sellPut(48000, 300, 1))
	require.NoError(t, err)
	good, err := l.Open(sellPut(47000, 150, 1))
	require.NoError(t, err)
	hooks.panicOn = bad.PositionID

	// Both puts are ITM at 46k. The first one's close hook panics;
	// that must not escape EvaluateTick or stop the second from
	// being assigned.
	var events []Event
	require.NotPanics(t, func() { events = l.EvaluateTick(46000) })

	require.Len(t, events, 1)
	require.Equal(t, good.PositionID, events[0].Position.PositionID)

	// The failed position had already settled when its hook fired.
	for _, pos := range l.Positions() {
		require.Equal(t, domain.StatusClosed, pos.Status)
	}
}

func TestRestore_RebuildsCash(t *testing.T) {
	l := newTestLedger(50000, 1)
	_, err := l.Open(sellPut(48000, 300, 1))
	require.NoError(t, err)
	l.EvaluateTick(47000)
	_, err = l.Open(sellPut(1000, 50, 1))
	require.NoError(t, err)

	fresh := New(testStrategy(50000), Options{AssignmentProbability: prob(0)})
	fresh.Restore(l.Positions())

	require.Equal(t, l.Cash(), fresh.Cash())
	require.Len(t, fresh.Positions(), 2)
}

func TestPositionsReturnsSnapshots(t *testing.T) {
	l := newTestLedger(50000, 0)
	_, err := l.Open(sellPut(42000, 300, 1))
	require.NoError(t, err)

	snap := l.Positions()
	snap[0].Status = domain.StatusClosed
	require.Equal(t, domain.StatusOpen, l.Positions()[0].Status)
}
