package stats

import (
	"testing"
	"time"

	"btcwheel/internal/domain"
)

func strat(capital float64) *domain.Strategy {
	return &domain.Strategy{
		StrategyID: "s1",
		Ticker:     "BTC",
		Capital:    capital,
	}
}

func closedPut(pnl, premium, qty float64) *domain.Position {
	return &domain.Position{
		Type:     domain.OptionPut,
		Action:   domain.ActionSell,
		Premium:  premium,
		Quantity: qty,
		Status:   domain.StatusClosed,
		PnL:      pnl,
	}
}

func openPut(pnl float64) *domain.Position {
	return &domain.Position{
		Type:     domain.OptionPut,
		Action:   domain.ActionSell,
		Premium:  pnl,
		Quantity: 1,
		Status:   domain.StatusOpen,
		PnL:      pnl,
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(strat(10000), nil)

	if s.TotalPnL != 0 || s.OpenCount != 0 || s.ClosedCount != 0 {
		t.Errorf("empty ledger should produce zero counts, got %+v", s)
	}
	if s.WinRatePct != 0 {
		t.Errorf("win rate with no closed trades must be 0, got %f", s.WinRatePct)
	}
	if s.CurrentCapital != 10000 {
		t.Errorf("current capital should equal initial, got %f", s.CurrentCapital)
	}
}

func TestCompute_OpenPremiumCountsTowardPnL(t *testing.T) {
	// Premium locks in at sale: an open position already contributes it.
	s := Compute(strat(10000), []*domain.Position{openPut(300)})

	if s.TotalPnL != 300 {
		t.Errorf("expected totalPnL 300, got %f", s.TotalPnL)
	}
	if s.OpenCount != 1 {
		t.Errorf("expected openCount 1, got %d", s.OpenCount)
	}
	if s.CurrentCapital != 10300 {
		t.Errorf("expected currentCapital 10300, got %f", s.CurrentCapital)
	}
	// Premium collected is a closed-trade figure.
	if s.TotalPremiumCollected != 0 {
		t.Errorf("open premium must not count as collected, got %f", s.TotalPremiumCollected)
	}
}

func TestCompute_WinRateOverClosedOnly(t *testing.T) {
	positions := []*domain.Position{
		closedPut(200, 200, 1),
		closedPut(-50, 50, 1),
		openPut(300),
	}
	s := Compute(strat(10000), positions)

	if s.WinCount != 1 || s.LossCount != 1 {
		t.Errorf("expected 1 win / 1 loss, got %d / %d", s.WinCount, s.LossCount)
	}
	if s.WinRatePct != 50 {
		t.Errorf("expected winRate 50, got %f", s.WinRatePct)
	}
	if s.TotalPnL != 450 {
		t.Errorf("expected totalPnL 450, got %f", s.TotalPnL)
	}
	if s.TotalPremiumCollected != 250 {
		t.Errorf("expected premium collected over closed only (250), got %f", s.TotalPremiumCollected)
	}
}

func TestCompute_ZeroPnLCountsAsNeither(t *testing.T) {
	s := Compute(strat(10000), []*domain.Position{closedPut(0, 0, 1)})

	if s.WinCount != 0 || s.LossCount != 0 {
		t.Errorf("zero pnl must be neither win nor loss, got %d / %d", s.WinCount, s.LossCount)
	}
	if s.ClosedCount != 1 {
		t.Errorf("expected closedCount 1, got %d", s.ClosedCount)
	}
}

func TestCompute_ReturnOnCapitalGuard(t *testing.T) {
	for _, capital := range []float64{0, -100} {
		s := Compute(strat(capital), []*domain.Position{closedPut(200, 200, 1)})
		if s.ReturnOnCapitalPct != 0 {
			t.Errorf("capital %f: returnOnCapital must fail safe to 0, got %f",
				capital, s.ReturnOnCapitalPct)
		}
	}
}

func TestCompute_Idempotent(t *testing.T) {
	positions := []*domain.Position{
		closedPut(200, 200, 1),
		closedPut(-50, 50, 2),
		openPut(300),
	}
	st := strat(10000)

	first := Compute(st, positions)
	for i := 0; i < 10; i++ {
		if got := Compute(st, positions); got != first {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
	}
}

func TestCompute_Conservation(t *testing.T) {
	// currentCapital == capital + sum of realized pnl, at every step.
	st := strat(10000)
	var positions []*domain.Position
	var pnlSum float64

	steps := []*domain.Position{
		openPut(300),
		closedPut(-120, 120, 1),
		closedPut(450, 450, 1),
		openPut(75),
	}
	for _, p := range steps {
		positions = append(positions, p)
		pnlSum += p.PnL

		s := Compute(st, positions)
		if s.CurrentCapital != st.Capital+pnlSum {
			t.Fatalf("conservation broken: %f != %f+%f", s.CurrentCapital, st.Capital, pnlSum)
		}
	}
}

func TestComparePlan_Empty(t *testing.T) {
	plan := domain.StrategyPlan{TargetMonthlyReturnPct: 5, TargetPremiumPct: 2, TargetTradesPerMonth: 8}
	c := ComparePlan(plan, nil, domain.Stats{})

	if c.TradesPerMonth != 0 || c.AvgPremiumPct != 0 {
		t.Errorf("empty ledger should compare as zero, got %+v", c)
	}
	if c.TargetMonthlyReturn != 5 {
		t.Errorf("targets must pass through, got %f", c.TargetMonthlyReturn)
	}
}

func TestComparePlan_Window(t *testing.T) {
	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	p1 := closedPut(300, 300, 1)
	p1.OpenDate = base
	p1.CapitalCommitted = 30000
	p2 := closedPut(150, 150, 1)
	p2.OpenDate = base.AddDate(0, 0, 30)
	p2.CapitalCommitted = 30000

	st := strat(60000)
	positions := []*domain.Position{p1, p2}
	s := Compute(st, positions)
	c := ComparePlan(domain.StrategyPlan{TargetMonthlyReturnPct: 1}, positions, s)

	if c.PeriodDays != 30 {
		t.Errorf("expected 30-day window, got %d", c.PeriodDays)
	}
	if c.TradesPerMonth != 2 {
		t.Errorf("expected 2 trades/month, got %f", c.TradesPerMonth)
	}
	// Premium %: (300/30000 + 150/30000)/2 * 100 = 0.75.
	if c.AvgPremiumPct != 0.75 {
		t.Errorf("expected avg premium 0.75%%, got %f", c.AvgPremiumPct)
	}
}
