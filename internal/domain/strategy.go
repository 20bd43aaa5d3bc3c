package domain

import "time"

// Strategy is one user-owned wheel strategy: a pot of cash dedicated to
// selling options on a single ticker, plus the BTC accumulated through
// put assignments.
type Strategy struct {
	StrategyID string
	Name       string
	Ticker     string
	Capital    float64 // initial cash committed to the strategy
	CreatedAt  time.Time

	Plan         *StrategyPlan // optional monthly-return target
	Accumulation Accumulation
}

// StrategyPlan holds the user's target plan for a strategy.
type StrategyPlan struct {
	DurationMonths         int
	TargetMonthlyReturnPct float64
	TargetPremiumPct       float64
	TargetTradesPerMonth   int
}

// Accumulation tracks BTC acquired through assigned puts.
// CostBasis only ever grows; AveragePrice is CostBasis/BTCAccumulated.
type Accumulation struct {
	BTCAccumulated float64
	BTCCostBasis   float64
	AveragePrice   float64
}

// Recompute refreshes AveragePrice from the running totals.
// AveragePrice is 0 while nothing has been accumulated.
func (a *Accumulation) Recompute() {
	if a.BTCAccumulated <= 0 {
		a.AveragePrice = 0
		return
	}
	a.AveragePrice = a.BTCCostBasis / a.BTCAccumulated
}
