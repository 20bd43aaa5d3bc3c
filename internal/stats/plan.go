package stats

import (
	"math"

	"btcwheel/internal/domain"
)

// PlanComparison sets realized performance against the strategy's
// target plan.
type PlanComparison struct {
	PeriodDays   int
	PeriodMonths float64

	AvgPremiumPct    float64 // mean premium as % of committed capital, closed trades
	TradesPerMonth   float64
	MonthlyReturnPct float64 // return on capital spread over the period

	TargetPremiumPct     float64
	TargetTradesPerMonth float64
	TargetMonthlyReturn  float64

	PremiumDelta float64
	TradesDelta  float64
	ReturnDelta  float64
}

// ComparePlan measures realized trading against the plan targets. The
// observation window runs from the oldest to the newest position's open
// date, never shorter than one day.
func ComparePlan(plan domain.StrategyPlan, positions []*domain.Position, s domain.Stats) PlanComparison {
	c := PlanComparison{
		TargetPremiumPct:     plan.TargetPremiumPct,
		TargetTradesPerMonth: float64(plan.TargetTradesPerMonth),
		TargetMonthlyReturn:  plan.TargetMonthlyReturnPct,
	}
	if len(positions) == 0 {
		return c
	}

	first, last := positions[0].OpenDate, positions[0].OpenDate
	for _, p := range positions {
		if p.OpenDate.Before(first) {
			first = p.OpenDate
		}
		if p.OpenDate.After(last) {
			last = p.OpenDate
		}
	}
	days := int(math.Ceil(last.Sub(first).Hours() / 24))
	if days < 1 {
		days = 1
	}
	months := float64(days) / 30

	var premiumPctSum float64
	closed := 0
	for _, p := range positions {
		if p.Status != domain.StatusClosed || p.CapitalCommitted <= 0 {
			continue
		}
		premiumPctSum += p.Premium * p.Quantity / p.CapitalCommitted * 100
		closed++
	}

	c.PeriodDays = days
	c.PeriodMonths = months
	if closed > 0 {
		c.AvgPremiumPct = premiumPctSum / float64(closed)
	}
	c.TradesPerMonth = float64(len(positions)) / months
	c.MonthlyReturnPct = s.ReturnOnCapitalPct / months

	c.PremiumDelta = c.AvgPremiumPct - c.TargetPremiumPct
	c.TradesDelta = c.TradesPerMonth - c.TargetTradesPerMonth
	c.ReturnDelta = c.MonthlyReturnPct - c.TargetMonthlyReturn
	return c
}
