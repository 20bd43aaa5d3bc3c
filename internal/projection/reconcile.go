package projection

import (
	"time"

	"btcwheel/internal/domain"
	"btcwheel/internal/lookup"
)

// Plan is the contribution schedule being reconciled.
type Plan struct {
	InitialCapital float64
	Contribution   float64
	Frequency      domain.ContributionFrequency
	DailyRatePct   float64
	Years          int
	StartDate      time.Time
}

// ActualPoint is one sampled step of the realized series: what the
// schedule actually bought at real prices.
type ActualPoint struct {
	Day   int
	Units float64 // cumulative BTC bought
	Value float64 // units × price on that day
}

// Reconciliation compares the deterministic plan against reality.
type Reconciliation struct {
	Expected []domain.ProjectionPoint
	Actual   []ActualPoint

	Units           float64
	ExpectedCapital float64
	ActualValue     float64
	Variance        float64 // ActualValue - ExpectedCapital
	AheadOfPlan     bool
	Simulated       bool // the price series was synthesized, not fetched
}

// Reconcile replays the plan's contribution schedule buying units of
// the underlying at the real price of each contribution day. A series
// shorter than the horizon holds its last known price; an empty series
// yields a neutral zero-valued result, never an error.
func Reconcile(plan Plan, series domain.PriceSeries) Reconciliation {
	expected := Forward(plan.InitialCapital, plan.Contribution, plan.Frequency, plan.DailyRatePct, plan.Years)

	rec := Reconciliation{
		Expected:  expected,
		Simulated: series.Simulated,
	}
	if len(expected) > 0 {
		rec.ExpectedCapital = expected[len(expected)-1].CapitalTotal
	}
	if len(series.Points) == 0 {
		return rec
	}

	totalDays := plan.Years * 365
	var units float64
	var price float64

	for day := 0; day <= totalDays; day++ {
		price, _ = lookup.PriceAt(plan.StartDate.AddDate(0, 0, day), series.Points)

		deposit := 0.0
		if day == 0 {
			deposit = plan.InitialCapital
		} else if contributionDue(plan.Frequency, day) {
			deposit = plan.Contribution
		}
		if deposit > 0 && price > 0 {
			units += deposit / price
		}

		if day%samplingIntervalDays == 0 || day == totalDays {
			rec.Actual = append(rec.Actual, ActualPoint{
				Day:   day,
				Units: units,
				Value: round2(units * price),
			})
		}
	}

	rec.Units = units
	rec.ActualValue = round2(units * price)
	rec.Variance = round2(rec.ActualValue - rec.ExpectedCapital)
	rec.AheadOfPlan = rec.Variance > 0
	return rec
}
