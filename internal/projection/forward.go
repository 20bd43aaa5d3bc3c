// Package projection simulates long-horizon compound growth under
// periodic contributions, forward for planning and backward against a
// realized price series. Both entry points are pure functions: safe to
// recompute on every parameter change and discard superseded runs.
package projection

import (
	"math"

	"btcwheel/internal/domain"
)

// samplingIntervalDays is how often Forward emits a data point; the
// final day is always emitted as well.
const samplingIntervalDays = 30

// Forward projects capital growth day by day over the horizon.
// Contributions land every 7th day (weekly) or every 30th day
// (monthly), calendar-naive on purpose, and daily compounding applies
// after the contribution. Deterministic: identical inputs give
// identical slices.
func Forward(initialCapital, contribution float64, freq domain.ContributionFrequency, dailyRatePct float64, years int) []domain.ProjectionPoint {
	totalDays := years * 365
	if totalDays < 0 {
		return nil
	}
	rate := dailyRatePct / 100

	capital := initialCapital
	invested := initialCapital

	points := make([]domain.ProjectionPoint, 0, totalDays/samplingIntervalDays+2)
	for day := 0; day <= totalDays; day++ {
		if day > 0 && contributionDue(freq, day) {
			capital += contribution
			invested += contribution
		}
		capital *= 1 + rate

		if day%samplingIntervalDays == 0 || day == totalDays {
			points = append(points, domain.ProjectionPoint{
				Day:             day,
				Month:           day / 30,
				Year:            day / 365,
				CapitalInvested: round2(invested),
				CapitalTotal:    round2(capital),
				Profit:          round2(capital - invested),
			})
		}
	}
	return points
}

func contributionDue(freq domain.ContributionFrequency, day int) bool {
	switch freq {
	case domain.FrequencyWeekly:
		return day%7 == 0
	case domain.FrequencyMonthly:
		return day%30 == 0
	default:
		return false
	}
}

// MonthlyEquivalentRate converts a daily compounding rate to the
// equivalent monthly return: ((1+d/100)^30 - 1) * 100.
func MonthlyEquivalentRate(dailyRatePct float64) float64 {
	return (math.Pow(1+dailyRatePct/100, 30) - 1) * 100
}

// Summary condenses a projection run into its headline numbers.
type Summary struct {
	FinalCapital  float64
	TotalInvested float64
	TotalProfit   float64
	ROIPct        float64
	MonthlyProfit float64
}

// Summarize reads the final point of a Forward run.
func Summarize(points []domain.ProjectionPoint, years int) Summary {
	if len(points) == 0 {
		return Summary{}
	}
	last := points[len(points)-1]
	s := Summary{
		FinalCapital:  last.CapitalTotal,
		TotalInvested: last.CapitalInvested,
		TotalProfit:   last.Profit,
	}
	if last.CapitalInvested > 0 {
		s.ROIPct = last.Profit / last.CapitalInvested * 100
	}
	if years > 0 {
		s.MonthlyProfit = last.Profit / float64(years*12)
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
