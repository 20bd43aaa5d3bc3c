package projection

import (
	"math"
	"reflect"
	"testing"

	"btcwheel/internal/domain"
)

func TestForward_Deterministic(t *testing.T) {
	a := Forward(1000, 100, domain.FrequencyMonthly, 0.5, 5)
	b := Forward(1000, 100, domain.FrequencyMonthly, 0.5, 5)

	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs must produce identical projections")
	}
}

func TestForward_PointSpacing(t *testing.T) {
	points := Forward(1000, 100, domain.FrequencyMonthly, 0.1, 2)

	if points[0].Day != 0 {
		t.Errorf("first point must be day 0, got %d", points[0].Day)
	}
	last := points[len(points)-1]
	if last.Day != 730 {
		t.Errorf("final point must land on the horizon (730), got %d", last.Day)
	}
	for i := 1; i < len(points)-1; i++ {
		if points[i].Day-points[i-1].Day != 30 {
			t.Errorf("interior points must be 30 days apart, got %d → %d",
				points[i-1].Day, points[i].Day)
		}
	}
}

func TestForward_ZeroRateAccumulatesContributionsOnly(t *testing.T) {
	points := Forward(1000, 100, domain.FrequencyMonthly, 0, 1)
	last := points[len(points)-1]

	// 12 monthly contributions land on days 30..360.
	wantInvested := 1000.0 + 12*100
	if last.CapitalInvested != wantInvested {
		t.Errorf("expected invested %f, got %f", wantInvested, last.CapitalInvested)
	}
	if last.CapitalTotal != wantInvested {
		t.Errorf("zero rate: total must equal invested, got %f", last.CapitalTotal)
	}
	if last.Profit != 0 {
		t.Errorf("zero rate: profit must be 0, got %f", last.Profit)
	}
}

func TestForward_WeeklyContributions(t *testing.T) {
	points := Forward(0, 70, domain.FrequencyWeekly, 0, 1)
	last := points[len(points)-1]

	// Days 7, 14, ..., 364: 52 contributions.
	if last.CapitalInvested != 52*70 {
		t.Errorf("expected 52 weekly contributions (%f), got %f", 52*70.0, last.CapitalInvested)
	}
}

func TestForward_ProfitIsTotalMinusInvested(t *testing.T) {
	for _, pt := range Forward(1000, 100, domain.FrequencyMonthly, 0.5, 3) {
		if math.Abs(pt.Profit-(pt.CapitalTotal-pt.CapitalInvested)) > 0.011 {
			t.Fatalf("day %d: profit %f != total %f - invested %f",
				pt.Day, pt.Profit, pt.CapitalTotal, pt.CapitalInvested)
		}
	}
}

func TestForward_CompoundingGrows(t *testing.T) {
	points := Forward(1000, 0, domain.FrequencyMonthly, 0.5, 1)
	last := points[len(points)-1]

	// 1000 * 1.005^366, give or take rounding.
	want := 1000 * math.Pow(1.005, 366)
	if math.Abs(last.CapitalTotal-want) > 1 {
		t.Errorf("expected ~%f, got %f", want, last.CapitalTotal)
	}
}

func TestMonthlyEquivalentRate(t *testing.T) {
	got := MonthlyEquivalentRate(0.5)
	want := (math.Pow(1.005, 30) - 1) * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
	if MonthlyEquivalentRate(0) != 0 {
		t.Error("zero daily rate must map to zero monthly rate")
	}
}

func TestSummarize(t *testing.T) {
	points := Forward(1000, 100, domain.FrequencyMonthly, 0.2, 5)
	s := Summarize(points, 5)

	last := points[len(points)-1]
	if s.FinalCapital != last.CapitalTotal || s.TotalProfit != last.Profit {
		t.Errorf("summary must mirror the final point, got %+v", s)
	}
	if s.MonthlyProfit != last.Profit/60 {
		t.Errorf("monthly profit must spread over 60 months, got %f", s.MonthlyProfit)
	}

	if got := Summarize(nil, 5); got != (Summary{}) {
		t.Errorf("empty run must summarize to zero, got %+v", got)
	}
}
