// Package main runs compound projections from the command line:
// a forward projection over a chosen horizon, optionally reconciled
// against historical BTC prices.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"btcwheel/internal/domain"
	"btcwheel/internal/history"
	"btcwheel/internal/priceprocess"
	"btcwheel/internal/projection"
	"btcwheel/internal/reporting"
	"btcwheel/internal/storage/keyvalue"
)

func main() {
	// Parse flags
	initial := flag.Float64("initial", 10000, "Initial capital")
	contribution := flag.Float64("contribution", 0, "Recurring contribution amount")
	monthly := flag.Bool("monthly", true, "Monthly contributions (false: weekly)")
	dailyRate := flag.Float64("daily-rate", 0.1, "Daily compounding rate percent")
	years := flag.Int("years", 5, "Projection horizon in years")
	reconcile := flag.Bool("reconcile", false, "Reconcile the plan against historical BTC prices")
	reconcileDays := flag.Int("reconcile-days", 365, "History window in days for reconciliation")
	csv := flag.Bool("csv", false, "Print projection points as CSV instead of a summary")
	filePath := flag.String("file", os.Getenv("BTCWHEEL_FILE_PATH"), "JSON file store for saved plans")
	savePlan := flag.String("save-plan", "", "Save this run as a named plan in the file store")
	listPlans := flag.Bool("list-plans", false, "List saved plans from the file store and exit")
	flag.Parse()

	if *listPlans {
		printSavedPlans(*filePath)
		return
	}

	freq := domain.FrequencyWeekly
	if *monthly {
		freq = domain.FrequencyMonthly
	}

	points := projection.Forward(*initial, *contribution, freq, *dailyRate, *years)
	summary := projection.Summarize(points, *years)

	if *csv {
		fmt.Print(reporting.RenderProjectionCSV(points))
	} else {
		fmt.Printf("Projection over %d years (%.3f%%/day, %.2f%%/month equivalent):\n",
			*years, *dailyRate, projection.MonthlyEquivalentRate(*dailyRate))
		fmt.Printf("  Final capital:   $%.2f\n", summary.FinalCapital)
		fmt.Printf("  Total invested:  $%.2f\n", summary.TotalInvested)
		fmt.Printf("  Total profit:    $%.2f\n", summary.TotalProfit)
		fmt.Printf("  ROI:             %.2f%%\n", summary.ROIPct)
		fmt.Printf("  Monthly profit:  $%.2f\n", summary.MonthlyProfit)
	}

	if *savePlan != "" {
		if err := storePlan(*filePath, *savePlan, *initial, *contribution, freq, *dailyRate, *years, summary); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving plan: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved plan %q to %s\n", *savePlan, *filePath)
	}

	if !*reconcile {
		return
	}

	// Reconcile against real (or, unreachable, synthetic) daily prices.
	source := history.NewFallback(
		history.NewCoinGecko(),
		priceprocess.New(nil),
		log.New(os.Stderr, "[history] ", log.LstdFlags),
	)

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -*reconcileDays)
	series, err := source.DailyPrices(context.Background(), from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching history: %v\n", err)
		os.Exit(1)
	}

	rec := projection.Reconcile(projection.Plan{
		InitialCapital: *initial,
		Contribution:   *contribution,
		Frequency:      freq,
		DailyRatePct:   *dailyRate,
		Years:          *years,
		StartDate:      from,
	}, series)

	fmt.Printf("\nReconciliation over the last %d days", *reconcileDays)
	if rec.Simulated {
		fmt.Print(" (simulated prices)")
	}
	fmt.Println(":")
	fmt.Printf("  BTC bought:       %.6f\n", rec.Units)
	fmt.Printf("  Expected capital: $%.2f\n", rec.ExpectedCapital)
	fmt.Printf("  Actual value:     $%.2f\n", rec.ActualValue)
	fmt.Printf("  Variance:         %+.2f\n", rec.Variance)
	if rec.AheadOfPlan {
		fmt.Println("  Ahead of plan")
	} else {
		fmt.Println("  Behind plan")
	}
}

// storePlan saves a projection run as a named plan in the file store.
func storePlan(path, name string, initial, contribution float64, freq domain.ContributionFrequency, dailyRate float64, years int, summary projection.Summary) error {
	if path == "" {
		return fmt.Errorf("--file is required to save plans")
	}
	kv, err := keyvalue.NewFileKV(path)
	if err != nil {
		return err
	}
	backend := keyvalue.NewBackend(kv)
	return backend.Plans.Insert(context.Background(), &domain.SavedProjectionPlan{
		PlanID:         uuid.NewString(),
		Name:           name,
		InitialCapital: initial,
		Contribution:   contribution,
		Frequency:      freq,
		DailyRatePct:   dailyRate,
		Years:          years,
		FinalCapital:   summary.FinalCapital,
		TotalInvested:  summary.TotalInvested,
		TotalProfit:    summary.TotalProfit,
	})
}

// printSavedPlans lists plans from the file store.
func printSavedPlans(path string) {
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required to list plans")
		os.Exit(1)
	}
	kv, err := keyvalue.NewFileKV(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file store: %v\n", err)
		os.Exit(1)
	}
	backend := keyvalue.NewBackend(kv)
	plans, err := backend.Plans.List(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing plans: %v\n", err)
		os.Exit(1)
	}
	if len(plans) == 0 {
		fmt.Println("No saved plans")
		return
	}
	for _, p := range plans {
		fmt.Printf("%s  %s: $%.2f + $%.2f/%s at %.3f%%/day over %dy -> $%.2f (profit $%.2f)\n",
			p.PlanID, p.Name, p.InitialCapital, p.Contribution, p.Frequency,
			p.DailyRatePct, p.Years, p.FinalCapital, p.TotalProfit)
	}
}
