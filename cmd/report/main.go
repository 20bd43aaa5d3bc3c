// Package main generates a strategy report from a storage backend:
// Markdown summary plus CSV exports of positions and projection points.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"btcwheel/internal/domain"
	"btcwheel/internal/projection"
	"btcwheel/internal/reporting"
	"btcwheel/internal/storage"
	"btcwheel/internal/storage/keyvalue"
	pgstore "btcwheel/internal/storage/postgres"
	"btcwheel/internal/storage/remote"
)

func main() {
	// Parse flags
	strategyID := flag.String("strategy", "", "Strategy ID to report on (default: all)")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	filePath := flag.String("file", os.Getenv("BTCWHEEL_FILE_PATH"), "JSON file store path")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	remoteURL := flag.String("remote-url", os.Getenv("BTCWHEEL_REMOTE_URL"), "Wheel API base URL")
	remoteToken := flag.String("remote-token", os.Getenv("BTCWHEEL_REMOTE_TOKEN"), "Wheel API bearer token")

	projYears := flag.Int("projection-years", 0, "Add a compound projection section over this horizon (0 disables)")
	projRate := flag.Float64("projection-daily-rate", 0.1, "Daily compounding rate percent for the projection")
	projContribution := flag.Float64("projection-contribution", 0, "Recurring contribution amount")
	projMonthly := flag.Bool("projection-monthly", true, "Monthly contributions (false: weekly)")
	flag.Parse()

	ctx := context.Background()

	backend, cleanup, err := createBackend(ctx, *filePath, *postgresDSN, *remoteURL, *remoteToken)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating backend: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	strategies, err := loadStrategies(ctx, backend, *strategyID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading strategies: %v\n", err)
		os.Exit(1)
	}
	if len(strategies) == 0 {
		fmt.Fprintln(os.Stderr, "No strategies found")
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	for _, strat := range strategies {
		positions, err := backend.Positions.GetByStrategyID(ctx, strat.StrategyID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading positions for %s: %v\n", strat.StrategyID, err)
			os.Exit(1)
		}

		opts := reporting.BuildOptions{}
		if *projYears > 0 {
			freq := domain.FrequencyWeekly
			if *projMonthly {
				freq = domain.FrequencyMonthly
			}
			opts.Projection = &projection.Plan{
				InitialCapital: strat.Capital,
				Contribution:   *projContribution,
				Frequency:      freq,
				DailyRatePct:   *projRate,
				Years:          *projYears,
			}
		}

		report := reporting.Build(strat, positions, opts)
		if err := writeReport(*outputDir, strat.StrategyID, report); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report for %s: %v\n", strat.StrategyID, err)
			os.Exit(1)
		}

		fmt.Printf("Report for %s (%s):\n", strat.Name, strat.StrategyID)
		fmt.Printf("  - %s/%s.md\n", *outputDir, strat.StrategyID)
		fmt.Printf("  - %s/%s_positions.csv\n", *outputDir, strat.StrategyID)
		if report.Projection != nil {
			fmt.Printf("  - %s/%s_projection.csv\n", *outputDir, strat.StrategyID)
		}
	}
}

// createBackend picks the store bundle from the provided flags, most
// specific first.
func createBackend(ctx context.Context, filePath, postgresDSN, remoteURL, remoteToken string) (storage.Backend, func(), error) {
	switch {
	case postgresDSN != "":
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return storage.Backend{}, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return storage.Backend{
			Strategies: pgstore.NewStrategyStore(pool),
			Positions:  pgstore.NewPositionStore(pool),
			Plans:      pgstore.NewPlanStore(pool),
		}, pool.Close, nil

	case remoteURL != "":
		client := remote.NewClient(remoteURL, remoteToken)
		return storage.Backend{
			Strategies: remote.NewStrategyStore(client),
			Positions:  remote.NewPositionStore(client),
		}, func() {}, nil

	case filePath != "":
		kv, err := keyvalue.NewFileKV(filePath)
		if err != nil {
			return storage.Backend{}, nil, fmt.Errorf("open file store: %w", err)
		}
		return keyvalue.NewBackend(kv), func() {}, nil

	default:
		return storage.Backend{}, nil, fmt.Errorf("one of --file, --postgres-dsn or --remote-url is required")
	}
}

// loadStrategies fetches one strategy by ID, or all of them.
func loadStrategies(ctx context.Context, backend storage.Backend, strategyID string) ([]*domain.Strategy, error) {
	if strategyID != "" {
		strat, err := backend.Strategies.GetByID(ctx, strategyID)
		if err != nil {
			return nil, err
		}
		return []*domain.Strategy{strat}, nil
	}
	return backend.Strategies.List(ctx)
}

// writeReport renders one strategy's report files.
func writeReport(dir, strategyID string, report *reporting.Report) error {
	md := reporting.RenderMarkdown(report)
	if err := os.WriteFile(filepath.Join(dir, strategyID+".md"), []byte(md), 0644); err != nil {
		return err
	}

	csv := reporting.RenderPositionsCSV(report.Positions)
	if err := os.WriteFile(filepath.Join(dir, strategyID+"_positions.csv"), []byte(csv), 0644); err != nil {
		return err
	}

	if report.Projection != nil {
		proj := reporting.RenderProjectionCSV(report.Projection.Yearly)
		if err := os.WriteFile(filepath.Join(dir, strategyID+"_projection.csv"), []byte(proj), 0644); err != nil {
			return err
		}
	}
	return nil
}
