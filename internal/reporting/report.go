package reporting

import (
	"time"

	"btcwheel/internal/domain"
	"btcwheel/internal/projection"
	"btcwheel/internal/stats"
)

// Report is everything the writers render for one strategy.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	Strategy domain.Strategy
	Stats    domain.Stats

	// Positions sorted by open date, oldest first.
	Positions []*domain.Position

	// Plan is the plan-versus-actual comparison, nil when the strategy
	// has no plan.
	Plan *stats.PlanComparison

	// Projection is the compound growth section, nil when no projection
	// was requested.
	Projection *ProjectionSection
}

// ProjectionSection summarizes a compound projection run.
type ProjectionSection struct {
	Summary projection.Summary

	// Yearly holds one point per projected year.
	Yearly []domain.ProjectionPoint

	// Simulated marks projections built on synthesized prices.
	Simulated bool
}
