// Package reporting builds strategy reports and renders them as CSV or
// Markdown.
package reporting

import (
	"sort"
	"time"

	"btcwheel/internal/domain"
	"btcwheel/internal/projection"
	"btcwheel/internal/stats"
)

// BuildOptions configures report generation.
type BuildOptions struct {
	// Projection, when set, adds a compound projection section.
	Projection *projection.Plan

	// Simulated marks the projection section as built on synthetic
	// prices.
	Simulated bool

	// Now overrides the report timestamp. Nil uses time.Now.
	Now func() time.Time
}

// Build assembles a report for one strategy from its positions.
func Build(strategy *domain.Strategy, positions []*domain.Position, opts BuildOptions) *Report {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	sorted := make([]*domain.Position, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].OpenDate.Equal(sorted[j].OpenDate) {
			return sorted[i].OpenDate.Before(sorted[j].OpenDate)
		}
		return sorted[i].PositionID < sorted[j].PositionID
	})

	r := &Report{
		GeneratedAt: now().UTC(),
		Strategy:    *strategy,
		Stats:       stats.Compute(strategy, sorted),
		Positions:   sorted,
	}

	if strategy.Plan != nil {
		cmp := stats.ComparePlan(*strategy.Plan, sorted, r.Stats)
		r.Plan = &cmp
	}

	if opts.Projection != nil {
		p := opts.Projection
		points := projection.Forward(p.InitialCapital, p.Contribution, p.Frequency, p.DailyRatePct, p.Years)
		r.Projection = &ProjectionSection{
			Summary:   projection.Summarize(points, p.Years),
			Yearly:    yearlyPoints(points),
			Simulated: opts.Simulated,
		}
	}

	return r
}

// yearlyPoints keeps the last point of each projected year.
func yearlyPoints(points []domain.ProjectionPoint) []domain.ProjectionPoint {
	var out []domain.ProjectionPoint
	for i, pt := range points {
		last := i == len(points)-1
		if !last && points[i+1].Year == pt.Year {
			continue
		}
		out = append(out, pt)
	}
	return out
}
