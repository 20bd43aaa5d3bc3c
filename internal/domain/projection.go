package domain

// ContributionFrequency is how often a recurring deposit lands.
type ContributionFrequency string

const (
	FrequencyWeekly  ContributionFrequency = "weekly"
	FrequencyMonthly ContributionFrequency = "monthly"
)

// ProjectionPoint is one sampled step of a compound-growth projection.
// Derived data: recomputed on demand, never persisted on its own.
type ProjectionPoint struct {
	Day             int
	Month           int
	Year            int
	CapitalInvested float64 // cumulative contributions including initial capital
	CapitalTotal    float64 // with daily compounding applied
	Profit          float64 // CapitalTotal - CapitalInvested
}

// SavedProjectionPlan is a named set of projection inputs the user keeps
// around, together with the headline numbers of its last run.
type SavedProjectionPlan struct {
	PlanID         string
	Name           string
	InitialCapital float64
	Contribution   float64
	Frequency      ContributionFrequency
	DailyRatePct   float64
	Years          int

	// Result summary from the run at save time.
	FinalCapital  float64
	TotalInvested float64
	TotalProfit   float64
}
