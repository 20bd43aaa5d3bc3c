package domain

// Stats is the aggregate view of one strategy's ledger. Always derived
// from (Strategy, []Position); never stored.
type Stats struct {
	TotalPnL              float64
	OpenCount             int
	ClosedCount           int
	TotalCount            int
	WinCount              int
	LossCount             int
	WinRatePct            float64
	TotalPremiumCollected float64
	ReturnOnCapitalPct    float64
	InitialCapital        float64
	CurrentCapital        float64
}
