package domain

import "time"

// PricePoint is one observation of the underlying's price.
type PricePoint struct {
	Timestamp time.Time
	Price     float64 // always > 0
}

// PriceSeries is a time-ordered run of price points. Simulated marks a
// series synthesized locally because no real data source was reachable;
// it changes presentation, never behavior.
type PriceSeries struct {
	Ticker    string
	Points    []PricePoint
	Simulated bool
}

// Last returns the final point of the series and true, or a zero point
// and false for an empty series.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}
