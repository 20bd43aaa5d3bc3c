// Package priceprocess produces the synthetic price paths driving the
// paper-trading loop: single bounded random ticks for live simulation,
// and anchor-interpolated daily series standing in for real history.
package priceprocess

import (
	"math/rand"
	"time"

	"btcwheel/internal/domain"
)

// Default parameters for a BTC-scale underlying.
const (
	DefaultAmplitude  = 100.0
	DefaultFloor      = 50000.0
	DefaultCeiling    = 120000.0
	DefaultBasePrice  = 95000.0
	DailyNoisePct     = 0.035 // ±3.5% noise superimposed on daily anchors
)

// Anchor pins the interpolated path to a known price on a given day
// offset from the series start.
type Anchor struct {
	Day   int
	Price float64
}

// Process generates bounded random price movement. Not a market model:
// the point is plausible-looking movement the ledger can react to.
type Process struct {
	Amplitude float64 // max absolute per-tick move
	Floor     float64
	Ceiling   float64

	rng *rand.Rand
}

// New creates a Process with default BTC-scale bounds and the given
// random source. A nil source gets a time-seeded one.
func New(rng *rand.Rand) *Process {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Process{
		Amplitude: DefaultAmplitude,
		Floor:     DefaultFloor,
		Ceiling:   DefaultCeiling,
		rng:       rng,
	}
}

// Next advances one tick: current + U(-Amplitude, Amplitude), clamped
// to [Floor, Ceiling].
func (p *Process) Next(current float64) float64 {
	delta := (p.rng.Float64() - 0.5) * 2 * p.Amplitude
	return clamp(current+delta, p.Floor, p.Ceiling)
}

// PathBetween builds a daily series from start to end by linear
// interpolation between anchors with bounded daily noise. Anchors are
// day offsets from start; the first and last anchor bound the path.
// Timestamps increase strictly by one day.
func (p *Process) PathBetween(start, end time.Time, anchors []Anchor) []domain.PricePoint {
	days := int(end.Sub(start).Hours() / 24)
	if days < 0 {
		return nil
	}
	if len(anchors) == 0 {
		anchors = []Anchor{{Day: 0, Price: DefaultBasePrice}, {Day: days, Price: DefaultBasePrice}}
	}

	points := make([]domain.PricePoint, 0, days+1)
	for day := 0; day <= days; day++ {
		base := interpolate(anchors, day)
		noise := (p.rng.Float64() - 0.5) * 2 * DailyNoisePct
		price := clamp(base*(1+noise), p.Floor, p.Ceiling)
		points = append(points, domain.PricePoint{
			Timestamp: start.AddDate(0, 0, day),
			Price:     price,
		})
	}
	return points
}

// SyntheticDaily is the fallback series used when no real history is
// reachable: the built-in anchor set run through PathBetween.
func (p *Process) SyntheticDaily(from, to time.Time) domain.PriceSeries {
	days := int(to.Sub(from).Hours() / 24)
	anchors := scaleAnchors(defaultAnchors, days)
	return domain.PriceSeries{
		Ticker:    "BTC",
		Points:    p.PathBetween(from, to, anchors),
		Simulated: true,
	}
}

// defaultAnchors traces BTC's broad path over roughly 500 days,
// normalized against the requested range by scaleAnchors.
var defaultAnchors = []Anchor{
	{Day: 0, Price: 59500},
	{Day: 30, Price: 58800},
	{Day: 60, Price: 58000},
	{Day: 90, Price: 67000},
	{Day: 120, Price: 90000},
	{Day: 150, Price: 95000},
	{Day: 180, Price: 98000},
	{Day: 240, Price: 92000},
	{Day: 300, Price: 97000},
	{Day: 365, Price: 102000},
	{Day: 450, Price: 99000},
	{Day: 500, Price: 105000},
}

// scaleAnchors stretches or compresses an anchor set so its last anchor
// lands on the final day of the requested range.
func scaleAnchors(anchors []Anchor, days int) []Anchor {
	if days <= 0 || len(anchors) < 2 {
		return anchors
	}
	lastDay := anchors[len(anchors)-1].Day
	if lastDay == 0 {
		return anchors
	}
	scaled := make([]Anchor, len(anchors))
	for i, a := range anchors {
		scaled[i] = Anchor{Day: a.Day * days / lastDay, Price: a.Price}
	}
	return scaled
}

// interpolate returns the linear interpolation of the anchor set at day.
// Days before the first anchor take its price; days past the last take
// the last anchor's price.
func interpolate(anchors []Anchor, day int) float64 {
	if day <= anchors[0].Day {
		return anchors[0].Price
	}
	for i := 0; i < len(anchors)-1; i++ {
		lo, hi := anchors[i], anchors[i+1]
		if day >= lo.Day && day < hi.Day {
			progress := float64(day-lo.Day) / float64(hi.Day-lo.Day)
			return lo.Price + (hi.Price-lo.Price)*progress
		}
	}
	return anchors[len(anchors)-1].Price
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
