package priceprocess

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func fixedRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestNext_StaysWithinAmplitude(t *testing.T) {
	p := New(fixedRand())
	current := 95000.0
	for i := 0; i < 1000; i++ {
		next := p.Next(current)
		if math.Abs(next-current) > p.Amplitude {
			t.Fatalf("tick %d moved %.2f, amplitude is %.2f", i, next-current, p.Amplitude)
		}
		current = next
	}
}

func TestNext_ClampsToBounds(t *testing.T) {
	p := New(fixedRand())

	for i := 0; i < 100; i++ {
		if got := p.Next(p.Floor); got < p.Floor {
			t.Fatalf("price %.2f fell below floor %.2f", got, p.Floor)
		}
		if got := p.Next(p.Ceiling); got > p.Ceiling {
			t.Fatalf("price %.2f rose above ceiling %.2f", got, p.Ceiling)
		}
	}
}

func TestPathBetween_TimestampsIncrease(t *testing.T) {
	p := New(fixedRand())
	start := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 90)

	points := p.PathBetween(start, end, []Anchor{{Day: 0, Price: 60000}, {Day: 90, Price: 70000}})

	if len(points) != 91 {
		t.Fatalf("expected 91 daily points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i].Timestamp.After(points[i-1].Timestamp) {
			t.Fatalf("timestamp at %d does not increase", i)
		}
	}
}

func TestPathBetween_FinalPriceNearLastAnchor(t *testing.T) {
	p := New(fixedRand())
	start := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 120)
	lastAnchor := 88000.0

	points := p.PathBetween(start, end, []Anchor{{Day: 0, Price: 60000}, {Day: 120, Price: lastAnchor}})

	final := points[len(points)-1].Price
	if math.Abs(final-lastAnchor)/lastAnchor > DailyNoisePct {
		t.Fatalf("final price %.2f deviates more than %.1f%% from last anchor %.2f",
			final, DailyNoisePct*100, lastAnchor)
	}
}

func TestPathBetween_RespectsAbsoluteBounds(t *testing.T) {
	p := New(fixedRand())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	// Anchors deliberately outside the clamp range.
	points := p.PathBetween(start, end, []Anchor{{Day: 0, Price: 10000}, {Day: 365, Price: 500000}})

	for _, pt := range points {
		if pt.Price < p.Floor || pt.Price > p.Ceiling {
			t.Fatalf("price %.2f escaped [%.0f, %.0f]", pt.Price, p.Floor, p.Ceiling)
		}
	}
}

func TestSyntheticDaily_MarkedSimulated(t *testing.T) {
	p := New(fixedRand())
	from := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 6, 0)

	series := p.SyntheticDaily(from, to)

	if !series.Simulated {
		t.Fatal("synthetic series must carry the Simulated flag")
	}
	if len(series.Points) == 0 {
		t.Fatal("synthetic series is empty")
	}
	for _, pt := range series.Points {
		if pt.Price <= 0 {
			t.Fatalf("non-positive price %.2f in synthetic series", pt.Price)
		}
	}
}

func TestPathBetween_EmptyRange(t *testing.T) {
	p := New(fixedRand())
	start := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)

	points := p.PathBetween(start, start, nil)
	if len(points) != 1 {
		t.Fatalf("zero-length range should yield one point, got %d", len(points))
	}

	points = p.PathBetween(start, start.AddDate(0, 0, -5), nil)
	if points != nil {
		t.Fatalf("inverted range should yield nil, got %d points", len(points))
	}
}
