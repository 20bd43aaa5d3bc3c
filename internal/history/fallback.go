package history

import (
	"context"
	"log"
	"time"

	"btcwheel/internal/domain"
	"btcwheel/internal/priceprocess"
)

// Fallback wraps a Source and substitutes a synthetic series when it
// fails, so callers always get a usable chart. The substituted series
// carries Simulated=true.
type Fallback struct {
	primary Source
	proc    *priceprocess.Process
	logger  *log.Logger

	// OnFallback, when set, is called each time the synthetic series
	// is substituted.
	OnFallback func()
}

// NewFallback creates a Fallback around primary. A nil proc or logger
// gets defaults.
func NewFallback(primary Source, proc *priceprocess.Process, logger *log.Logger) *Fallback {
	if proc == nil {
		proc = priceprocess.New(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Fallback{primary: primary, proc: proc, logger: logger}
}

var _ Source = (*Fallback)(nil)

// DailyPrices never returns an error: upstream failure switches to the
// synthetic anchor-interpolated series.
func (f *Fallback) DailyPrices(ctx context.Context, from, to time.Time) (domain.PriceSeries, error) {
	series, err := f.primary.DailyPrices(ctx, from, to)
	if err == nil && len(series.Points) > 0 {
		return series, nil
	}

	if err != nil {
		f.logger.Printf("history source failed, using synthetic series: %v", err)
	}
	if f.OnFallback != nil {
		f.OnFallback()
	}
	return f.proc.SyntheticDaily(from, to), nil
}
