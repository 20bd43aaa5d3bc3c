// Package history loads daily BTC price history, falling back to a
// synthetic series when the upstream API is unreachable.
package history

import (
	"context"
	"time"

	"btcwheel/internal/domain"
)

// Source provides daily close prices for a date range.
type Source interface {
	DailyPrices(ctx context.Context, from, to time.Time) (domain.PriceSeries, error)
}
