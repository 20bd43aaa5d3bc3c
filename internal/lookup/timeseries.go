package lookup

import (
	"errors"
	"time"

	"btcwheel/internal/domain"
)

// ErrNoPriceData is returned when a lookup runs against an empty series.
var ErrNoPriceData = errors.New("no price data available")

// PriceAt returns the price at or before the target time: the last
// known price holds until a newer point appears. If every point is
// after the target, the first available price is used.
func PriceAt(target time.Time, points []domain.PricePoint) (float64, error) {
	if len(points) == 0 {
		return 0, ErrNoPriceData
	}

	for i := len(points) - 1; i >= 0; i-- {
		if !points[i].Timestamp.After(target) {
			return points[i].Price, nil
		}
	}

	return points[0].Price, nil
}
