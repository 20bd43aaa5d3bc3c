package clickhouse

import (
	"context"
	"fmt"
	"time"

	"btcwheel/internal/domain"
	"btcwheel/internal/storage"
)

// PricePointStore implements storage.PricePointStore using ClickHouse.
// The price_history table uses ReplacingMergeTree, so re-ingesting the
// same days is harmless.
type PricePointStore struct {
	conn *Conn
}

// NewPricePointStore creates a new PricePointStore.
func NewPricePointStore(conn *Conn) *PricePointStore {
	return &PricePointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PricePointStore = (*PricePointStore)(nil)

// InsertBulk appends price points for a ticker.
func (s *PricePointStore) InsertBulk(ctx context.Context, ticker string, points []domain.PricePoint) error {
	if ticker == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (ticker, timestamp, price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(ticker, p.Timestamp, p.Price); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRange retrieves points within [from, to], ordered by timestamp
// ascending. FINAL collapses ReplacingMergeTree duplicates.
func (s *PricePointStore) GetByRange(ctx context.Context, ticker string, from, to time.Time) ([]domain.PricePoint, error) {
	query := `
		SELECT timestamp, price
		FROM price_history FINAL
		WHERE ticker = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("query price history by range: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Timestamp, &p.Price); err != nil {
			return nil, fmt.Errorf("scan price history row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history rows: %w", err)
	}
	return points, nil
}
