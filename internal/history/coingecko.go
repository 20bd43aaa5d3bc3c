package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"btcwheel/internal/domain"
)

// DefaultCoinGeckoURL is the public API base.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGecko fetches BTC/USD history from the CoinGecko market chart
// endpoint.
type CoinGecko struct {
	baseURL string
	client  *http.Client
}

// CoinGeckoOption configures CoinGecko.
type CoinGeckoOption func(*CoinGecko)

// WithBaseURL overrides the API base, mainly for tests.
func WithBaseURL(url string) CoinGeckoOption {
	return func(c *CoinGecko) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) CoinGeckoOption {
	return func(c *CoinGecko) {
		c.client = client
	}
}

// NewCoinGecko creates a CoinGecko source.
func NewCoinGecko(opts ...CoinGeckoOption) *CoinGecko {
	c := &CoinGecko{
		baseURL: DefaultCoinGeckoURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Source = (*CoinGecko)(nil)

// marketChartResponse mirrors the API payload: prices as
// [timestamp_ms, price] pairs.
type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// DailyPrices fetches BTC prices within [from, to].
func (c *CoinGecko) DailyPrices(ctx context.Context, from, to time.Time) (domain.PriceSeries, error) {
	url := fmt.Sprintf("%s/coins/bitcoin/market_chart/range?vs_currency=usd&from=%d&to=%d",
		c.baseURL, from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("create coingecko request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("coingecko request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PriceSeries{}, fmt.Errorf("coingecko status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("read coingecko response: %w", err)
	}

	var chart marketChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("parse coingecko response: %w", err)
	}
	if len(chart.Prices) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("coingecko returned no prices")
	}

	points := make([]domain.PricePoint, 0, len(chart.Prices))
	for _, pair := range chart.Prices {
		points = append(points, domain.PricePoint{
			Timestamp: time.UnixMilli(int64(pair[0])).UTC(),
			Price:     pair[1],
		})
	}

	return domain.PriceSeries{Ticker: "BTC", Points: points}, nil
}
