// Package feed streams live BTC ticks over WebSocket for the paper
// trading loop. The wire format is the common exchange ticker shape:
// subscribe once, then receive {"type":"ticker","product_id":...,
// "price":"..."} messages.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"btcwheel/internal/domain"
)

// Config configures WebSocket feed behavior.
type Config struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultConfig returns default feed configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Tick is one live price observation.
type Tick struct {
	Ticker string
	Price  float64
	Time   time.Time
}

// Client is a reconnecting WebSocket tick feed for one product.
type Client struct {
	endpoint string
	product  string
	config   Config

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	ticks chan Tick

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewClient connects to the endpoint and subscribes to ticker messages
// for product.
func NewClient(ctx context.Context, endpoint, product string, config *Config) (*Client, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}

	c := &Client{
		endpoint: endpoint,
		product:  product,
		config:   cfg,
		// Blocking send on a deep buffer: bursts are absorbed, ticks
		// are never dropped.
		ticks: make(chan Tick, 1024),
		done:  make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	if err := c.subscribe(); err != nil {
		c.conn.Close()
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// Ticks returns the tick stream. The channel closes on Close.
func (c *Client) Ticks() <-chan Tick {
	return c.ticks
}

// connect establishes the WebSocket connection.
func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// subscribe sends the ticker subscription for the configured product.
func (c *Client) subscribe() error {
	req := subscribeRequest{
		Type:       "subscribe",
		ProductIDs: []string{c.product},
		Channels:   []string{"ticker"},
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close closes the connection and the tick channel.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.ticks)
	return nil
}

// readLoop reads messages and pushes ticks, reconnecting with
// exponential backoff on connection errors.
func (c *Client) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay *= 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect dials again and resubscribes.
func (c *Client) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		// Reconnect failed, next read error retries
		return
	}
	if err := c.subscribe(); err != nil {
		return
	}
}

// handleMessage parses a ticker message and emits a tick. Non-ticker
// messages (subscription acks, heartbeats) are ignored.
func (c *Client) handleMessage(message []byte) {
	var msg tickerMessage
	if err := json.Unmarshal(message, &msg); err != nil || msg.Type != "ticker" {
		return
	}

	price, err := strconv.ParseFloat(msg.Price, 64)
	if err != nil || price <= 0 {
		return
	}

	tick := Tick{
		Ticker: msg.ProductID,
		Price:  price,
		Time:   time.Now().UTC(),
	}
	if msg.Time != "" {
		if t, err := time.Parse(time.RFC3339, msg.Time); err == nil {
			tick.Time = t
		}
	}

	select {
	case c.ticks <- tick:
	case <-c.done:
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// Dead connection is picked up by the reader
				c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// Wire types.

type subscribeRequest struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

type tickerMessage struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	Time      string `json:"time"`
}

// PricePoint converts a tick into the domain representation.
func (t Tick) PricePoint() domain.PricePoint {
	return domain.PricePoint{Timestamp: t.Time, Price: t.Price}
}
