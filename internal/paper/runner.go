// Package paper drives one strategy's simulation loop: a price tick on
// every interval, assignment evaluation on the ledger, and best-effort
// persistence. The in-memory ledger is authoritative; storage failures
// are logged and never roll simulation state back.
package paper

import (
	"context"
	"log"
	"math"
	"sync/atomic"
	"time"

	"btcwheel/internal/domain"
	"btcwheel/internal/feed"
	"btcwheel/internal/ledger"
	"btcwheel/internal/observability"
	"btcwheel/internal/priceprocess"
	"btcwheel/internal/storage"
)

// DefaultTickInterval paces the synthetic price process.
const DefaultTickInterval = 2 * time.Second

// Options configures a Runner.
type Options struct {
	// Interval between synthetic ticks. Ignored when Feed is set.
	Interval time.Duration

	// Process generates synthetic ticks. Nil gets a default process.
	Process *priceprocess.Process

	// Feed, when set, replaces the synthetic process with live ticks.
	Feed <-chan feed.Tick

	// StartPrice seeds the synthetic walk.
	StartPrice float64

	// Backend receives best-effort persistence. A zero Backend (nil
	// stores) disables persistence entirely.
	Backend storage.Backend

	Logger *log.Logger
}

// Runner runs the tick loop for a single strategy. All ledger mutation
// during Run happens from one goroutine; Open and Close may be called
// concurrently from request handlers.
type Runner struct {
	ledger  *ledger.Ledger
	opts    Options
	backend storage.Backend
	logger  *log.Logger

	// price holds math.Float64bits of the latest tick; the tick
	// goroutine writes it while request handlers read it.
	price atomic.Uint64
}

// NewRunner creates a Runner around an existing ledger.
func NewRunner(l *ledger.Ledger, opts Options) *Runner {
	if opts.Interval <= 0 {
		opts.Interval = DefaultTickInterval
	}
	if opts.Process == nil {
		opts.Process = priceprocess.New(nil)
	}
	if opts.StartPrice <= 0 {
		opts.StartPrice = priceprocess.DefaultBasePrice
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	r := &Runner{
		ledger:  l,
		opts:    opts,
		backend: opts.Backend,
		logger:  opts.Logger,
	}
	r.setPrice(opts.StartPrice)
	return r
}

// Ledger returns the underlying ledger.
func (r *Runner) Ledger() *ledger.Ledger {
	return r.ledger
}

// Price returns the most recent tick price. Safe to call while the
// runner is ticking.
func (r *Runner) Price() float64 {
	return math.Float64frombits(r.price.Load())
}

func (r *Runner) setPrice(p float64) {
	r.price.Store(math.Float64bits(p))
}

// Run processes ticks until ctx is cancelled or the live feed closes.
func (r *Runner) Run(ctx context.Context) {
	if r.opts.Feed != nil {
		r.runLive(ctx)
		return
	}
	r.runSynthetic(ctx)
}

func (r *Runner) runSynthetic(ctx context.Context) {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			price := r.opts.Process.Next(r.Price())
			r.setPrice(price)
			r.step(ctx, price, time.Now())
		}
	}
}

func (r *Runner) runLive(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-r.opts.Feed:
			if !ok {
				return
			}
			r.setPrice(tick.Price)
			r.step(ctx, tick.Price, tick.Time)
		}
	}
}

// step evaluates one tick against the ledger and persists fallout.
func (r *Runner) step(ctx context.Context, price float64, at time.Time) {
	events := r.ledger.EvaluateTick(price)

	observability.RecordTick(price, at.Unix())
	openCount := 0
	for _, p := range r.ledger.Positions() {
		if p.Status == domain.StatusOpen {
			openCount++
		}
	}
	observability.SetOpenPositions(openCount)

	for _, ev := range events {
		observability.RecordAssignment(string(ev.Position.Type))
		observability.RecordPositionClosed(string(domain.CloseAssigned))
		r.logger.Printf("assignment: %s %s strike=%.2f at price=%.2f",
			ev.Type, ev.Position.PositionID, ev.Position.Strike, ev.Price)
	}

	if len(events) > 0 {
		r.persistAssignments(ctx, events)
	}
}

// persistAssignments writes assignment fallout asynchronously. Errors
// are logged; the ledger has already moved on.
func (r *Runner) persistAssignments(ctx context.Context, events []ledger.Event) {
	if r.backend.Positions == nil && r.backend.Strategies == nil {
		return
	}
	strat := r.ledger.Strategy()

	go func() {
		// Detached from the tick so a slow backend cannot stall the
		// loop; bounded so shutdown does not hang on a dead backend.
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		if r.backend.Positions != nil {
			for _, ev := range events {
				start := time.Now()
				err := r.backend.Positions.UpdateStatus(pctx, ev.Position.PositionID, domain.StatusClosed, ev.Price)
				observability.RecordPersist("positions", "update_status", time.Since(start).Seconds(), err)
				if err != nil {
					r.logger.Printf("persist assignment %s: %v", ev.Position.PositionID, err)
				}
			}
		}
		if r.backend.Strategies != nil {
			start := time.Now()
			err := r.backend.Strategies.Update(pctx, &strat)
			observability.RecordPersist("strategies", "update", time.Since(start).Seconds(), err)
			if err != nil {
				r.logger.Printf("persist strategy %s: %v", strat.StrategyID, err)
			}
		}
	}()
}

// OpenPosition opens a position on the ledger and persists it
// best-effort.
func (r *Runner) OpenPosition(ctx context.Context, req ledger.OpenRequest) (*domain.Position, error) {
	pos, err := r.ledger.Open(req)
	if err != nil {
		return nil, err
	}

	observability.RecordPositionOpened(string(pos.Type))
	if pos.Action == domain.ActionSell {
		observability.RecordPremium(pos.Premium * pos.Quantity)
	}

	if r.backend.Positions != nil {
		start := time.Now()
		perr := r.backend.Positions.Insert(ctx, pos)
		observability.RecordPersist("positions", "insert", time.Since(start).Seconds(), perr)
		if perr != nil {
			r.logger.Printf("persist open %s: %v", pos.PositionID, perr)
		}
	}
	return pos, nil
}

// ClosePosition closes a position manually and persists the status
// change best-effort.
func (r *Runner) ClosePosition(ctx context.Context, positionID string) error {
	if err := r.ledger.Close(positionID); err != nil {
		return err
	}

	observability.RecordPositionClosed(string(domain.CloseManual))

	if r.backend.Positions != nil {
		start := time.Now()
		err := r.backend.Positions.UpdateStatus(ctx, positionID, domain.StatusClosed, 0)
		observability.RecordPersist("positions", "update_status", time.Since(start).Seconds(), err)
		if err != nil {
			r.logger.Printf("persist close %s: %v", positionID, err)
		}
	}
	return nil
}
