// Package ledger owns the positions of one wheel strategy: it opens
// them, closes them, and decides their fate against the ticking price.
// All mutation of a strategy's state goes through its ledger; one mutex
// per ledger, nothing shared across strategies.
package ledger

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"btcwheel/internal/domain"
)

// DefaultAssignmentProbability is the per-tick chance that an in-the-money
// position gets assigned. A pedagogical simplification, not a pricing model.
const DefaultAssignmentProbability = 0.05

// Options configures a Ledger.
type Options struct {
	// AssignmentProbability overrides DefaultAssignmentProbability.
	// Set 1 or 0 in tests to force or forbid assignment.
	AssignmentProbability *float64

	// Rand is the randomness source for assignment rolls. Nil gets a
	// time-seeded source.
	Rand *rand.Rand

	// Hooks receives lifecycle notifications. Nil gets NopHooks.
	Hooks Hooks

	// Now supplies open timestamps. Nil gets time.Now.
	Now func() time.Time
}

// Ledger is the authoritative, append-only-except-status position list
// of a single strategy.
type Ledger struct {
	mu sync.Mutex

	strategy  *domain.Strategy
	positions []*domain.Position
	cash      float64

	assignProb float64
	rng        *rand.Rand
	hooks      Hooks
	now        func() time.Time
}

// New creates a ledger for a strategy. Cash starts at the strategy's
// capital; previously recorded positions can be replayed in via Restore.
func New(strategy *domain.Strategy, opts Options) *Ledger {
	prob := DefaultAssignmentProbability
	if opts.AssignmentProbability != nil {
		prob = *opts.AssignmentProbability
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = NopHooks{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		strategy:   strategy,
		cash:       strategy.Capital,
		assignProb: prob,
		rng:        rng,
		hooks:      hooks,
		now:        now,
	}
}

// OpenRequest carries the parameters of a new position.
type OpenRequest struct {
	Type     domain.OptionType
	Action   domain.TradeAction
	Strike   float64
	Premium  float64 // per unit
	Quantity float64
	Expiry   time.Time
}

// Open validates and records a new position. Premium is credited (sell)
// or debited (buy) immediately: realized at sale, independent of any
// later assignment. Rejections leave no partial state.
func (l *Ledger) Open(req OpenRequest) (*domain.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if req.Type != domain.OptionPut && req.Type != domain.OptionCall {
		return nil, ErrInvalidType
	}
	if req.Strike <= 0 {
		return nil, ErrInvalidStrike
	}
	if req.Premium < 0 {
		return nil, ErrInvalidPremium
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var committed float64
	switch req.Type {
	case domain.OptionPut:
		committed = req.Strike * req.Quantity
		if req.Action == domain.ActionSell && l.availableCashLocked() < committed {
			return nil, ErrInsufficientCollateral
		}
	case domain.OptionCall:
		committed = req.Quantity
		if l.availableBTCLocked() < req.Quantity {
			return nil, ErrInsufficientUnderlying
		}
	}

	pnl := req.Premium * req.Quantity
	if req.Action != domain.ActionSell {
		pnl = -pnl
	}

	pos := &domain.Position{
		PositionID:       uuid.NewString(),
		StrategyID:       l.strategy.StrategyID,
		Type:             req.Type,
		Action:           req.Action,
		Strike:           req.Strike,
		Premium:          req.Premium,
		Quantity:         req.Quantity,
		Ticker:           l.strategy.Ticker,
		OpenDate:         l.now(),
		Expiry:           req.Expiry,
		CapitalCommitted: committed,
		Status:           domain.StatusOpen,
		PnL:              pnl,
	}

	l.positions = append(l.positions, pos)
	l.cash += pnl

	l.hooks.OnPositionOpened(*pos)
	if req.Action == domain.ActionSell {
		l.hooks.OnPremiumCollected(req.Premium * req.Quantity)
	}
	return snapshot(pos), nil
}

// EvaluateTick walks every open position against the tick price and
// assigns in-the-money ones with the configured per-tick probability.
// A failure evaluating one position skips that position only.
func (l *Ledger) EvaluateTick(price float64) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var events []Event
	for _, pos := range l.positions {
		if pos.Status != domain.StatusOpen {
			continue
		}
		if ev, ok := l.evaluateOne(pos, price); ok {
			events = append(events, ev)
		}
	}
	return events
}

// evaluateOne decides one position's fate. The recover keeps a single
// bad position from aborting the whole batch.
func (l *Ledger) evaluateOne(pos *domain.Position, price float64) (ev Event, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if !pos.InTheMoney(price) {
		return Event{}, false
	}
	if l.rng.Float64() >= l.assignProb {
		return Event{}, false
	}

	switch pos.Type {
	case domain.OptionPut:
		l.assignPut(pos, price)
		ev = Event{Type: EventAssignedPut, Position: *pos, Price: price}
	case domain.OptionCall:
		l.assignCall(pos, price)
		ev = Event{Type: EventAssignedCall, Position: *pos, Price: price}
	default:
		return Event{}, false
	}

	l.hooks.OnPositionClosed(*pos, domain.CloseAssigned)
	return ev, true
}

// assignPut settles a sold put: cash out at strike, BTC in, cost basis
// up. Cost basis only ever increases.
func (l *Ledger) assignPut(pos *domain.Position, price float64) {
	cost := pos.Strike * pos.Quantity
	l.cash -= cost

	acc := &l.strategy.Accumulation
	acc.BTCAccumulated += pos.Quantity
	acc.BTCCostBasis += cost
	acc.Recompute()

	pos.Status = domain.StatusClosed
	pos.AssignmentPrice = price
}

// assignCall settles a sold call: BTC out, cash in at strike. Gain or
// loss on the disposed BTC is not tracked, and the put-derived cost
// basis is left untouched.
func (l *Ledger) assignCall(pos *domain.Position, price float64) {
	l.strategy.Accumulation.BTCAccumulated -= pos.Quantity
	l.cash += pos.Strike * pos.Quantity

	pos.Status = domain.StatusClosed
	pos.AssignmentPrice = price
}

// Close closes a position manually. PnL stays at the already-credited
// premium; no buy-back cost is modeled.
func (l *Ledger) Close(positionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, pos := range l.positions {
		if pos.PositionID != positionID {
			continue
		}
		if pos.Status == domain.StatusClosed {
			return ErrPositionClosed
		}
		pos.Status = domain.StatusClosed
		l.hooks.OnPositionClosed(*pos, domain.CloseManual)
		return nil
	}
	return ErrPositionNotFound
}

// Restore replays previously persisted positions into a fresh ledger,
// rebuilding the cash balance from their premium and assignment flows.
func (l *Ledger) Restore(positions []*domain.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range positions {
		pos := snapshot(p)
		l.positions = append(l.positions, pos)
		l.cash += pos.PnL
		if pos.AssignmentPrice != 0 {
			switch pos.Type {
			case domain.OptionPut:
				l.cash -= pos.Strike * pos.Quantity
			case domain.OptionCall:
				l.cash += pos.Strike * pos.Quantity
			}
		}
	}
}

// Positions returns a snapshot of all positions, oldest first.
func (l *Ledger) Positions() []*domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*domain.Position, len(l.positions))
	for i, p := range l.positions {
		out[i] = snapshot(p)
	}
	return out
}

// Strategy returns a snapshot of the owning strategy, including its
// current accumulation totals.
func (l *Ledger) Strategy() domain.Strategy {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.strategy
}

// Cash is the strategy's current cash balance: initial capital plus
// premium flows, minus puts settled, plus calls settled.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// AvailableCash is cash not reserved as collateral for open puts.
func (l *Ledger) AvailableCash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.availableCashLocked()
}

func (l *Ledger) availableCashLocked() float64 {
	available := l.cash
	for _, p := range l.positions {
		if p.Status == domain.StatusOpen && p.Type == domain.OptionPut && p.Action == domain.ActionSell {
			available -= p.CapitalCommitted
		}
	}
	return available
}

func (l *Ledger) availableBTCLocked() float64 {
	available := l.strategy.Accumulation.BTCAccumulated
	for _, p := range l.positions {
		if p.Status == domain.StatusOpen && p.Type == domain.OptionCall {
			available -= p.Quantity
		}
	}
	return available
}

func snapshot(p *domain.Position) *domain.Position {
	cp := *p
	return &cp
}
