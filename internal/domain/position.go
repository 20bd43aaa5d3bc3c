package domain

import "time"

// Position is a single option trade in the ledger. It is append-only:
// after creation only Status and AssignmentPrice ever change, and only
// on the open → closed transition.
type Position struct {
	PositionID string
	StrategyID string

	Type     OptionType
	Action   TradeAction
	Strike   float64
	Premium  float64 // premium per unit, received at sale
	Quantity float64
	Ticker   string

	OpenDate time.Time
	Expiry   time.Time

	// CapitalCommitted is strike×quantity of reserved cash for a sold put,
	// or the BTC quantity backing a covered call.
	CapitalCommitted float64

	Status          PositionStatus
	AssignmentPrice float64 // tick price at assignment, 0 if never assigned

	// PnL is realized at sale (premium×quantity for sells) and finalized
	// when the position closes. Buy-back costs are not modeled.
	PnL float64
}

// OptionType distinguishes puts from calls.
type OptionType string

// TradeAction is how the position was entered or resolved.
type TradeAction string

// PositionStatus is the lifecycle state. Closed is terminal.
type PositionStatus string

const (
	OptionPut  OptionType = "put"
	OptionCall OptionType = "call"

	ActionSell     TradeAction = "sell"
	ActionBuy      TradeAction = "buy"
	ActionAssigned TradeAction = "assigned"
	ActionExpired  TradeAction = "expired"

	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// CloseReason says how a position left the open state.
type CloseReason string

const (
	CloseManual   CloseReason = "manual"
	CloseAssigned CloseReason = "assigned"
)

// InTheMoney reports whether the option would be exercised at price:
// a sold put is ITM when price is at or below strike, a sold call when
// price is at or above strike.
func (p *Position) InTheMoney(price float64) bool {
	switch p.Type {
	case OptionPut:
		return price <= p.Strike
	case OptionCall:
		return price >= p.Strike
	default:
		return false
	}
}
