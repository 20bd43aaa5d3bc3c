package ledger

import "btcwheel/internal/domain"

// EventType classifies what happened to a position during a tick.
type EventType string

const (
	EventAssignedPut  EventType = "assigned_put"
	EventAssignedCall EventType = "assigned_call"
)

// Event is one position outcome produced by EvaluateTick.
type Event struct {
	Type     EventType
	Position domain.Position // snapshot after the transition
	Price    float64         // tick price that triggered it
}

// Hooks receives ledger lifecycle notifications. The progress/mission
// tracker consumes these to award experience; the ledger knows nothing
// about levels or badges.
type Hooks interface {
	OnPositionOpened(p domain.Position)
	OnPositionClosed(p domain.Position, reason domain.CloseReason)
	OnPremiumCollected(amount float64)
}

// NopHooks discards all notifications.
type NopHooks struct{}

func (NopHooks) OnPositionOpened(domain.Position)                     {}
func (NopHooks) OnPositionClosed(domain.Position, domain.CloseReason) {}
func (NopHooks) OnPremiumCollected(float64)                           {}

var _ Hooks = NopHooks{}
