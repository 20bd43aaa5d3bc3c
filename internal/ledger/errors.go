package ledger

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of all input validation failures; check
// with errors.Is when the specific field does not matter.
var ErrValidation = errors.New("invalid position request")

// Ledger errors. Validation and guard failures are rejected before any
// mutation; callers can surface them directly.
var (
	ErrInvalidStrike   = fmt.Errorf("%w: strike must be positive", ErrValidation)
	ErrInvalidPremium  = fmt.Errorf("%w: premium must not be negative", ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", ErrValidation)
	ErrInvalidType     = fmt.Errorf("%w: unknown option type", ErrValidation)

	// ErrInsufficientCollateral is returned when a cash-secured put would
	// reserve more cash than the strategy has free.
	ErrInsufficientCollateral = errors.New("insufficient cash collateral")

	// ErrInsufficientUnderlying is returned when a covered call would be
	// written against more BTC than the strategy holds uncommitted.
	ErrInsufficientUnderlying = errors.New("insufficient underlying for covered call")

	ErrPositionNotFound = errors.New("position not found")
	ErrPositionClosed   = errors.New("position already closed")
)
