package book

import "errors"

// Every precondition violation maps onto one of these sentinels. Callers
// match with errors.Is; the wrapped message carries the offending value.
var (
	ErrNilOrder        = errors.New("order can't be nil")
	ErrInvalidID       = errors.New("order id must be positive")
	ErrUnknownOrder    = errors.New("order doesn't exist")
	ErrInvalidSide     = errors.New("unsupported order side")
	ErrNegativePrice   = errors.New("order price can't be negative")
	ErrInvalidSize     = errors.New("order size must be positive")
	ErrDuplicateID     = errors.New("order already exists")
	ErrLevelOutOfRange = errors.New("level out of range")
)
