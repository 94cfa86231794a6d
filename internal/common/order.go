package common

import (
	"fmt"
)

// Side of the book an order rests on.
type Side int

const (
	Bid Side = iota
	Offer
)

// Raw side characters accepted at the external input edge.
const (
	bidChar   = 'B'
	offerChar = 'O'
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "BID"
	case Offer:
		return "OFFER"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Valid reports whether the side is one of the two recognised values.
// Internal call sites pass the enum directly, so this only guards values
// forged by casting.
func (s Side) Valid() bool {
	return s == Bid || s == Offer
}

// ParseSide converts a raw side character ('B' or 'O') into a Side.
// This is the only place the character encoding is interpreted; past
// this boundary an invalid side is unrepresentable.
func ParseSide(c byte) (Side, error) {
	switch c {
	case bidChar:
		return Bid, nil
	case offerChar:
		return Offer, nil
	}
	return 0, fmt.Errorf("unsupported order side %q", c)
}

// Order is an immutable resting order. Two orders are equal iff all four
// fields match, so plain struct comparison is the equality contract.
type Order struct {
	ID    int64   // Unique positive identifier
	Price float64 // Non-negative limit price
	Side  Side    // Book side the order rests on
	Size  int64   // Remaining size, strictly positive
}

// WithSize returns a copy of the order carrying a new size. The original
// value is never mutated; amends replace the stored record wholesale.
func (o Order) WithSize(size int64) Order {
	o.Size = size
	return o
}

func (o Order) String() string {
	return fmt.Sprintf(
		`ID:    %d
Price: %f
Side:  %v
Size:  %d`,
		o.ID,
		o.Price,
		o.Side,
		o.Size,
	)
}
