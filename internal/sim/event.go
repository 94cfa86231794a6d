package sim

import "skoll/internal/common"

type eventKind int

const (
	insertEvent eventKind = iota
	cancelEvent
	amendEvent
)

// Event is one book mutation scheduled by the generator. Cancel and
// amend events reference an order the generator inserted earlier; with
// several appliers running they may still overtake the insert, which the
// feed counts as a rejection rather than a failure.
type Event struct {
	Kind  eventKind
	Order common.Order
	Size  int64 // amend target size
}
