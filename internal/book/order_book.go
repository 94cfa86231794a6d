package book

import (
	"fmt"
	"sync"

	"skoll/internal/common"
)

// OrderBook is an in-memory price-time-priority book for one instrument.
// It holds no matching logic; callers insert, cancel and amend resting
// orders and read level-oriented views back out.
//
// Three structures back it: the canonical id→order store and one ordered
// price→level lookup per side. Each structure is individually
// thread-safe (the store behind its own RWMutex, each lookup behind its
// side's write mutex plus the btree's internal lock) but no lock spans
// all three, so a reader racing a writer may briefly observe one
// structure updated before the other.
// The book is eventually consistent, never corrupt; callers needing
// linearizable reads must serialise externally.
type OrderBook struct {
	mu    sync.RWMutex
	store map[int64]common.Order

	bids   *sideLevels
	offers *sideLevels

	// Some book keeping
	nBidOrders   int64 // Resting order count, bid side.
	nOfferOrders int64 // Resting order count, offer side.
}

func New() *OrderBook {
	return &OrderBook{
		store:  make(map[int64]common.Order),
		bids:   newSideLevels(common.Bid),
		offers: newSideLevels(common.Offer),
	}
}

// Insert files a new resting order. Preconditions are checked in a fixed
// order and the first violation is reported; a rejected insert mutates
// nothing.
//
// Mutation order is level membership before store entry: a failure in
// between leaves an orphaned level id that readers cannot see and that
// is reclaimed when its level empties, rather than a store entry with no
// lookup path (an invisible resting order).
func (book *OrderBook) Insert(order *common.Order) error {
	if err := book.validateInsert(order); err != nil {
		return err
	}
	book.side(order.Side).add(order.Price, order.ID)
	book.putOrder(*order)
	return nil
}

func (book *OrderBook) validateInsert(order *common.Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if order.ID <= 0 {
		return fmt.Errorf("%w: id %d", ErrInvalidID, order.ID)
	}
	if !order.Side.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidSide, order.Side)
	}
	if order.Price < 0 {
		return fmt.Errorf("%w: order %d", ErrNegativePrice, order.ID)
	}
	if order.Size <= 0 {
		return fmt.Errorf("%w: size %d", ErrInvalidSize, order.Size)
	}
	if _, ok := book.order(order.ID); ok {
		return fmt.Errorf("%w: order %d", ErrDuplicateID, order.ID)
	}
	return nil
}

// Cancel removes a resting order and its level membership. The store is
// touched first so any partial state is an orphaned level id, never an
// invisible order.
func (book *OrderBook) Cancel(id int64) error {
	order, ok := book.takeOrder(id)
	if !ok {
		return fmt.Errorf("%w: order %d", ErrUnknownOrder, id)
	}
	book.side(order.Side).remove(order.Price, order.ID)
	return nil
}

// AmendSize replaces the stored order with a copy carrying the new size.
// The level sequence is untouched, so time priority is preserved — the
// defining difference from a cancel and reinsert.
func (book *OrderBook) AmendSize(id, size int64) error {
	book.mu.Lock()
	defer book.mu.Unlock()

	order, ok := book.store[id]
	if !ok {
		return fmt.Errorf("%w: order %d", ErrUnknownOrder, id)
	}
	if size <= 0 {
		return fmt.Errorf("%w: size %d", ErrInvalidSize, size)
	}
	book.store[id] = order.WithSize(size)
	return nil
}

// PriceAtLevel returns the price of the 1-indexed level, counted best to
// worst on the given side.
func (book *OrderBook) PriceAtLevel(level int, side common.Side) (float64, error) {
	if err := validateLevelAndSide(level, side); err != nil {
		return 0, err
	}
	found, ok := book.side(side).at(level)
	if !ok {
		return 0, fmt.Errorf("%w: level %d", ErrLevelOutOfRange, level)
	}
	return found.price, nil
}

// TotalSizeAtLevel sums the sizes resting at the 1-indexed level, read
// through the canonical store so amends are reflected immediately. An id
// whose store entry is not yet (or no longer) visible is skipped — that
// is the documented consistency window, not an error.
func (book *OrderBook) TotalSizeAtLevel(level int, side common.Side) (int64, error) {
	if err := validateLevelAndSide(level, side); err != nil {
		return 0, err
	}
	found, ok := book.side(side).at(level)
	if !ok {
		return 0, fmt.Errorf("%w: level %d", ErrLevelOutOfRange, level)
	}

	var total int64
	for _, id := range found.ids {
		if order, ok := book.order(id); ok {
			total += order.Size
		}
	}
	return total, nil
}

// AllOrders returns every order resting on the side, best level first
// and in arrival order within a level. This is the view a matching or
// display layer would consume.
func (book *OrderBook) AllOrders(side common.Side) ([]common.Order, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSide, side)
	}

	orders := make([]common.Order, 0, book.Resting(side))
	for _, level := range book.side(side).snapshot() {
		for _, id := range level.ids {
			if order, ok := book.order(id); ok {
				orders = append(orders, order)
			}
		}
	}
	return orders, nil
}

// BestPrice is shorthand for PriceAtLevel(1, side).
func (book *OrderBook) BestPrice(side common.Side) (float64, error) {
	return book.PriceAtLevel(1, side)
}

// Depth is the number of currently non-empty levels on the side.
func (book *OrderBook) Depth(side common.Side) int {
	if !side.Valid() {
		return 0
	}
	return book.side(side).depth()
}

// Resting is the number of orders currently resting on the side.
func (book *OrderBook) Resting(side common.Side) int64 {
	if !side.Valid() {
		return 0
	}
	book.mu.RLock()
	defer book.mu.RUnlock()
	if side == common.Bid {
		return book.nBidOrders
	}
	return book.nOfferOrders
}

// Orders returns a point-in-time copy of the canonical store.
func (book *OrderBook) Orders() map[int64]common.Order {
	book.mu.RLock()
	defer book.mu.RUnlock()

	orders := make(map[int64]common.Order, len(book.store))
	for id, order := range book.store {
		orders[id] = order
	}
	return orders
}

// FlatPriceLevel is the exported, immutable shape of one price level.
type FlatPriceLevel struct {
	Price float64
	IDs   []int64
}

// Levels returns the side's lookup flattened best to worst. Each id
// slice is the level's published copy-on-write snapshot; it is never
// written again, so handing it out is safe.
func (book *OrderBook) Levels(side common.Side) ([]FlatPriceLevel, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSide, side)
	}

	levels := book.side(side).snapshot()
	flat := make([]FlatPriceLevel, len(levels))
	for i, level := range levels {
		flat[i] = FlatPriceLevel{Price: level.price, IDs: level.ids}
	}
	return flat, nil
}

func validateLevelAndSide(level int, side common.Side) error {
	if level < 1 {
		return fmt.Errorf("%w: level %d", ErrLevelOutOfRange, level)
	}
	if !side.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidSide, side)
	}
	return nil
}

// side assumes the caller has already validated it.
func (book *OrderBook) side(side common.Side) *sideLevels {
	if side == common.Bid {
		return book.bids
	}
	return book.offers
}

// ---- Atomic store accessors ----

func (book *OrderBook) order(id int64) (common.Order, bool) {
	book.mu.RLock()
	defer book.mu.RUnlock()

	order, ok := book.store[id]
	return order, ok
}

// putOrder is an atomic store add.
func (book *OrderBook) putOrder(order common.Order) {
	book.mu.Lock()
	defer book.mu.Unlock()

	book.store[order.ID] = order
	if order.Side == common.Bid {
		book.nBidOrders++
	} else {
		book.nOfferOrders++
	}
}

// takeOrder is an atomic store load-and-remove.
func (book *OrderBook) takeOrder(id int64) (common.Order, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()

	order, ok := book.store[id]
	if !ok {
		return common.Order{}, false
	}
	delete(book.store, id)
	if order.Side == common.Bid {
		book.nBidOrders--
	} else {
		book.nOfferOrders--
	}
	return order, true
}
