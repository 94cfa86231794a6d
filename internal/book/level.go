package book

import (
	"sync"

	"skoll/internal/common"

	"github.com/tidwall/btree"
)

// PriceLevel holds the identifiers of every order resting at one price,
// in arrival order (first inserted = highest time priority).
//
// The id slice is copy-on-write: a membership change installs a freshly
// built slice via Set, never appends in place. A reader that grabbed the
// old slice keeps iterating a consistent snapshot while writers move the
// level forward — this is where the book's eventual-consistency window
// lives.
type PriceLevel struct {
	price float64
	ids   []int64
}

// Price of the level.
func (l *PriceLevel) Price() float64 { return l.price }

// IDs returns the resting identifiers in time-priority order. The slice
// is never written after publication, so sharing it is safe.
func (l *PriceLevel) IDs() []int64 { return l.ids }

// sideLevels is the ordered price→level lookup for one side of the book.
// One abstraction instantiated twice with opposite comparators: bids
// greatest price first, offers least price first, so the first entry is
// always level 1.
//
// Reads go straight to the btree, which locks internally. Membership
// writes are read-modify-write pairs (Get then Set or Delete), so they
// additionally serialise on the side's own mutex; without it two writers
// on one price level can interleave and the last Set discards the other
// writer's change. The mutex is private to the side — it is never held
// together with the store lock, so the cross-structure consistency
// window is unchanged.
type sideLevels struct {
	mu     sync.Mutex
	levels *btree.BTreeG[*PriceLevel]
}

func newSideLevels(side common.Side) *sideLevels {
	less := func(a, b *PriceLevel) bool {
		return a.price < b.price
	}
	if side == common.Bid {
		// Sorted greatest first.
		less = func(a, b *PriceLevel) bool {
			return a.price > b.price
		}
	}
	return &sideLevels{levels: btree.NewBTreeG(less)}
}

// add appends id to the level at price, creating the level if absent.
func (s *sideLevels) add(price float64, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	probe := &PriceLevel{price: price}
	ids := []int64{id}
	if level, ok := s.levels.Get(probe); ok {
		ids = append(append(make([]int64, 0, len(level.ids)+1), level.ids...), id)
	}
	s.levels.Set(&PriceLevel{price: price, ids: ids})
}

// remove drops id from the level at price. A level left empty is removed
// from the lookup entirely, so level numbering stays gapless.
func (s *sideLevels) remove(price float64, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	probe := &PriceLevel{price: price}
	level, ok := s.levels.Get(probe)
	if !ok {
		return
	}
	ids := make([]int64, 0, len(level.ids))
	for _, resting := range level.ids {
		if resting != id {
			ids = append(ids, resting)
		}
	}
	if len(ids) == 0 {
		s.levels.Delete(probe)
		return
	}
	s.levels.Set(&PriceLevel{price: price, ids: ids})
}

// at returns the n-th level (1-indexed) walking best to worst.
func (s *sideLevels) at(n int) (*PriceLevel, bool) {
	var found *PriceLevel
	s.levels.Scan(func(level *PriceLevel) bool {
		n--
		if n == 0 {
			found = level
			return false
		}
		return true
	})
	return found, found != nil
}

// snapshot returns every level best to worst, as of one tree pass.
func (s *sideLevels) snapshot() []*PriceLevel {
	return s.levels.Items()
}

// depth is the number of currently non-empty levels.
func (s *sideLevels) depth() int {
	return s.levels.Len()
}
