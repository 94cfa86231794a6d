package book

import (
	"testing"

	"skoll/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levelPrices(levels []*PriceLevel) []float64 {
	prices := make([]float64, len(levels))
	for i, level := range levels {
		prices[i] = level.price
	}
	return prices
}

func TestSideLevels_OppositeOrderings(t *testing.T) {
	bids := newSideLevels(common.Bid)
	offers := newSideLevels(common.Offer)

	for id, price := range map[int64]float64{1: 22.3, 2: 27.8, 3: 12.5} {
		bids.add(price, id)
		offers.add(price, id)
	}

	// Bids walk greatest first, offers least first.
	assert.Equal(t, []float64{27.8, 22.3, 12.5}, levelPrices(bids.snapshot()))
	assert.Equal(t, []float64{12.5, 22.3, 27.8}, levelPrices(offers.snapshot()))
}

func TestSideLevels_AddKeepsArrivalOrder(t *testing.T) {
	side := newSideLevels(common.Bid)
	side.add(27.8, 3)
	side.add(27.8, 4)
	side.add(27.8, 5)

	level, ok := side.at(1)
	require.True(t, ok)
	assert.Equal(t, []int64{3, 4, 5}, level.IDs())
}

func TestSideLevels_RemoveDropsEmptyLevel(t *testing.T) {
	side := newSideLevels(common.Offer)
	side.add(17.1, 6)
	side.add(97.5, 7)
	require.Equal(t, 2, side.depth())

	side.remove(17.1, 6)

	assert.Equal(t, 1, side.depth())
	level, ok := side.at(1)
	require.True(t, ok)
	assert.Equal(t, 97.5, level.Price())

	// Removing from a price with no level is a no-op.
	side.remove(17.1, 6)
	assert.Equal(t, 1, side.depth())
}

func TestSideLevels_AtOutOfRange(t *testing.T) {
	side := newSideLevels(common.Bid)
	side.add(27.8, 1)

	_, ok := side.at(2)
	assert.False(t, ok)
}

// A published id slice is never written again; later mutations install a
// fresh slice. Readers holding the old snapshot keep a consistent view.
func TestSideLevels_CopyOnWriteSnapshots(t *testing.T) {
	side := newSideLevels(common.Bid)
	side.add(27.8, 1)
	side.add(27.8, 2)

	level, ok := side.at(1)
	require.True(t, ok)
	before := level.IDs()
	require.Equal(t, []int64{1, 2}, before)

	side.add(27.8, 3)
	side.remove(27.8, 1)

	// The old snapshot is untouched; a fresh read sees the new state.
	assert.Equal(t, []int64{1, 2}, before)
	after, ok := side.at(1)
	require.True(t, ok)
	assert.Equal(t, []int64{2, 3}, after.IDs())
}
