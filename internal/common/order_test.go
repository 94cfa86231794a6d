package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSide(t *testing.T) {
	side, err := ParseSide('B')
	require.NoError(t, err)
	assert.Equal(t, Bid, side)

	side, err = ParseSide('O')
	require.NoError(t, err)
	assert.Equal(t, Offer, side)

	_, err = ParseSide('X')
	assert.ErrorContains(t, err, "unsupported order side")
}

func TestSide_Valid(t *testing.T) {
	assert.True(t, Bid.Valid())
	assert.True(t, Offer.Valid())
	assert.False(t, Side(42).Valid())
}

func TestOrder_Equality(t *testing.T) {
	a := Order{ID: 1, Price: 22.3, Side: Bid, Size: 30}
	b := Order{ID: 1, Price: 22.3, Side: Bid, Size: 30}
	assert.Equal(t, a, b)

	// Any differing field breaks equality.
	assert.NotEqual(t, a, b.WithSize(40))
}

func TestOrder_WithSizeDoesNotMutate(t *testing.T) {
	a := Order{ID: 1, Price: 22.3, Side: Bid, Size: 30}
	amended := a.WithSize(40)

	assert.EqualValues(t, 30, a.Size)
	assert.EqualValues(t, 40, amended.Size)
	assert.Equal(t, a.ID, amended.ID)
	assert.Equal(t, a.Price, amended.Price)
	assert.Equal(t, a.Side, amended.Side)
}
