package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShuffledIsFullPermutation(t *testing.T) {
	d, err := NewShuffled()
	require.NoError(t, err)
	require.Equal(t, 52, d.Remaining())

	seen := make(map[string]bool, 52)
	for _, c := range d.Cards() {
		s := c.String()
		assert.Falsef(t, seen[s], "duplicate card %s in shuffled deck", s)
		seen[s] = true
	}
	assert.Len(t, seen, 52)
}

func TestDealAdvancesHead(t *testing.T) {
	d := New()
	first := d.Cards()[:3]

	dealt, err := d.Deal(3)
	require.NoError(t, err)
	assert.Equal(t, first, dealt)
	assert.Equal(t, 49, d.Remaining())
}

func TestDealExhausted(t *testing.T) {
	d := New()
	_, err := d.Deal(53)
	require.ErrorIs(t, err, ErrDeckExhausted)
	assert.Equal(t, 52, d.Remaining(), "failed deal must not mutate the deck")
}

func TestDealZeroNeverErrors(t *testing.T) {
	d := New()
	_, err := d.Deal(0)
	require.NoError(t, err)
	assert.Equal(t, 52, d.Remaining())
}

func TestMultipleShufflesStayFullDecks(t *testing.T) {
	for i := 0; i < 20; i++ {
		d, err := NewShuffled()
		require.NoError(t, err)
		assert.Len(t, d.Cards(), 52)
	}
}
