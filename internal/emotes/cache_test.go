package emotes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Cache(t *testing.T) {
	t.Run("prime is idempotent per channel until invalidated", func(t *testing.T) {
		c := NewCache()
		first := c.Prime("somechannel", []Descriptor{{Name: "FrankerZ"}})
		second := c.Prime("somechannel", []Descriptor{{Name: "Kappa"}, {Name: "PogChamp"}})

		// The first write wins: re-priming returns the existing entry untouched
		assert.Same(t, first, second)
		assert.Equal(t, 1, second.Len())

		c.Invalidate("somechannel")
		third := c.Prime("somechannel", []Descriptor{{Name: "Kappa"}, {Name: "PogChamp"}})
		assert.NotSame(t, first, third)
		assert.Equal(t, 2, third.Len())
	})
	t.Run("channel keys are case-insensitive", func(t *testing.T) {
		c := NewCache()
		primed := c.Prime("SomeChannel", []Descriptor{{Name: "FrankerZ"}})

		got, ok := c.Get("somechannel")
		assert.True(t, ok)
		assert.Same(t, primed, got)

		c.Invalidate("SOMECHANNEL")
		_, ok = c.Get("somechannel")
		assert.False(t, ok)
	})
	t.Run("get reports when a channel has not been primed", func(t *testing.T) {
		c := NewCache()
		_, ok := c.Get("somechannel")
		assert.False(t, ok)
	})
	t.Run("priming with no emotes stores a rule set that matches nothing", func(t *testing.T) {
		c := NewCache()
		rules := c.Prime("somechannel", nil)
		assert.Equal(t, 0, rules.Len())
		assert.Nil(t, rules.FindAll("any text"))
	})
}
