package emotes

import (
	"strings"
	"sync"
)

// Cache holds one compiled RuleSet per channel. Rule sets are built exactly once per
// channel and reused until invalidated: recompiling the alternation pattern is the
// expensive step, and emote sets rarely change mid-session. Channel keys are compared
// case-insensitively
type Cache struct {
	mu    sync.Mutex
	rules map[string]*RuleSet
}

func NewCache() *Cache {
	return &Cache{
		rules: make(map[string]*RuleSet),
	}
}

// Prime compiles and stores a RuleSet for the given channel. If the channel already
// has an entry, the existing entry is returned untouched: the first write wins until
// Invalidate is called
func (c *Cache) Prime(channel string, descriptors []Descriptor) *RuleSet {
	key := strings.ToLower(channel)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.rules[key]; ok {
		return existing
	}
	rules := newRuleSet(descriptors)
	c.rules[key] = rules
	return rules
}

// Get returns the cached RuleSet for the channel, if one has been primed
func (c *Cache) Get(channel string) (*RuleSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rules, ok := c.rules[strings.ToLower(channel)]
	return rules, ok
}

// Invalidate removes the channel's entry so that a subsequent Prime rebuilds it from
// scratch; called when the user switches away from a channel
func (c *Cache) Invalidate(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.rules, strings.ToLower(channel))
}
