package hologram

import (
	"sync"

	"github.com/google/uuid"
)

// Cooldowns is the set of observers that already had an interaction
// handled in the current reconciliation window. The scheduler clears it once
// per tick, so the effective debounce window is shorter than one interval.
type Cooldowns struct {
	mu  sync.Mutex
	ids map[uuid.UUID]struct{}
}

// NewCooldowns creates an empty cooldown set.
func NewCooldowns() *Cooldowns {
	return &Cooldowns{ids: make(map[uuid.UUID]struct{})}
}

func (c *Cooldowns) Add(id uuid.UUID) {
	c.mu.Lock()
	c.ids[id] = struct{}{}
	c.mu.Unlock()
}

func (c *Cooldowns) Contains(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[id]
	return ok
}

// Clear removes every observer from the set.
func (c *Cooldowns) Clear() {
	c.mu.Lock()
	clear(c.ids)
	c.mu.Unlock()
}

func (c *Cooldowns) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}
