package service

import (
	"sync"
	"time"
)

// CooldownStore gates admission to the reconciliation pipeline. While an
// entry exists for a variant id, notifications for that id are dropped
// so a write's own echo cannot re-trigger an identical run. Best-effort
// and per-process; not a distributed lock.
type CooldownStore interface {
	// Admit returns false if the id is already under cooldown, otherwise
	// records it and returns true. Insert-if-absent is atomic.
	Admit(id string) bool
}

// MemoryCooldown is the in-memory CooldownStore. Entries expire via a
// passive timer rather than a lookup-time check, so memory is bounded by
// the number of recently admitted ids, not the catalog size.
type MemoryCooldown struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]struct{}
}

// NewMemoryCooldown creates a cooldown store with a fixed window
func NewMemoryCooldown(window time.Duration) *MemoryCooldown {
	return &MemoryCooldown{
		window:  window,
		entries: make(map[string]struct{}),
	}
}

func (c *MemoryCooldown) Admit(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[id]; exists {
		return false
	}
	c.entries[id] = struct{}{}
	time.AfterFunc(c.window, func() {
		c.mu.Lock()
		delete(c.entries, id)
		c.mu.Unlock()
	})
	return true
}
