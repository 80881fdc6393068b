// Package cache implements the direct-mapped local cache of spec.md
// §4.2: a fixed CACHE_SIZE table of slots, slot = address mod CACHE_SIZE,
// each guarded by its own mutex with unconditional eviction on write.
package cache

import (
	"sync"

	"distshm/internal/metrics"
	"distshm/internal/wire"
)

// Entry is one occupied cache slot: a non-owned address's last-known
// data, status, and write tag, as installed from a home server's reply.
// The cache never synthesises these fields itself.
type Entry struct {
	Address int
	Data    any
	Status  string
	WTag    uint64
}

type slot struct {
	mu       sync.Mutex
	occupied bool
	entry    Entry
}

// Cache is the fixed-size direct-mapped table.
type Cache struct {
	size  int
	slots []*slot
}

// New builds a Cache with the given number of slots.
func New(size int) *Cache {
	slots := make([]*slot, size)
	for i := range slots {
		slots[i] = &slot{}
	}
	return &Cache{size: size, slots: slots}
}

func (c *Cache) slotFor(address int) *slot {
	idx := address % c.size
	if idx < 0 {
		idx += c.size
	}
	return c.slots[idx]
}

// Read returns the entry occupying address's slot, if any. A slot that
// is occupied by a different address (a collision) reports a miss, not
// the wrong entry.
func (c *Cache) Read(address int) (Entry, bool) {
	s := c.slotFor(address)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.occupied || s.entry.Address != address {
		metrics.CacheMisses.Inc()
		return Entry{}, false
	}
	metrics.CacheHits.Inc()
	return s.entry, true
}

// Write unconditionally installs (address, data, status, wtag) into
// address's slot, evicting whatever occupant was there before.
func (c *Cache) Write(address int, data any, status string, wtag uint64) {
	s := c.slotFor(address)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.occupied && s.entry.Address != address {
		metrics.CacheEvictions.Inc()
	}
	s.occupied = true
	s.entry = Entry{Address: address, Data: data, Status: status, WTag: wtag}
}

// Remove clears address's slot if it is the current occupant. Clearing a
// slot occupied by a different address, or an already-empty slot, is a
// no-op.
func (c *Cache) Remove(address int) {
	s := c.slotFor(address)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.occupied && s.entry.Address == address {
		s.occupied = false
		s.entry = Entry{}
		metrics.CacheEvictions.Inc()
	}
}

// Dump returns a snapshot of every occupied slot, in slot order. It is
// not atomic across slots (§4.2): a concurrent writer may be observed
// mid-sweep in either its old or new state, never torn.
func (c *Cache) Dump() []wire.DumpItem {
	items := make([]wire.DumpItem, 0, c.size)
	for _, s := range c.slots {
		s.mu.Lock()
		if s.occupied {
			items = append(items, wire.DumpItem{
				Address: s.entry.Address,
				Data:    s.entry.Data,
				IStatus: s.entry.Status,
				WTag:    s.entry.WTag,
			})
		}
		s.mu.Unlock()
	}
	return items
}
