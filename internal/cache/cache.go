// Package cache holds recently rendered frames under short TTLs so
// near-simultaneous requests do not each run a full acquire-parse-render
// cycle.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/velichan/radarview/internal/radar"
)

type entry struct {
	value     radar.RenderedFrame
	expiresAt time.Time
}

// FrameCache is a keyed TTL cache with lazy expiry on read and an optional
// periodic sweep. Capacity is unbounded by entry count; the key space is
// small ("latest" plus a handful of timestamp keys).
type FrameCache struct {
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]entry

	stopSweep chan struct{}
	sweepOnce sync.Once
}

// New creates an empty FrameCache using the given time source.
func New(clock clockwork.Clock) *FrameCache {
	return &FrameCache{
		clock:     clock,
		entries:   make(map[string]entry),
		stopSweep: make(chan struct{}),
	}
}

// Get returns the cached frame for key, if present and unexpired. An entry
// at or past its deadline is treated as absent and removed on this read.
func (c *FrameCache) Get(key string) (radar.RenderedFrame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return radar.RenderedFrame{}, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		return radar.RenderedFrame{}, false
	}
	return e.value, true
}

// Put stores value under key for ttl, overwriting unconditionally. A
// non-positive ttl stores an entry that is already expired, so it can never
// observably hit.
func (c *FrameCache) Put(key string, value radar.RenderedFrame, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.clock.Now().Add(ttl)}
}

// Sweep removes every expired entry and returns how many were dropped. This
// bounds memory even for keys nothing ever reads again.
func (c *FrameCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, expired or not.
func (c *FrameCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweeper launches the periodic sweep in a background goroutine. It
// runs until Stop is called.
func (c *FrameCache) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := c.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stopSweep:
				return
			case <-ticker.Chan():
				c.Sweep()
			}
		}
	}()
}

// Stop terminates the sweeper goroutine, if one was started.
func (c *FrameCache) Stop() {
	c.sweepOnce.Do(func() { close(c.stopSweep) })
}
