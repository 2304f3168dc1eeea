package cache_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velichan/radarview/internal/cache"
	"github.com/velichan/radarview/internal/radar"
)

func testFrame(name string) radar.RenderedFrame {
	return radar.RenderedFrame{
		CapturedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		ImageFile:  name,
		Bounds:     radar.ConusBounds,
	}
}

func TestFrameCache_HitWithinTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := cache.New(clock)

	c.Put("latest", testFrame("a.png"), time.Minute)

	clock.Advance(30 * time.Second)
	got, ok := c.Get("latest")
	require.True(t, ok)
	assert.Equal(t, "a.png", got.ImageFile)
}

func TestFrameCache_LazyExpiryOnRead(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := cache.New(clock)

	c.Put("latest", testFrame("a.png"), time.Minute)
	clock.Advance(time.Minute)

	_, ok := c.Get("latest")
	assert.False(t, ok, "an entry at its deadline must read as absent")
	assert.Equal(t, 0, c.Len(), "the expired entry must be removed by the read itself")
}

func TestFrameCache_ZeroTTLNeverHits(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := cache.New(clock)

	c.Put("latest", testFrame("a.png"), 0)

	_, ok := c.Get("latest")
	assert.False(t, ok)
}

func TestFrameCache_PutOverwritesUnconditionally(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := cache.New(clock)

	c.Put("latest", testFrame("a.png"), time.Minute)
	c.Put("latest", testFrame("b.png"), time.Minute)

	got, ok := c.Get("latest")
	require.True(t, ok)
	assert.Equal(t, "b.png", got.ImageFile)
}

func TestFrameCache_SweepDropsOnlyExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := cache.New(clock)

	c.Put("old", testFrame("a.png"), 30*time.Second)
	c.Put("fresh", testFrame("b.png"), 5*time.Minute)

	clock.Advance(time.Minute)
	removed := c.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("fresh")
	assert.True(t, ok)
}
