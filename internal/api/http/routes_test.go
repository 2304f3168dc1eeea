package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velichan/radarview/internal/observability"
	"github.com/velichan/radarview/internal/radar"
)

// failingAcquirer forces every request down the synthetic fallback path.
type failingAcquirer struct{}

func (failingAcquirer) FetchLatest(_ context.Context) (radar.AcquiredFile, error) {
	return radar.AcquiredFile{}, fmt.Errorf("%w: forced failure", radar.ErrAcquisition)
}

func (failingAcquirer) PruneLocal(_ int) int { return 0 }

type passthroughParser struct{}

func (passthroughParser) Parse(_ string) (radar.Frame, error) {
	return radar.Frame{}, fmt.Errorf("%w: unreachable", radar.ErrParse)
}

type syntheticGenerator struct{}

func (syntheticGenerator) Generate(tag string) radar.Frame {
	return radar.Frame{
		Samples: []radar.GeoSample{{Lat: 37, Lon: -95.5, Intensity: 45}},
		Bounds:  radar.ConusBounds,
		Meta:    radar.FrameMeta{SampleCount: 1, IsSynthetic: true, SourceTag: tag},
	}
}

type stubRenderer struct {
	stamps []time.Time
}

func (stubRenderer) Render(_ radar.Frame, capturedAt time.Time) (string, error) {
	return "radar_" + capturedAt.UTC().Format("20060102-150405") + ".png", nil
}

func (stubRenderer) Cleanup(_ int) int { return 0 }

func (r stubRenderer) Timestamps() []time.Time { return r.stamps }

type mapCache struct {
	mu      sync.Mutex
	entries map[string]radar.RenderedFrame
}

func (c *mapCache) Get(key string) (radar.RenderedFrame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Put(key string, value radar.RenderedFrame, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func newTestApp(stamps []time.Time) *fiber.App {
	svc := radar.NewService(
		failingAcquirer{},
		passthroughParser{},
		syntheticGenerator{},
		stubRenderer{stamps: stamps},
		&mapCache{entries: make(map[string]radar.RenderedFrame)},
		radar.ServiceConfig{CacheTTL: time.Minute, KeepRawFiles: 3, KeepImages: 3},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
	)

	app := fiber.New()
	RegisterRoutes(app, svc)
	return app
}

func TestLatestEndpoint_SyntheticFallbackStillServes(t *testing.T) {
	app := newTestApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/radar/latest", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view radar.RenderedFrameView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))

	assert.True(t, view.Metadata.IsSynthetic)
	assert.Equal(t, "RALA", view.Metadata.DataType)
	assert.Equal(t, "dBZ", view.Metadata.Units)
	assert.Equal(t, radar.ConusBounds, view.Bounds)
	assert.Contains(t, view.ImageURL, "/images/radar_")

	// The timestamp must round-trip as RFC3339.
	_, err = time.Parse(time.RFC3339, view.Timestamp)
	assert.NoError(t, err)
}

func TestTimestampsEndpoint_NewestFirstISO(t *testing.T) {
	stamps := []time.Time{
		time.Date(2026, 8, 29, 12, 2, 40, 0, time.UTC),
		time.Date(2026, 8, 29, 12, 0, 40, 0, time.UTC),
	}
	app := newTestApp(stamps)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/radar/timestamps", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []string{"2026-08-29T12:02:40Z", "2026-08-29T12:00:40Z"}, got)
}

func TestByTimestampEndpoint_DegradesToLatest(t *testing.T) {
	app := newTestApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/radar/2020-01-01T00:00:00Z", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view radar.RenderedFrameView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.True(t, view.Metadata.IsSynthetic)
}

func TestByTimestampEndpoint_RejectsGarbage(t *testing.T) {
	app := newTestApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/radar/not-a-time", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
