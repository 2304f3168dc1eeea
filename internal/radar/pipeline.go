package radar

import (
	"context"
	"time"
)

// Acquirer obtains the newest raw source file from the upstream archive.
type Acquirer interface {
	FetchLatest(ctx context.Context) (AcquiredFile, error)
	PruneLocal(keep int) int
}

// Parser converts a downloaded raw file into a normalized Frame.
type Parser interface {
	Parse(path string) (Frame, error)
}

// Generator synthesizes a plausible Frame when no real source is decodable.
type Generator interface {
	Generate(sourceTag string) Frame
}

// Renderer rasterizes a Frame into a persisted image and manages the
// retained image set.
type Renderer interface {
	Render(frame Frame, capturedAt time.Time) (string, error)
	Cleanup(keep int) int
	Timestamps() []time.Time
}

// Cache holds rendered frames under short TTLs.
type Cache interface {
	Get(key string) (RenderedFrame, bool)
	Put(key string, value RenderedFrame, ttl time.Duration)
}
