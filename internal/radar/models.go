package radar

import (
	"time"
)

// Reflectivity bounds in dBZ. Sample intensities are clamped to this range
// at parse/generation time so downstream stages never see outliers.
const (
	MinReflectivity = -30.0
	MaxReflectivity = 80.0
)

// GeoSample is a single geo-tagged reflectivity reading.
type GeoSample struct {
	Lat       float64
	Lon       float64
	Intensity float64 // dBZ, clamped to [MinReflectivity, MaxReflectivity]
}

// BoundingBox describes the geographic extent of a frame.
// Invariant: North > South and East > West (no longitude wraparound).
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Valid reports whether the box has positive extent on both axes.
func (b BoundingBox) Valid() bool {
	return b.North > b.South && b.East > b.West
}

// ConusBounds is the fixed continental box used for synthetic frames.
var ConusBounds = BoundingBox{North: 49, South: 25, East: -66, West: -125}

// FrameMeta carries summary information about a frame's samples.
type FrameMeta struct {
	MinIntensity float64
	MaxIntensity float64
	SampleCount  int
	IsSynthetic  bool
	SourceTag    string
}

// Frame is a normalized set of geo samples plus their bounding box.
// Frames are request-scoped; they are produced by parsing or synthesis and
// consumed once by the rasterizer.
type Frame struct {
	Samples []GeoSample
	Bounds  BoundingBox
	Meta    FrameMeta
}

// RenderedFrame is the externally visible unit: an encoded raster image on
// disk plus its geographic bounds and metadata.
type RenderedFrame struct {
	CapturedAt time.Time
	ImageFile  string // file name within the image directory, not a path
	Bounds     BoundingBox
	Meta       FrameMeta
}

// AcquiredFile describes a remote source file downloaded to local storage.
type AcquiredFile struct {
	Name      string
	LocalPath string
	Timestamp time.Time
}

// ClampIntensity bounds a reflectivity value to the documented range.
func ClampIntensity(v float64) float64 {
	if v < MinReflectivity {
		return MinReflectivity
	}
	if v > MaxReflectivity {
		return MaxReflectivity
	}
	return v
}
