package radar

import "time"

// ViewMetadata is the metadata object embedded in API responses.
type ViewMetadata struct {
	DataType       string  `json:"dataType"`
	UpdateInterval int     `json:"updateInterval"` // minutes
	Source         string  `json:"source"`
	Units          string  `json:"units"`
	SampleCount    int     `json:"sampleCount"`
	MinIntensity   float64 `json:"minDbz"`
	MaxIntensity   float64 `json:"maxDbz"`
	IsSynthetic    bool    `json:"isSynthetic"`
}

// RenderedFrameView is the JSON shape served to HTTP clients.
type RenderedFrameView struct {
	Timestamp string       `json:"timestamp"`
	ImageURL  string       `json:"imageUrl"`
	Bounds    BoundingBox  `json:"bounds"`
	Metadata  ViewMetadata `json:"metadata"`
}

// View builds the client-facing representation. baseURL is treated as an
// opaque prefix supplied by the transport layer; the core never constructs
// absolute URLs on its own.
func (rf RenderedFrame) View(baseURL string) RenderedFrameView {
	return RenderedFrameView{
		Timestamp: rf.CapturedAt.UTC().Format(time.RFC3339),
		ImageURL:  baseURL + "/images/" + rf.ImageFile,
		Bounds:    rf.Bounds,
		Metadata: ViewMetadata{
			DataType:       "RALA",
			UpdateInterval: 2,
			Source:         rf.Meta.SourceTag,
			Units:          "dBZ",
			SampleCount:    rf.Meta.SampleCount,
			MinIntensity:   rf.Meta.MinIntensity,
			MaxIntensity:   rf.Meta.MaxIntensity,
			IsSynthetic:    rf.Meta.IsSynthetic,
		},
	}
}
