package radar

import "errors"

// Pipeline error taxonomy. Acquisition and parse failures are recoverable:
// the service falls back to a synthetic frame. Render failures are fatal for
// the request; there is nothing below rasterization to fall back to.
var (
	ErrAcquisition = errors.New("radar: acquisition failed")
	ErrParse       = errors.New("radar: parse failed")
	ErrRender      = errors.New("radar: render failed")
)
