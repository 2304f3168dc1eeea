package radar

import (
	"image/color"
	"math"
)

// ColorScale maps a reflectivity value to a fixed RGBA color via ordered,
// half-open buckets [min, max). The buckets are built from a sorted list of
// thresholds, so they are contiguous and mutually exclusive by construction:
// every finite value matches exactly one bucket.
type ColorScale struct {
	buckets []colorBucket
}

type colorBucket struct {
	min, max float64 // half-open: min <= v < max
	color    color.RGBA
}

// scaleStop pairs a lower threshold with the color used from that threshold
// up to the next stop. The last stop extends to +Inf.
type scaleStop struct {
	from  float64
	color color.RGBA
}

// NewReflectivityScale returns the standard NWS-style reflectivity scale in
// 5 dBZ steps. Values below 5 dBZ map to fully transparent.
func NewReflectivityScale() *ColorScale {
	return newScale([]scaleStop{
		{math.Inf(-1), color.RGBA{}},
		{5, color.RGBA{0x04, 0xE9, 0xE7, 0xFF}},
		{10, color.RGBA{0x01, 0x9F, 0xF4, 0xFF}},
		{15, color.RGBA{0x03, 0x00, 0xF4, 0xFF}},
		{20, color.RGBA{0x02, 0xFD, 0x02, 0xFF}},
		{25, color.RGBA{0x01, 0xC5, 0x01, 0xFF}},
		{30, color.RGBA{0x00, 0x8E, 0x00, 0xFF}},
		{35, color.RGBA{0xFD, 0xF8, 0x02, 0xFF}},
		{40, color.RGBA{0xE5, 0xBC, 0x00, 0xFF}},
		{45, color.RGBA{0xFD, 0x95, 0x00, 0xFF}},
		{50, color.RGBA{0xFD, 0x00, 0x00, 0xFF}},
		{55, color.RGBA{0xD4, 0x00, 0x00, 0xFF}},
		{60, color.RGBA{0xBC, 0x00, 0x00, 0xFF}},
		{65, color.RGBA{0xF8, 0x00, 0xFD, 0xFF}},
		{70, color.RGBA{0x98, 0x54, 0xC6, 0xFF}},
		{75, color.RGBA{0xFD, 0xFD, 0xFD, 0xFF}},
	})
}

// newScale builds contiguous buckets from ordered stops. Each bucket's upper
// bound is the next stop's lower bound; the final bucket extends to +Inf.
func newScale(stops []scaleStop) *ColorScale {
	buckets := make([]colorBucket, len(stops))
	for i, stop := range stops {
		max := math.Inf(1)
		if i+1 < len(stops) {
			max = stops[i+1].from
		}
		buckets[i] = colorBucket{min: stop.from, max: max, color: stop.color}
	}
	return &ColorScale{buckets: buckets}
}

// Classify maps an intensity to its bucket color. NaN (missing data) yields
// fully transparent. There is no error path: the buckets partition the real
// line, so every finite value matches.
func (s *ColorScale) Classify(intensity float64) color.RGBA {
	if math.IsNaN(intensity) {
		return color.RGBA{}
	}
	for _, b := range s.buckets {
		if intensity >= b.min && intensity < b.max {
			return b.color
		}
	}
	// Unreachable for finite inputs; +Inf lands here.
	return s.buckets[len(s.buckets)-1].color
}
