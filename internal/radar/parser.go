package radar

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// sourceDocument is the one structured encoding the parser accepts: a
// (possibly gzip-wrapped) JSON document of geo-tagged dBZ samples.
type sourceDocument struct {
	Product string `json:"product"`
	Bounds  struct {
		North float64 `json:"north"`
		South float64 `json:"south"`
		East  float64 `json:"east"`
		West  float64 `json:"west"`
	} `json:"bounds"`
	Samples []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
		Dbz float64 `json:"dbz"`
	} `json:"samples"`
}

var gribMagic = []byte("GRIB")

// FileParser converts a downloaded raw file into a normalized Frame.
// Decoding is all-or-nothing: anything the parser cannot fully understand
// yields ErrParse, which the service treats as a signal to synthesize.
type FileParser struct{}

// NewFileParser creates a FileParser.
func NewFileParser() *FileParser {
	return &FileParser{}
}

// Parse decodes the file at path into a Frame. GRIB2 payloads are detected
// by magic and rejected: binary grid decoding is deliberately out of scope,
// so those files route the caller to the synthetic fallback.
func (p *FileParser) Parse(path string) (Frame, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: reading %s: %v", ErrParse, path, err)
	}

	payload, err := maybeGunzip(raw)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: decompressing %s: %v", ErrParse, path, err)
	}

	if bytes.HasPrefix(payload, gribMagic) {
		return Frame{}, fmt.Errorf("%w: %s is a GRIB2 grid and no decoder is available", ErrParse, filepath.Base(path))
	}

	var doc sourceDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Frame{}, fmt.Errorf("%w: unrecognized encoding in %s: %v", ErrParse, filepath.Base(path), err)
	}
	if len(doc.Samples) == 0 {
		return Frame{}, fmt.Errorf("%w: %s contains no samples", ErrParse, filepath.Base(path))
	}

	bounds := BoundingBox{North: doc.Bounds.North, South: doc.Bounds.South, East: doc.Bounds.East, West: doc.Bounds.West}
	if !bounds.Valid() {
		return Frame{}, fmt.Errorf("%w: %s has a degenerate bounding box", ErrParse, filepath.Base(path))
	}

	samples := make([]GeoSample, 0, len(doc.Samples))
	minI, maxI := math.Inf(1), math.Inf(-1)
	for _, s := range doc.Samples {
		if math.IsNaN(s.Dbz) {
			continue
		}
		v := ClampIntensity(s.Dbz)
		samples = append(samples, GeoSample{Lat: s.Lat, Lon: s.Lon, Intensity: v})
		minI = math.Min(minI, v)
		maxI = math.Max(maxI, v)
	}
	if len(samples) == 0 {
		return Frame{}, fmt.Errorf("%w: %s contains only missing values", ErrParse, filepath.Base(path))
	}

	tag := doc.Product
	if tag == "" {
		tag = filepath.Base(path)
	}

	return Frame{
		Samples: samples,
		Bounds:  bounds,
		Meta: FrameMeta{
			MinIntensity: minI,
			MaxIntensity: maxI,
			SampleCount:  len(samples),
			IsSynthetic:  false,
			SourceTag:    tag,
		},
	}, nil
}

// maybeGunzip transparently decompresses gzip payloads and passes everything
// else through untouched.
func maybeGunzip(raw []byte) ([]byte, error) {
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
