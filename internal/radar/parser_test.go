package radar

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const sampleDoc = `{
	"product": "RALA",
	"bounds": {"north": 49, "south": 25, "east": -66, "west": -125},
	"samples": [
		{"lat": 37.0, "lon": -95.5, "dbz": 45.0},
		{"lat": 40.1, "lon": -100.2, "dbz": 12.5},
		{"lat": 33.3, "lon": -90.0, "dbz": 99.0}
	]
}`

func TestFileParser_DecodesJSONDocument(t *testing.T) {
	path := writeTestFile(t, "frame.json", []byte(sampleDoc))

	frame, err := NewFileParser().Parse(path)
	require.NoError(t, err)

	assert.Equal(t, 3, frame.Meta.SampleCount)
	assert.Equal(t, "RALA", frame.Meta.SourceTag)
	assert.False(t, frame.Meta.IsSynthetic)
	assert.Equal(t, BoundingBox{North: 49, South: 25, East: -66, West: -125}, frame.Bounds)

	// Intensities are clamped to the documented range.
	assert.Equal(t, MaxReflectivity, frame.Samples[2].Intensity)
	assert.Equal(t, 12.5, frame.Meta.MinIntensity)
	assert.Equal(t, MaxReflectivity, frame.Meta.MaxIntensity)
}

func TestFileParser_DecodesGzippedDocument(t *testing.T) {
	path := writeTestFile(t, "frame.json.gz", gzipBytes(t, []byte(sampleDoc)))

	frame, err := NewFileParser().Parse(path)
	require.NoError(t, err)
	assert.Equal(t, 3, frame.Meta.SampleCount)
}

func TestFileParser_RejectsGRIBPayload(t *testing.T) {
	payload := append([]byte("GRIB"), bytes.Repeat([]byte{0x00}, 64)...)
	path := writeTestFile(t, "frame.grib2.gz", gzipBytes(t, payload))

	_, err := NewFileParser().Parse(path)
	require.ErrorIs(t, err, ErrParse)
}

func TestFileParser_RejectsMalformedAndEmptyInput(t *testing.T) {
	cases := map[string]string{
		"garbage":        `not json at all`,
		"no samples":     `{"product":"RALA","bounds":{"north":49,"south":25,"east":-66,"west":-125},"samples":[]}`,
		"degenerate box": `{"product":"RALA","bounds":{"north":25,"south":49,"east":-66,"west":-125},"samples":[{"lat":1,"lon":1,"dbz":10}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeTestFile(t, "bad.json", []byte(body))
			_, err := NewFileParser().Parse(path)
			require.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestFileParser_MissingFileIsParseError(t *testing.T) {
	_, err := NewFileParser().Parse(filepath.Join(t.TempDir(), "absent.json"))
	require.ErrorIs(t, err, ErrParse)
}
