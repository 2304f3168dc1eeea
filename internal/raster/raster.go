// Package raster projects geo-tagged reflectivity samples onto a fixed-size
// RGBA raster, colorizes them, and persists the result as a lossless PNG in
// the retained image directory.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/velichan/radarview/internal/radar"
	"github.com/velichan/radarview/internal/retention"
)

const (
	imagePrefix     = "radar_"
	imageSuffix     = ".png"
	thumbSuffix     = "_thumb.png"
	timestampLayout = "20060102-150405"
)

// Config fixes the rendering parameters. Together with the input Frame they
// fully determine the output image: identical Frame and Config always yield
// byte-identical PNGs.
type Config struct {
	Width        int
	Height       int
	SampleRadius int     // radius in pixels of the disc drawn per sample
	BlendRatio   float64 // weight of the incoming color when discs overlap
	BlurRadius   int     // box blur radius for the smoothing pass
	ThumbWidth   int     // thumbnail width in pixels; 0 disables thumbnails
}

// DefaultConfig matches the CONUS aspect ratio at roughly 20 px per degree.
func DefaultConfig() Config {
	return Config{
		Width:        1180,
		Height:       480,
		SampleRadius: 2,
		BlendRatio:   0.6,
		BlurRadius:   1,
		ThumbWidth:   295,
	}
}

// Renderer turns Frames into PNG files in dir.
type Renderer struct {
	dir    string
	scale  *radar.ColorScale
	cfg    Config
	logger *slog.Logger
}

// NewRenderer creates a Renderer writing into dir using the given color scale.
func NewRenderer(dir string, scale *radar.ColorScale, cfg Config, logger *slog.Logger) *Renderer {
	return &Renderer{dir: dir, scale: scale, cfg: cfg, logger: logger}
}

// Render rasterizes the frame and persists it, returning the image file
// name. The raster starts fully transparent; samples projecting outside the
// pixel grid are discarded silently (expected at bounding-box edges).
func (r *Renderer) Render(frame radar.Frame, capturedAt time.Time) (string, error) {
	if !frame.Bounds.Valid() {
		return "", fmt.Errorf("%w: frame has a degenerate bounding box", radar.ErrRender)
	}

	img := image.NewRGBA(image.Rect(0, 0, r.cfg.Width, r.cfg.Height))

	for _, s := range frame.Samples {
		x, y, ok := r.project(s.Lat, s.Lon, frame.Bounds)
		if !ok {
			continue
		}
		c := r.scale.Classify(s.Intensity)
		if c.A == 0 {
			continue
		}
		r.drawDisc(img, x, y, c)
	}

	if r.cfg.BlurRadius > 0 {
		img = boxBlur(img, r.cfg.BlurRadius)
	}

	name := imagePrefix + capturedAt.UTC().Format(timestampLayout) + imageSuffix
	if err := r.writePNG(img, filepath.Join(r.dir, name)); err != nil {
		return "", fmt.Errorf("%w: %v", radar.ErrRender, err)
	}

	// Thumbnail is a derivative artifact; failing to produce one never fails
	// the render.
	if r.cfg.ThumbWidth > 0 {
		if err := r.writeThumbnail(img, name); err != nil {
			r.logger.Warn("raster: thumbnail write failed", "image", name, "error", err)
		}
	}

	return name, nil
}

// project maps (lat, lon) to pixel coordinates by linear interpolation
// against the frame bounds. ok is false when the pixel falls outside
// [0, width) x [0, height).
func (r *Renderer) project(lat, lon float64, b radar.BoundingBox) (int, int, bool) {
	x := int((lon - b.West) / (b.East - b.West) * float64(r.cfg.Width))
	y := int((b.North - lat) / (b.North - b.South) * float64(r.cfg.Height))
	if x < 0 || x >= r.cfg.Width || y < 0 || y >= r.cfg.Height {
		return 0, 0, false
	}
	return x, y, true
}

// drawDisc fills a disc of the configured radius around (cx, cy), blending
// into pixels that already hold color. Coverage only grows: the resulting
// alpha is the max of the existing and the blended alpha.
func (r *Renderer) drawDisc(img *image.RGBA, cx, cy int, c color.RGBA) {
	radius := r.cfg.SampleRadius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			x, y := cx+dx, cy+dy
			if x < 0 || x >= r.cfg.Width || y < 0 || y >= r.cfg.Height {
				continue
			}
			blendPixel(img, x, y, c, r.cfg.BlendRatio)
		}
	}
}

// blendPixel writes c into (x, y). Transparent pixels take the color
// directly; occupied pixels mix channels at the configured new-color weight.
func blendPixel(img *image.RGBA, x, y int, c color.RGBA, ratio float64) {
	existing := img.RGBAAt(x, y)
	if existing.A == 0 {
		img.SetRGBA(x, y, c)
		return
	}

	mix := func(newV, oldV uint8) uint8 {
		return uint8(ratio*float64(newV) + (1-ratio)*float64(oldV))
	}
	blendedAlpha := mix(c.A, existing.A)
	alpha := existing.A
	if blendedAlpha > alpha {
		alpha = blendedAlpha
	}

	img.SetRGBA(x, y, color.RGBA{
		R: mix(c.R, existing.R),
		G: mix(c.G, existing.G),
		B: mix(c.B, existing.B),
		A: alpha,
	})
}

// boxBlur applies a uniform box blur of the given radius. Edge pixels use a
// shrunken window rather than sampling outside the raster.
func boxBlur(src *image.RGBA, radius int) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var sumR, sumG, sumB, sumA, n int
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					sx, sy := x+dx, y+dy
					if sx < bounds.Min.X || sx >= bounds.Max.X || sy < bounds.Min.Y || sy >= bounds.Max.Y {
						continue
					}
					p := src.RGBAAt(sx, sy)
					sumR += int(p.R)
					sumG += int(p.G)
					sumB += int(p.B)
					sumA += int(p.A)
					n++
				}
			}
			dst.SetRGBA(x, y, color.RGBA{
				R: uint8(sumR / n),
				G: uint8(sumG / n),
				B: uint8(sumB / n),
				A: uint8(sumA / n),
			})
		}
	}
	return dst
}

// writePNG encodes to a temp file and renames into place so readers never
// observe a partially written image.
func (r *Renderer) writePNG(img image.Image, path string) error {
	tmp, err := os.CreateTemp(r.dir, filepath.Base(path)+".partial-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	err = png.Encode(tmp, img)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// writeThumbnail downscales the full raster to the configured width.
func (r *Renderer) writeThumbnail(img *image.RGBA, name string) error {
	w := r.cfg.ThumbWidth
	h := r.cfg.Height * w / r.cfg.Width
	thumb := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	thumbName := strings.TrimSuffix(name, imageSuffix) + thumbSuffix
	return r.writePNG(thumb, filepath.Join(r.dir, thumbName))
}

// Cleanup keeps the keep newest rendered images, deleting pruned images'
// paired thumbnails alongside them. Best-effort by contract.
func (r *Renderer) Cleanup(keep int) int {
	return retention.Prune(r.dir, retention.Policy{
		Keep: keep,
		Skip: func(name string) bool {
			return strings.HasSuffix(name, thumbSuffix) || strings.Contains(name, ".partial-")
		},
		Companions: func(name string) []string {
			return []string{strings.TrimSuffix(name, imageSuffix) + thumbSuffix}
		},
	}, r.logger)
}

// Timestamps lists the capture times of retained images, newest first, by
// parsing the timestamp token embedded in each file name.
func (r *Renderer) Timestamps() []time.Time {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		r.logger.Warn("raster: listing image directory failed", "dir", r.dir, "error", err)
		return nil
	}

	var stamps []time.Time
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, imagePrefix) || !strings.HasSuffix(name, imageSuffix) {
			continue
		}
		if strings.HasSuffix(name, thumbSuffix) {
			continue
		}
		token := strings.TrimSuffix(strings.TrimPrefix(name, imagePrefix), imageSuffix)
		ts, err := time.Parse(timestampLayout, token)
		if err != nil {
			continue
		}
		stamps = append(stamps, ts.UTC())
	}

	sort.Slice(stamps, func(i, j int) bool { return stamps[i].After(stamps[j]) })
	return stamps
}
