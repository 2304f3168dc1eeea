package radar

import (
	"math"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
)

// Synthetic generation parameters. The generator only has to look plausible;
// the hard requirement is reproducibility within one epoch bucket.
const (
	syntheticBucketWidth = 2 * time.Minute
	syntheticGridStep    = 0.2 // degrees
	syntheticFloor       = 5.0 // dBZ; cells below this are omitted entirely
	syntheticMinKernels  = 4
	syntheticMaxKernels  = 7
)

// SyntheticGenerator produces plausible reflectivity frames when no real
// source can be decoded. Output is deterministic within an epoch bucket: the
// bucket index seeds the PRNG that places the storm kernels, so repeated
// calls inside the same bucket yield the same frame.
type SyntheticGenerator struct {
	clock  clockwork.Clock
	bounds BoundingBox
}

// NewSyntheticGenerator creates a generator over the fixed continental box.
func NewSyntheticGenerator(clock clockwork.Clock) *SyntheticGenerator {
	return &SyntheticGenerator{clock: clock, bounds: ConusBounds}
}

type stormKernel struct {
	lat, lon float64
	sigma    float64 // spread in degrees
	peak     float64 // dBZ at the center
}

// Generate builds a synthetic frame tagged with sourceTag. The frame's
// bounds are always the fixed continental box and IsSynthetic is true.
func (g *SyntheticGenerator) Generate(sourceTag string) Frame {
	bucket := g.epochBucket()
	rng := rand.New(rand.NewSource(bucket))

	kernels := g.placeKernels(rng, bucket)

	var samples []GeoSample
	minI, maxI := math.Inf(1), math.Inf(-1)

	for lat := g.bounds.South; lat <= g.bounds.North; lat += syntheticGridStep {
		for lon := g.bounds.West; lon <= g.bounds.East; lon += syntheticGridStep {
			var intensity float64
			for _, k := range kernels {
				dLat := lat - k.lat
				dLon := lon - k.lon
				d2 := dLat*dLat + dLon*dLon
				intensity += k.peak * math.Exp(-d2/(2*k.sigma*k.sigma))
			}
			// Bounded jitter; drawn sequentially from the seeded PRNG, so
			// the fixed grid order keeps it reproducible per bucket.
			intensity += rng.Float64()*4 - 2

			if intensity < syntheticFloor {
				continue
			}
			intensity = ClampIntensity(intensity)
			samples = append(samples, GeoSample{Lat: lat, Lon: lon, Intensity: intensity})
			minI = math.Min(minI, intensity)
			maxI = math.Max(maxI, intensity)
		}
	}

	if len(samples) == 0 {
		minI, maxI = 0, 0
	}

	return Frame{
		Samples: samples,
		Bounds:  g.bounds,
		Meta: FrameMeta{
			MinIntensity: minI,
			MaxIntensity: maxI,
			SampleCount:  len(samples),
			IsSynthetic:  true,
			SourceTag:    sourceTag,
		},
	}
}

// placeKernels draws kernel positions and strengths from the seeded PRNG and
// applies a smooth time-varying term so consecutive buckets evolve rather
// than jump between unrelated states.
func (g *SyntheticGenerator) placeKernels(rng *rand.Rand, bucket int64) []stormKernel {
	n := syntheticMinKernels + rng.Intn(syntheticMaxKernels-syntheticMinKernels+1)
	kernels := make([]stormKernel, 0, n)

	latSpan := g.bounds.North - g.bounds.South
	lonSpan := g.bounds.East - g.bounds.West
	phase := float64(bucket)

	for i := 0; i < n; i++ {
		// Inset margin keeps kernel centers away from the box edges.
		lat := g.bounds.South + latSpan*(0.1+0.8*rng.Float64())
		lon := g.bounds.West + lonSpan*(0.1+0.8*rng.Float64())
		sigma := 1.0 + rng.Float64()*2.5
		peak := 25 + rng.Float64()*40

		// Smooth intensity breathing over time, phase-shifted per kernel.
		peak *= 0.75 + 0.25*math.Sin(phase*0.3+float64(i))

		kernels = append(kernels, stormKernel{lat: lat, lon: lon, sigma: sigma, peak: peak})
	}
	return kernels
}

// epochBucket derives the coarse time slice that seeds generation.
func (g *SyntheticGenerator) epochBucket() int64 {
	return g.clock.Now().UTC().Unix() / int64(syntheticBucketWidth.Seconds())
}
