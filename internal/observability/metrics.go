package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// radar frame pipeline.
type Metrics struct {
	FramesRendered    *prometheus.CounterVec // label: source={real,synthetic}
	AcquisitionErrors prometheus.Counter
	ParseErrors       prometheus.Counter
	RenderErrors      prometheus.Counter
	CacheLookups      *prometheus.CounterVec // label: result={hit,miss}
	FilesPruned       *prometheus.CounterVec // label: dir={raw,images}
	PipelineDuration  prometheus.Histogram
	LastFrameUnix     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FramesRendered,
		m.AcquisitionErrors,
		m.ParseErrors,
		m.RenderErrors,
		m.CacheLookups,
		m.FilesPruned,
		m.PipelineDuration,
		m.LastFrameUnix,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FramesRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "frames_rendered_total",
			Help:      "Rendered frames by source kind.",
		}, []string{"source"}),
		AcquisitionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "acquisition_errors_total",
			Help:      "Failures listing or downloading upstream source files.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "parse_errors_total",
			Help:      "Raw files that could not be decoded into a frame.",
		}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "render_errors_total",
			Help:      "Rasterization or image encoding failures.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "cache_lookups_total",
			Help:      "Frame cache lookups by result.",
		}, []string{"result"}),
		FilesPruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radarview",
			Name:      "files_pruned_total",
			Help:      "Artifacts deleted by retention cleanup, by directory.",
		}, []string{"dir"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radarview",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of a full acquire-parse-render cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastFrameUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radarview",
			Name:      "last_frame_timestamp_seconds",
			Help:      "Capture time of the most recently rendered frame.",
		}),
	}
}
