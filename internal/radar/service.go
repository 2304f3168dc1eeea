package radar

import (
	"context"
	"log/slog"
	"time"

	"github.com/velichan/radarview/internal/observability"
)

// CacheKeyLatest is the cache key for the most recent rendering.
const CacheKeyLatest = "latest"

// ServiceConfig bundles the orchestrator's tunables.
type ServiceConfig struct {
	CacheTTL     time.Duration
	KeepRawFiles int
	KeepImages   int
}

// Service composes the pipeline stages into "get latest frame" and
// "get frame at timestamp" operations.
//
// Per request: cache lookup, then acquire, parse, render, cache store. An
// acquisition or parse failure is absorbed and replaced by the synthetic
// generator; a render failure is surfaced to the caller, since nothing
// below rasterization exists to fall back to. There is no single-flight
// guard: concurrent misses may each render redundantly and the last cache
// put wins, which is redundant work but not a correctness problem because
// rendering is deterministic.
type Service struct {
	acquirer  Acquirer
	parser    Parser
	generator Generator
	renderer  Renderer
	cache     Cache
	cfg       ServiceConfig
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService creates a Service. All collaborators are passed in explicitly;
// the service owns no hidden process-wide state.
func NewService(
	acquirer Acquirer,
	parser Parser,
	generator Generator,
	renderer Renderer,
	cache Cache,
	cfg ServiceConfig,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		acquirer:  acquirer,
		parser:    parser,
		generator: generator,
		renderer:  renderer,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// GetLatest returns the most recent rendered frame, producing one if the
// cache holds nothing usable. Callers always receive a frame (real or
// synthetic) unless rasterization itself fails.
func (s *Service) GetLatest(ctx context.Context) (RenderedFrame, error) {
	if cached, ok := s.cache.Get(CacheKeyLatest); ok {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	start := time.Now()

	frame, capturedAt := s.produceFrame(ctx)

	imageFile, err := s.renderer.Render(frame, capturedAt)
	if err != nil {
		s.metrics.RenderErrors.Inc()
		s.logger.Error("pipeline: render failed", "error", err)
		return RenderedFrame{}, err
	}

	rendered := RenderedFrame{
		CapturedAt: capturedAt,
		ImageFile:  imageFile,
		Bounds:     frame.Bounds,
		Meta:       frame.Meta,
	}
	s.cache.Put(CacheKeyLatest, rendered, s.cfg.CacheTTL)

	source := "real"
	if frame.Meta.IsSynthetic {
		source = "synthetic"
	}
	s.metrics.FramesRendered.WithLabelValues(source).Inc()
	s.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	s.metrics.LastFrameUnix.Set(float64(capturedAt.Unix()))
	s.logger.Info("pipeline: frame rendered",
		"image", imageFile,
		"source", source,
		"samples", frame.Meta.SampleCount,
		"captured_at", capturedAt,
	)

	// Retention cleanup is fire-and-forget; it must never delay or fail the
	// response.
	go s.cleanup()

	return rendered, nil
}

// GetByTimestamp currently degrades to the latest frame regardless of the
// requested time; the returned CapturedAt reports what was actually served.
// A real historical lookup would need a timestamp-indexed store that the
// retention policy does not maintain.
func (s *Service) GetByTimestamp(ctx context.Context, _ time.Time) (RenderedFrame, error) {
	return s.GetLatest(ctx)
}

// Timestamps lists the capture times of retained renderings, newest first.
func (s *Service) Timestamps() []time.Time {
	return s.renderer.Timestamps()
}

// produceFrame runs the ACQUIRE and PARSE stages, falling back to the
// synthetic generator on any failure in either.
func (s *Service) produceFrame(ctx context.Context) (Frame, time.Time) {
	acquired, err := s.acquirer.FetchLatest(ctx)
	if err != nil {
		s.metrics.AcquisitionErrors.Inc()
		s.logger.Warn("pipeline: acquisition failed, using synthetic frame", "error", err)
		return s.generator.Generate("fallback"), time.Now().UTC()
	}

	frame, err := s.parser.Parse(acquired.LocalPath)
	if err != nil {
		s.metrics.ParseErrors.Inc()
		s.logger.Warn("pipeline: parse failed, using synthetic frame",
			"file", acquired.Name, "error", err)
		return s.generator.Generate("fallback"), time.Now().UTC()
	}

	return frame, acquired.Timestamp
}

func (s *Service) cleanup() {
	if n := s.acquirer.PruneLocal(s.cfg.KeepRawFiles); n > 0 {
		s.metrics.FilesPruned.WithLabelValues("raw").Add(float64(n))
	}
	if n := s.renderer.Cleanup(s.cfg.KeepImages); n > 0 {
		s.metrics.FilesPruned.WithLabelValues("images").Add(float64(n))
	}
}
