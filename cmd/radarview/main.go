package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/velichan/radarview/internal/api/http"
	"github.com/velichan/radarview/internal/cache"
	"github.com/velichan/radarview/internal/config"
	"github.com/velichan/radarview/internal/logger"
	"github.com/velichan/radarview/internal/observability"
	"github.com/velichan/radarview/internal/radar"
	"github.com/velichan/radarview/internal/radar/source"
	"github.com/velichan/radarview/internal/raster"
	"github.com/velichan/radarview/internal/scheduler"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	for _, dir := range []string{cfg.RawDir, cfg.ImageDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	// Shared HTTP client for outbound archive calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Pipeline components, constructed at process start and passed in
	// explicitly; nothing here is a package-level singleton.
	acquirer := source.NewAcquirer(cfg.SourceIndexURL, cfg.RawDir, httpClient, cfg.MaxDownloadBytes, slogger)
	parser := radar.NewFileParser()
	generator := radar.NewSyntheticGenerator(clock)

	rasterCfg := raster.DefaultConfig()
	rasterCfg.Width = cfg.ImageWidth
	rasterCfg.Height = cfg.ImageHeight
	rasterCfg.SampleRadius = cfg.SampleRadius
	renderer := raster.NewRenderer(cfg.ImageDir, radar.NewReflectivityScale(), rasterCfg, slogger)

	frameCache := cache.New(clock)
	frameCache.StartSweeper(cfg.CacheSweepInterval)
	defer frameCache.Stop()

	service := radar.NewService(acquirer, parser, generator, renderer, frameCache, radar.ServiceConfig{
		CacheTTL:     cfg.CacheTTL,
		KeepRawFiles: cfg.KeepRawFiles,
		KeepImages:   cfg.KeepImages,
	}, slogger, metrics)

	// Scheduler that periodically refreshes the rendered frame.
	sched := scheduler.New(cfg.FetchInterval, service, slogger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "radarview",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "radarview",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Rendered images are served straight from the retained image directory.
	app.Static("/images", cfg.ImageDir)

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
