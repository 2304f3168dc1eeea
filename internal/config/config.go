package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all service settings, populated from environment variables.
type AppConfig struct {
	// Upstream archive serving an autoindex of timestamp-named radar files.
	SourceIndexURL string

	// FetchInterval controls how often the scheduler refreshes the frame.
	FetchInterval time.Duration

	// Local artifact directories, each independently retention-capped.
	RawDir       string
	ImageDir     string
	KeepRawFiles int
	KeepImages   int

	// Frame cache.
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	// Rendering.
	ImageWidth   int
	ImageHeight  int
	SampleRadius int

	// Outbound HTTP.
	HTTPTimeout      time.Duration
	MaxDownloadBytes int64

	Port      string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.SourceIndexURL = getenvDefault("RADAR_SOURCE_INDEX_URL",
		"https://mrms.ncep.noaa.gov/data/2D/ReflectivityAtLowestAltitude/")

	interval, err := getenvDuration("FETCH_INTERVAL", "2m")
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	cfg.RawDir = getenvDefault("RADAR_RAW_DIR", "data/raw")
	cfg.ImageDir = getenvDefault("RADAR_IMAGE_DIR", "data/images")
	cfg.KeepRawFiles = getenvInt("KEEP_RAW_FILES", 6)
	cfg.KeepImages = getenvInt("KEEP_IMAGES", 12)

	cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "90s")
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheSweepInterval, err = getenvDuration("CACHE_SWEEP_INTERVAL", "1m")
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SWEEP_INTERVAL: %w", err)
	}

	cfg.ImageWidth = getenvInt("IMAGE_WIDTH", 1180)
	cfg.ImageHeight = getenvInt("IMAGE_HEIGHT", 480)
	cfg.SampleRadius = getenvInt("SAMPLE_RADIUS_PX", 2)
	if cfg.ImageWidth <= 0 || cfg.ImageHeight <= 0 {
		return nil, fmt.Errorf("image dimensions must be positive")
	}

	cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.MaxDownloadBytes = int64(getenvInt("MAX_DOWNLOAD_BYTES", 64<<20))

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "text")

	if cfg.SourceIndexURL == "" {
		return nil, fmt.Errorf("RADAR_SOURCE_INDEX_URL must not be empty")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	return time.ParseDuration(getenvDefault(key, def))
}
