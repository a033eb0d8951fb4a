// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/trips"
)

// Config holds the application configuration.
type Config struct {
	DataFile            string
	CachePath           string
	TariffPath          string
	Timezone            string
	CongestionThreshold int
	AnomalyCount        int
	RebalanceNet        int
	HotQuantile         float64
	ShortTripThreshold  time.Duration
	HistogramBinWidth   time.Duration
	MinTripDuration     time.Duration
	MaxTripDuration     time.Duration
	MinRecords          int
	WatchDebounce       time.Duration
	Notify              bool
	LogLevel            string
}

// Default values
const (
	defaultShortTripMinutes    = 10
	defaultHistogramBinMinutes = 2
	defaultMinTripMinutes      = 1
	defaultMaxTripMinutes      = 1440
	defaultWatchDebounce       = 500 * time.Millisecond
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DataFile:            getEnvString("DATA_FILE", ""),
		CachePath:           getEnvString("CACHE_PATH", getDefaultCachePath()),
		TariffPath:          getEnvString("TARIFF_PATH", ""),
		Timezone:            getEnvString("TIMEZONE", ""),
		CongestionThreshold: getEnvInt("CONGESTION_THRESHOLD", models.DefaultCongestionThreshold),
		AnomalyCount:        getEnvInt("ANOMALY_COUNT", models.DefaultAnomalyCount),
		RebalanceNet:        getEnvInt("REBALANCE_NET", models.DefaultRebalanceNet),
		HotQuantile:         getEnvFloat("HOT_STATION_QUANTILE", models.DefaultTagConfig().HotQuantile),
		ShortTripThreshold:  getEnvMinutes("SHORT_TRIP_MINUTES", defaultShortTripMinutes),
		HistogramBinWidth:   getEnvMinutes("HISTOGRAM_BIN_MINUTES", defaultHistogramBinMinutes),
		MinTripDuration:     getEnvMinutes("MIN_TRIP_MINUTES", defaultMinTripMinutes),
		MaxTripDuration:     getEnvMinutes("MAX_TRIP_MINUTES", defaultMaxTripMinutes),
		MinRecords:          getEnvInt("MIN_RECORDS", 0),
		WatchDebounce:       getEnvDuration("WATCH_DEBOUNCE", defaultWatchDebounce),
		Notify:              getEnvBool("NOTIFY", false),
		LogLevel:            getEnvString("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.CachePath != "" {
		if err := ensureDir(filepath.Dir(cfg.CachePath)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate rejects settings no analysis could run with.
func (c *Config) Validate() error {
	switch {
	case c.CongestionThreshold < 0:
		return fmt.Errorf("CONGESTION_THRESHOLD must not be negative, got %d", c.CongestionThreshold)
	case c.AnomalyCount < 0:
		return fmt.Errorf("ANOMALY_COUNT must not be negative, got %d", c.AnomalyCount)
	case c.RebalanceNet < 0:
		return fmt.Errorf("REBALANCE_NET must not be negative, got %d", c.RebalanceNet)
	case c.HotQuantile < 0 || c.HotQuantile > 1:
		return fmt.Errorf("HOT_STATION_QUANTILE must be within [0, 1], got %g", c.HotQuantile)
	case c.HistogramBinWidth <= 0:
		return fmt.Errorf("HISTOGRAM_BIN_MINUTES must be positive, got %s", c.HistogramBinWidth)
	case c.MaxTripDuration > 0 && c.MinTripDuration > c.MaxTripDuration:
		return fmt.Errorf("MIN_TRIP_MINUTES (%s) exceeds MAX_TRIP_MINUTES (%s)", c.MinTripDuration, c.MaxTripDuration)
	case c.MinRecords < 0:
		return fmt.Errorf("MIN_RECORDS must not be negative, got %d", c.MinRecords)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the zone naive CSV timestamps are read in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// FlowConfig returns the station flow parameters.
func (c *Config) FlowConfig() models.FlowConfig {
	fc := models.DefaultFlowConfig()
	fc.CongestionThreshold = c.CongestionThreshold
	fc.AnomalyCount = c.AnomalyCount
	fc.RebalanceNet = c.RebalanceNet
	fc.Tags.HotQuantile = c.HotQuantile
	return fc
}

// TemporalConfig returns the temporal pattern parameters.
func (c *Config) TemporalConfig() models.TemporalConfig {
	tc := models.DefaultTemporalConfig()
	tc.ShortTripThreshold = c.ShortTripThreshold
	tc.HistogramBinWidth = c.HistogramBinWidth
	if tc.HistogramMax < tc.HistogramBinWidth {
		tc.HistogramMax = tc.HistogramBinWidth
	}
	return tc
}

// BuildOptions returns the record admission rules.
func (c *Config) BuildOptions() trips.BuildOptions {
	return trips.BuildOptions{
		MinDuration: c.MinTripDuration,
		MaxDuration: c.MaxTripDuration,
		MinRecords:  c.MinRecords,
	}
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "divvy-insights", ".env"))
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getDefaultCachePath returns the default path for the SQLite trip cache.
func getDefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "divvy-cache.db"
	}
	return filepath.Join(home, ".cache", "divvy-insights", "trips.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
// Accepts the forms understood by strconv.ParseBool plus "yes" and "no".
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

// getEnvMinutes retrieves a minute count, fractional values allowed, and
// returns it as a duration.
func getEnvMinutes(key string, defaultMinutes float64) time.Duration {
	minutes := defaultMinutes
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			minutes = f
		}
	}
	return time.Duration(minutes * float64(time.Minute))
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as milliseconds if no unit specified
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
