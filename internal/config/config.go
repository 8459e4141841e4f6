// Package config provides centralized configuration for the OmniSpark
// server. All configurable values are loaded from environment variables with
// sensible defaults.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration values.
type Config struct {
	// Port is the HTTP server listen port.
	Port string

	// DBPath is the path to the SQLite database file holding the asset
	// library and the product library.
	DBPath string

	// GeminiKey is the API key used for every modality.
	GeminiKey string

	// GeminiBaseURL is the provider endpoint root.
	GeminiBaseURL string

	// GeminiAPIVersion is the REST API version segment.
	GeminiAPIVersion string

	// TextModel is the model identifier for concept generation and
	// storyboard parsing.
	TextModel string

	// ImageModel is the standard-tier image model identifier.
	ImageModel string

	// ImageModelHQ is the high-resolution image model identifier. The
	// quality tier is chosen by model id, not by a request parameter.
	ImageModelHQ string

	// VideoModel is the long-running video model identifier.
	VideoModel string

	// AspectRatio is the default aspect ratio for visual generation.
	AspectRatio string

	// VideoResolution is the fixed resolution requested for video jobs.
	VideoResolution string

	// VideoPollInterval is the wait between polls of a video operation.
	VideoPollInterval time.Duration

	// VideoPollMax bounds the number of polls before a job is abandoned.
	VideoPollMax int

	// HTTPTimeout is the timeout for outgoing provider requests.
	HTTPTimeout time.Duration

	// ImportTimeout is the timeout for product-page imports.
	ImportTimeout time.Duration

	// LogLevel selects the slog level: debug, info, warn, error.
	LogLevel string

	// CORSOrigin is the allowed CORS origin. Defaults to "*".
	CORSOrigin string
}

// Load reads configuration from environment variables, applying defaults.
func Load() Config {
	return Config{
		Port:              envOr("PORT", "8080"),
		DBPath:            envOr("DB_PATH", "omnispark.db"),
		GeminiKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:     envOr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIVersion:  envOr("GEMINI_API_VERSION", "v1beta"),
		TextModel:         envOr("TEXT_MODEL", "gemini-2.5-flash"),
		ImageModel:        envOr("IMAGE_MODEL", "gemini-2.5-flash-image"),
		ImageModelHQ:      envOr("IMAGE_MODEL_HQ", "gemini-2.5-pro-image"),
		VideoModel:        envOr("VIDEO_MODEL", "veo-3.0-generate-001"),
		AspectRatio:       envOr("ASPECT_RATIO", "16:9"),
		VideoResolution:   envOr("VIDEO_RESOLUTION", "720p"),
		VideoPollInterval: envDuration("VIDEO_POLL_INTERVAL", 8*time.Second),
		VideoPollMax:      envInt("VIDEO_POLL_MAX", 75),
		HTTPTimeout:       envDuration("HTTP_TIMEOUT", 120*time.Second),
		ImportTimeout:     envDuration("IMPORT_TIMEOUT", 30*time.Second),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		CORSOrigin:        envOr("CORS_ORIGIN", "*"),
	}
}

// UseStubs returns true when no provider API key is configured.
func (c Config) UseStubs() bool {
	return c.GeminiKey == ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
