package config

import (
	"os"
	"strconv"
	"strings"

	"pairstat/internal/cleaning"
	"pairstat/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
	LogLevel string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	GinMode     string
	MaxUploadMB int
}

// MaxUploadBytes is the multipart body limit in bytes
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// AnalysisConfig holds cleaning and reporting settings
type AnalysisConfig struct {
	MissingTokens  []string
	DropZeroX      bool
	CategoryColumn string
	HistogramBins  int
	PreviewRows    int
	SweepWorkers   int
}

// CleaningOptions builds cleaner options from the analysis settings
func (a AnalysisConfig) CleaningOptions() cleaning.Options {
	opts := cleaning.DefaultOptions()
	opts.MissingTokens = append([]string(nil), a.MissingTokens...)
	opts.DropZeroX = a.DropZeroX
	return opts
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			GinMode:     "debug",
			MaxUploadMB: 32,
		},
		Analysis: AnalysisConfig{
			MissingTokens:  cleaning.DefaultMissingTokens(),
			DropZeroX:      true,
			CategoryColumn: "Owner",
			HistogramBins:  30,
			PreviewRows:    10,
			SweepWorkers:   4,
		},
		LogLevel: "INFO",
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Analysis: *loadAnalysisConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadServerConfig() *ServerConfig {
	def := Default().Server
	return &ServerConfig{
		Port:        getEnvOrDefault("PORT", def.Port),
		GinMode:     getEnvOrDefault("GIN_MODE", def.GinMode),
		MaxUploadMB: getEnvIntOrDefault("MAX_UPLOAD_MB", def.MaxUploadMB),
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	def := Default().Analysis
	return &AnalysisConfig{
		MissingTokens:  getEnvListOrDefault("MISSING_TOKENS", def.MissingTokens),
		DropZeroX:      getEnvBoolOrDefault("DROP_ZERO_X", def.DropZeroX),
		CategoryColumn: getEnvOrDefault("CATEGORY_COLUMN", def.CategoryColumn),
		HistogramBins:  getEnvIntOrDefault("HISTOGRAM_BINS", def.HistogramBins),
		PreviewRows:    getEnvIntOrDefault("PREVIEW_ROWS", def.PreviewRows),
		SweepWorkers:   getEnvIntOrDefault("SWEEP_WORKERS", def.SweepWorkers),
	}
}

// Validate checks value ranges
func Validate(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Analysis.HistogramBins <= 0 {
		return errors.ConfigInvalid("HISTOGRAM_BINS must be positive")
	}
	if config.Analysis.PreviewRows < 0 {
		return errors.ConfigInvalid("PREVIEW_ROWS must not be negative")
	}
	if config.Analysis.SweepWorkers <= 0 {
		return errors.ConfigInvalid("SWEEP_WORKERS must be positive")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma-separated value. An explicitly empty
// entry (",,") keeps the empty-string token.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(p)))
	}
	return out
}
