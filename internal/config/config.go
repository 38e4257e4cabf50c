// Package config handles application configuration from environment variables
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Model artifacts
	ModelDir string // Preferred artifact directory, tried before the built-in search path

	// HTTP
	CORSOrigins []string

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint for traces (optional)
}

const (
	DefaultPort     = "8080"
	DefaultEnv      = "development"
	DefaultLogLevel = "info"
)

// defaultCORSOrigins mirrors the frontend dev server origins.
var defaultCORSOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// Load reads configuration from environment variables.
// It loads .env file if present (for local development).
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", DefaultPort),
		Env:          getEnv("ENV", DefaultEnv),
		LogLevel:     getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:  os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		ModelDir:     os.Getenv("MODEL_DIR"),
		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", strings.Join(defaultCORSOrigins, ","))),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	return cfg, nil
}

// ModelSearchPath returns the ordered candidate directories for model
// artifacts. MODEL_DIR, when set, is tried first; the remaining entries
// tolerate the common deployment layouts (working dir, repo root, container
// volume mount).
func (c *Config) ModelSearchPath() []string {
	paths := []string{}
	if c.ModelDir != "" {
		paths = append(paths, c.ModelDir)
	}
	return append(paths, "model", "../model", "/app/model")
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
