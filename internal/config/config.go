package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the SSE hub.
type Config struct {
	// Addr is the HTTP listen address for the SSE hub.
	Addr string `validate:"required"`
	// Heartbeat is the interval between SSE keep-alive comments.
	Heartbeat time.Duration `validate:"gt=0"`
	// RequestTimeout bounds bus requests issued on behalf of HTTP callers.
	RequestTimeout time.Duration `validate:"gt=0"`
	// RelayEnabled turns on the watermill relay for local consumers.
	RelayEnabled bool
	// RelayPatterns are the bus patterns mirrored onto watermill.
	RelayPatterns []string `validate:"dive,min=1"`
}

// New loads configuration from the environment, falling back to defaults
// that match the reference deployment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Addr:           getEnv("PAN_ADDR", ":3003"),
		Heartbeat:      getDuration("PAN_HEARTBEAT", 15*time.Second),
		RequestTimeout: getDuration("PAN_REQUEST_TIMEOUT", 5*time.Second),
		RelayEnabled:   os.Getenv("PAN_RELAY") == "true",
		RelayPatterns:  []string{"*"},
	}
	if patterns := os.Getenv("PAN_RELAY_PATTERNS"); patterns != "" {
		cfg.RelayPatterns = splitCSV(patterns)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid duration in %s: %q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
