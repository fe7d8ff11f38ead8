package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the ingestion bridge.
type Config struct {
	DatabaseURL string
	Port        int
	APIKey      string
	// RatePerMinute caps sensor pushes per station. Field devices report
	// every few seconds at most; anything past this is a runaway loop.
	RatePerMinute int
	Debug         bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:          3001,
		RatePerMinute: 60,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	cfg.APIKey = os.Getenv("ESP32_API_KEY")
	if cfg.APIKey == "" {
		return cfg, errors.New("ESP32_API_KEY is required")
	}

	if portStr := os.Getenv("BRIDGE_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid BRIDGE_PORT: %s", portStr)
		}
	}

	if rateStr := os.Getenv("BRIDGE_RATE_PER_MINUTE"); rateStr != "" {
		if r, err := strconv.Atoi(rateStr); err == nil && r > 0 {
			cfg.RatePerMinute = r
		} else {
			return cfg, fmt.Errorf("invalid BRIDGE_RATE_PER_MINUTE: %s", rateStr)
		}
	}

	if debugStr := os.Getenv("DEBUG"); debugStr != "" {
		if debug, err := strconv.ParseBool(debugStr); err == nil {
			cfg.Debug = debug
		}
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
