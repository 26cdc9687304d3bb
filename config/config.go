// Package config reads configuration from environment variables with
// sensible defaults. Everything is passed into constructors explicitly;
// there is no ambient state.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Yahoo YahooConfig
	Edgar EdgarConfig
	HTTP  HTTPConfig
}

// YahooConfig points at the market-data upstream.
type YahooConfig struct {
	BaseURL string
}

// EdgarConfig points at the filing registry. The registry rejects
// requests without a descriptive User-Agent.
type EdgarConfig struct {
	BaseURL   string
	UserAgent string
}

// HTTPConfig tunes the resilience policy shared by both upstream clients.
type HTTPConfig struct {
	Timeout          time.Duration
	RetryMax         int
	BackoffBase      time.Duration
	BreakerThreshold uint32
	BreakerCooldown  time.Duration
}

func Load() *Config {
	return &Config{
		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com/v8/finance"),
		},
		Edgar: EdgarConfig{
			BaseURL:   getEnv("EDGAR_BASE_URL", "https://data.sec.gov"),
			UserAgent: getEnv("EDGAR_USER_AGENT", "Finsights Financial Analysis App 1.0"),
		},
		HTTP: HTTPConfig{
			Timeout:          getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
			RetryMax:         getEnvInt("HTTP_RETRY_MAX", 3),
			BackoffBase:      getEnvDuration("HTTP_BACKOFF_BASE", time.Second),
			BreakerThreshold: uint32(getEnvInt("HTTP_BREAKER_THRESHOLD", 5)),
			BreakerCooldown:  getEnvDuration("HTTP_BREAKER_COOLDOWN", 30*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
